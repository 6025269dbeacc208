package repository

import (
	"testing"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserRepository(t *testing.T) {
	assert.NotNil(t, NewUserRepository(&pgxpool.Pool{}))
	assert.NotNil(t, NewVenueRepository(&pgxpool.Pool{}))
}

func TestUserUpdateSQL_Loyalty(t *testing.T) {
	query, args, err := userUpdateSQL("u1", domain.UserPatch{
		Loyalty: map[string]domain.LoyaltyProgress{"v1": {Progress: 3, FreeTickets: 1}},
	})
	require.NoError(t, err)

	assert.Contains(t, query, "loyalty = $1::jsonb")
	assert.NotContains(t, query, "notifications =")
	assert.Equal(t, `{"v1":{"progress":3,"free_tickets":1}}`, args[0])
	assert.Equal(t, "u1", args[1])
}

func TestUserUpdateSQL_ClearInbox(t *testing.T) {
	var empty []domain.Notification
	query, args, err := userUpdateSQL("u1", domain.UserPatch{Notifications: &empty})
	require.NoError(t, err)

	assert.Contains(t, query, "notifications = $1::jsonb")
	assert.Equal(t, "[]", args[0])
}

func TestDecodeJSON_Empty(t *testing.T) {
	var inbox []domain.Notification
	assert.NoError(t, decodeJSON(nil, &inbox))
	assert.Nil(t, inbox)
}
