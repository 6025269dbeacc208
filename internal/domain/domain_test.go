package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_Instant(t *testing.T) {
	b := Booking{ID: "b1", Date: "2026-10-18", Time: "19:30"}

	at, err := b.Instant(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 19, 30, 0, 0, time.UTC), at)
}

func TestBooking_Instant_Malformed(t *testing.T) {
	b := Booking{ID: "b1", Date: "18/10/2026", Time: "7pm"}

	_, err := b.Instant(time.UTC)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSchedule))
}

func TestBookingPatch_Apply(t *testing.T) {
	applied := true
	patch := BookingPatch{
		RemindersSent:  &RemindersSent{TwentyFourHour: true},
		LoyaltyApplied: &applied,
	}
	b := patch.Apply(Booking{ID: "b1", Status: BookingStatusConfirmed})

	assert.True(t, b.RemindersSent.TwentyFourHour)
	assert.False(t, b.RemindersSent.OneHour)
	assert.True(t, b.LoyaltyApplied)
	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.False(t, patch.Empty())
	assert.True(t, BookingPatch{}.Empty())
}

func TestVenue_Goal(t *testing.T) {
	assert.Equal(t, DefaultLoyaltyGoal, Venue{}.Goal())
	assert.Equal(t, DefaultLoyaltyGoal, Venue{LoyaltyGoal: -3}.Goal())
	assert.Equal(t, 10, Venue{LoyaltyGoal: 10}.Goal())
}

func TestUser_CloneIsDeep(t *testing.T) {
	u := User{
		ID:            "u1",
		Loyalty:       map[string]LoyaltyProgress{"v1": {Progress: 2}},
		Notifications: []Notification{{ID: 1}},
	}
	c := u.Clone()
	c.Loyalty["v1"] = LoyaltyProgress{Progress: 5}
	c.Notifications[0].Read = true

	assert.Equal(t, 2, u.Loyalty["v1"].Progress)
	assert.False(t, u.Notifications[0].Read)
}

func TestUserPatch_ClearInbox(t *testing.T) {
	empty := []Notification{}
	u := UserPatch{Notifications: &empty}.Apply(User{Notifications: []Notification{{ID: 1}}})
	assert.Empty(t, u.Notifications)
}

func TestSortInbox(t *testing.T) {
	stored := []Notification{
		{ID: 1, Timestamp: "2026-10-17T10:00:00Z"},
		{ID: 2, Timestamp: "garbage"},
		{ID: 3, Timestamp: "2026-10-17T12:00:00Z"},
		{ID: 4, Timestamp: "2026-10-17T11:00:00.5Z"},
	}

	got := SortInbox(stored)

	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, int64(1), got[2].ID)
}

func TestCapInbox(t *testing.T) {
	inbox := make([]Notification, 60)
	assert.Len(t, CapInbox(inbox, InboxLimit), InboxLimit)
	assert.Len(t, CapInbox(inbox[:3], InboxLimit), 3)
}
