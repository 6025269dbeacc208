package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, name, loyalty, notifications, notification_preferences`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                           domain.User
		loyalty, inbox, preferences []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &loyalty, &inbox, &preferences); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := decodeJSON(loyalty, &u.Loyalty); err != nil {
		return nil, fmt.Errorf("decode loyalty of user %s: %w", u.ID, err)
	}
	if err := decodeJSON(inbox, &u.Notifications); err != nil {
		return nil, fmt.Errorf("decode notifications of user %s: %w", u.ID, err)
	}
	if err := decodeJSON(preferences, &u.NotificationPreferences); err != nil {
		return nil, fmt.Errorf("decode preferences of user %s: %w", u.ID, err)
	}
	if u.Loyalty == nil {
		u.Loyalty = map[string]domain.LoyaltyProgress{}
	}
	return &u, nil
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	query, args, err := userUpdateSQL(id, patch)
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func userUpdateSQL(id string, patch domain.UserPatch) (string, []any, error) {
	var sets []string
	var args []any

	if patch.Loyalty != nil {
		payload, err := json.Marshal(patch.Loyalty)
		if err != nil {
			return "", nil, fmt.Errorf("encode loyalty: %w", err)
		}
		args = append(args, string(payload))
		sets = append(sets, fmt.Sprintf("loyalty = $%d::jsonb", len(args)))
	}
	if patch.Notifications != nil {
		inbox := *patch.Notifications
		if inbox == nil {
			inbox = []domain.Notification{}
		}
		payload, err := json.Marshal(inbox)
		if err != nil {
			return "", nil, fmt.Errorf("encode notifications: %w", err)
		}
		args = append(args, string(payload))
		sets = append(sets, fmt.Sprintf("notifications = $%d::jsonb", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)
	return query, args, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
