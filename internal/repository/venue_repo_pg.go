package repository

import (
	"context"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VenueRepository interface {
	List(ctx context.Context) ([]domain.Venue, error)
}

type PGVenueRepository struct {
	db *pgxpool.Pool
}

func NewVenueRepository(db *pgxpool.Pool) VenueRepository {
	return &PGVenueRepository{db: db}
}

func (r *PGVenueRepository) List(ctx context.Context) ([]domain.Venue, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, loyalty_enabled, COALESCE(loyalty_goal, 0) FROM venues ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := make([]domain.Venue, 0)
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.LoyaltyEnabled, &v.LoyaltyGoal); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

var _ VenueRepository = (*PGVenueRepository)(nil)
