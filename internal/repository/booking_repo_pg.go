package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Create(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error)
	Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, venue_id, booking_date, booking_time, status, reminder_24h_sent, reminder_1h_sent, loyalty_applied, is_free, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.VenueID, &b.Date, &b.Time, &b.Status,
		&b.RemindersSent.TwentyFourHour, &b.RemindersSent.OneHour, &b.LoyaltyApplied, &b.IsFree,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY booking_date, booking_time, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

// Create stores a new confirmed booking with every engine flag cleared.
func (r *PGBookingRepository) Create(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, venue_id, booking_date, booking_time, status, reminder_24h_sent, reminder_1h_sent, loyalty_applied, is_free)
		VALUES ($1, $2, $3, $4, $5, $6, false, false, false, $7)
		RETURNING `+bookingColumns,
		uuid.NewString(), input.UserID, input.VenueID, input.Date, input.Time, domain.BookingStatusConfirmed, input.IsFree))
}

func (r *PGBookingRepository) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	query, args := bookingUpdateSQL(id, patch)
	return scanBooking(r.db.QueryRow(ctx, query, args...))
}

// bookingUpdateSQL builds the UPDATE for a patch. Flags are OR-ed in so a
// stale writer can never turn a sent reminder or applied loyalty back off.
func bookingUpdateSQL(id string, patch domain.BookingPatch) (string, []any) {
	var sets []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if patch.RemindersSent != nil {
		add("reminder_24h_sent = reminder_24h_sent OR $%d", patch.RemindersSent.TwentyFourHour)
		add("reminder_1h_sent = reminder_1h_sent OR $%d", patch.RemindersSent.OneHour)
	}
	if patch.LoyaltyApplied != nil {
		add("loyalty_applied = loyalty_applied OR $%d", *patch.LoyaltyApplied)
	}
	if patch.Status != nil {
		add("status = $%d", string(*patch.Status))
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE id=$%d RETURNING %s`, strings.Join(sets, ", "), len(args), bookingColumns)
	return query, args
}

var _ BookingRepository = (*PGBookingRepository)(nil)
