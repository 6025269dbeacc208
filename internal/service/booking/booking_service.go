package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/kafka"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, userID, id string) (*domain.Booking, error)
}

type VenueDirectory interface {
	Index(ctx context.Context) (map[string]domain.Venue, error)
}

// BookingService writes bookings and announces every change on the booking
// events topic, which is what wakes the loyalty tracker.
type BookingService struct {
	repo     repository.BookingRepository
	venues   VenueDirectory
	producer kafka.Publisher
	topic    string
	loc      *time.Location
	log      logrus.FieldLogger
}

type Option func(*BookingService)

func WithLocation(loc *time.Location) Option {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	repo repository.BookingRepository,
	venues VenueDirectory,
	producer kafka.Publisher,
	topic string,
	opts ...Option,
) *BookingService {
	s := &BookingService{
		repo:     repo,
		venues:   venues,
		producer: producer,
		topic:    topic,
		loc:      time.Local,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "booking")
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error) {
	probe := domain.Booking{Date: input.Date, Time: input.Time}
	if _, err := probe.Instant(s.loc); err != nil {
		return nil, err
	}

	venues, err := s.venues.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("load venues: %w", err)
	}
	if _, ok := venues[input.VenueID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownVenue, input.VenueID)
	}

	b, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.publish(ctx, kafka.BookingCreated, b)
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CancelBooking cancels a confirmed booking owned by userID. Bookings owned by
// someone else are reported as not found.
func (s *BookingService) CancelBooking(ctx context.Context, userID, id string) (*domain.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if b.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrNotCancellable
	}

	status := domain.BookingStatusCancelled
	updated, err := s.repo.Update(ctx, id, domain.BookingPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", id, err)
	}
	s.publish(ctx, kafka.BookingCancelled, updated)
	return updated, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:      eventType,
		BookingID: b.ID,
		UserID:    b.UserID,
		VenueID:   b.VenueID,
		Status:    string(b.Status),
	}
	if err := s.producer.Publish(ctx, s.topic, b.UserID, event); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("publish booking event")
	}
}

var _ BookingUseCase = (*BookingService)(nil)
