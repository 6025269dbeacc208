// Package reminder fires the 24-hour and 1-hour match reminders.
//
// Delivery is at-least-once. The notification is dispatched before the flag
// write; if the write fails, or the process dies between the two, the next
// tick sees the flag still false and reminds again.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/clock"
	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/metrics"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	TaskName = "reminder"

	DayWindow  = 24 * time.Hour
	HourWindow = time.Hour
)

type Dispatcher interface {
	AddPersistent(ctx context.Context, input domain.NotificationInput) domain.Notification
}

type VenueDirectory interface {
	Index(ctx context.Context) (map[string]domain.Venue, error)
}

// TickLocker guards a tick across engine instances. Acquire returns an empty
// token when another instance holds the lock; Release only drops the lock if
// it still carries token.
type TickLocker interface {
	AcquireTickLock(ctx context.Context, task, userID string, ttl time.Duration) (string, error)
	ReleaseTickLock(ctx context.Context, task, userID, token string) error
}

type Scheduler struct {
	bookings   repository.BookingRepository
	venues     VenueDirectory
	dispatcher Dispatcher
	state      *session.State
	clock      clock.Clock
	loc        *time.Location
	log        logrus.FieldLogger
	locker     TickLocker
	lockTTL    time.Duration
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

func WithTickLock(locker TickLocker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func NewScheduler(
	bookings repository.BookingRepository,
	venues VenueDirectory,
	dispatcher Dispatcher,
	state *session.State,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		bookings:   bookings,
		venues:     venues,
		dispatcher: dispatcher,
		state:      state,
		clock:      clock.Real{},
		loc:        time.Local,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", TaskName)
	return s
}

// Tick loads the signed-in user's bookings and scans them. Without a session
// it does nothing.
func (s *Scheduler) Tick(ctx context.Context) error {
	userID := s.state.UserID()
	if userID == "" {
		return nil
	}

	if s.locker != nil {
		token, err := s.locker.AcquireTickLock(ctx, TaskName, userID, s.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire tick lock: %w", err)
		}
		if token == "" {
			s.log.WithField("user_id", userID).Debug("tick already running elsewhere")
			return nil
		}
		defer func() {
			// the tick context may already be cancelled by logout or shutdown
			releaseCtx := context.WithoutCancel(ctx)
			if err := s.locker.ReleaseTickLock(releaseCtx, TaskName, userID, token); err != nil {
				s.log.WithError(err).Debug("release tick lock")
			}
		}()
	}

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	s.Scan(ctx, s.clock.Now(), bookings)
	return nil
}

// Scan fires due reminders for bookings and returns the bookings whose flags
// were persisted. The input slice is not modified.
func (s *Scheduler) Scan(ctx context.Context, now time.Time, bookings []domain.Booking) []domain.Booking {
	var (
		updated []domain.Booking
		names   map[string]domain.Venue
	)

	for _, b := range bookings {
		if b.Status != domain.BookingStatusConfirmed {
			continue
		}
		at, err := b.Instant(s.loc)
		if err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("skip booking")
			continue
		}
		if at.Before(now) {
			continue
		}

		until := at.Sub(now)
		sent := b.RemindersSent
		var input *domain.NotificationInput
		var threshold string

		switch {
		case until > HourWindow && until <= DayWindow && !sent.TwentyFourHour:
			sent.TwentyFourHour = true
			threshold = "24h"
			if names == nil {
				names = s.venueIndex(ctx)
			}
			input = &domain.NotificationInput{
				Kind:    domain.NotificationInfo,
				Title:   "Match tomorrow",
				Message: fmt.Sprintf("Your match at %s is tomorrow at %s.", venueName(names, b.VenueID), at.Format(domain.TimeLayout)),
			}
		case until > 0 && until <= HourWindow && !sent.OneHour:
			sent.OneHour = true
			threshold = "1h"
			if names == nil {
				names = s.venueIndex(ctx)
			}
			input = &domain.NotificationInput{
				Kind:    domain.NotificationInfo,
				Title:   "Match soon",
				Message: fmt.Sprintf("Your match at %s starts in about an hour.", venueName(names, b.VenueID)),
			}
		}
		if input == nil {
			continue
		}

		s.dispatcher.AddPersistent(ctx, *input)
		metrics.RecordReminder(threshold)

		saved, err := s.bookings.Update(ctx, b.ID, domain.BookingPatch{RemindersSent: &sent})
		if err != nil {
			metrics.RecordWriteFailure(TaskName)
			s.log.WithError(err).WithFields(logrus.Fields{
				"booking_id": b.ID,
				"threshold":  threshold,
			}).Warn("persist reminder flag, will retry next tick")
			continue
		}
		if saved == nil {
			b.RemindersSent = sent
			saved = &b
		}
		updated = append(updated, *saved)
	}
	return updated
}

func (s *Scheduler) venueIndex(ctx context.Context) map[string]domain.Venue {
	if s.venues == nil {
		return map[string]domain.Venue{}
	}
	idx, err := s.venues.Index(ctx)
	if err != nil {
		s.log.WithError(err).Debug("venue lookup failed")
		return map[string]domain.Venue{}
	}
	return idx
}

func venueName(idx map[string]domain.Venue, id string) string {
	if v, ok := idx[id]; ok && v.Name != "" {
		return v.Name
	}
	return "your venue"
}
