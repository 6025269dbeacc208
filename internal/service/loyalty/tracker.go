// Package loyalty advances per-venue loyalty progress for played bookings and
// issues free-booking tickets.
//
// A booking counts once: it is only included while loyalty_applied is false,
// and the flag is set after the user's loyalty map has been written. If the
// map write fails nothing is marked and the pass is retried, so a reward
// notification can be shown twice. If the map write succeeds but a booking
// mark fails, that booking is counted again on the next pass.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/clock"
	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/kafka"
	"github.com/Domenick1991/pitchbooking/internal/metrics"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/sirupsen/logrus"
)

const TaskName = "loyalty"

type Dispatcher interface {
	AddPersistent(ctx context.Context, input domain.NotificationInput) domain.Notification
}

type VenueDirectory interface {
	Index(ctx context.Context) (map[string]domain.Venue, error)
}

// RewardPresenter shows the reward screen; called once per goal crossing.
type RewardPresenter interface {
	PresentReward(ctx context.Context, event kafka.RewardEvent) error
}

type Tracker struct {
	bookings   repository.BookingRepository
	users      repository.UserRepository
	venues     VenueDirectory
	dispatcher Dispatcher
	rewards    RewardPresenter
	state      *session.State
	clock      clock.Clock
	loc        *time.Location
	log        logrus.FieldLogger
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

func WithRewardPresenter(p RewardPresenter) Option {
	return func(t *Tracker) {
		t.rewards = p
	}
}

func NewTracker(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	venues VenueDirectory,
	dispatcher Dispatcher,
	state *session.State,
	opts ...Option,
) *Tracker {
	t := &Tracker{
		bookings:   bookings,
		users:      users,
		venues:     venues,
		dispatcher: dispatcher,
		state:      state,
		clock:      clock.Real{},
		loc:        time.Local,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithField("component", TaskName)
	return t
}

// Result describes one settle pass.
type Result struct {
	Loyalty map[string]domain.LoyaltyProgress
	Rewards []kafka.RewardEvent
	// Settled holds the ids of bookings now marked loyalty_applied.
	Settled []string
}

func (r Result) Changed() bool {
	return r.Loyalty != nil
}

// Tick settles the signed-in user's played bookings.
func (t *Tracker) Tick(ctx context.Context) error {
	user, ok := t.state.CurrentUser()
	if !ok {
		return nil
	}
	bookings, err := t.bookings.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	venues, err := t.venues.Index(ctx)
	if err != nil {
		return fmt.Errorf("load venues: %w", err)
	}
	_, err = t.Settle(ctx, t.clock.Now(), bookings, user, venues)
	return err
}

type played struct {
	booking domain.Booking
	at      time.Time
}

// Settle runs one settle pass over bookings for user.
func (t *Tracker) Settle(ctx context.Context, now time.Time, bookings []domain.Booking, user domain.User, venues map[string]domain.Venue) (Result, error) {
	var queue []played
	for _, b := range bookings {
		if b.UserID != user.ID || b.Status != domain.BookingStatusConfirmed || b.LoyaltyApplied {
			continue
		}
		at, err := b.Instant(t.loc)
		if err != nil {
			t.log.WithError(err).WithField("booking_id", b.ID).Warn("skip booking")
			continue
		}
		if !at.Before(now) {
			continue
		}
		queue = append(queue, played{booking: b, at: at})
	}
	sort.Slice(queue, func(i, j int) bool {
		if !queue[i].at.Equal(queue[j].at) {
			return queue[i].at.Before(queue[j].at)
		}
		return queue[i].booking.ID < queue[j].booking.ID
	})

	var result Result
	loyalty := domain.CloneLoyalty(user.Loyalty)
	var processed []string

	for _, p := range queue {
		venue, ok := venues[p.booking.VenueID]
		if !ok || !venue.LoyaltyEnabled {
			continue
		}

		entry := loyalty[venue.ID]
		entry.Progress++
		if entry.Progress >= venue.Goal() {
			entry.Progress = 0
			entry.FreeTickets++
			result.Rewards = append(result.Rewards, t.reward(ctx, user.ID, venue, entry.FreeTickets, now))
		}
		loyalty[venue.ID] = entry
		processed = append(processed, p.booking.ID)
	}

	if len(processed) == 0 {
		return result, nil
	}

	patch := domain.UserPatch{Loyalty: loyalty}
	if _, err := t.users.Update(ctx, user.ID, patch); err != nil {
		metrics.RecordWriteFailure(TaskName)
		return result, fmt.Errorf("persist loyalty for user %s: %w", user.ID, err)
	}
	result.Loyalty = loyalty
	t.state.UpdateUser(user.ID, patch)

	var errs []error
	applied := true
	for _, id := range processed {
		if _, err := t.bookings.Update(ctx, id, domain.BookingPatch{LoyaltyApplied: &applied}); err != nil {
			metrics.RecordWriteFailure(TaskName)
			errs = append(errs, fmt.Errorf("mark booking %s settled: %w", id, err))
			continue
		}
		result.Settled = append(result.Settled, id)
	}
	metrics.RecordSettled(len(result.Settled))

	t.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"settled": len(result.Settled),
		"rewards": len(result.Rewards),
	}).Info("settle pass")
	return result, errors.Join(errs...)
}

func (t *Tracker) reward(ctx context.Context, userID string, venue domain.Venue, tickets int, now time.Time) kafka.RewardEvent {
	metrics.RecordReward()
	t.dispatcher.AddPersistent(ctx, domain.NotificationInput{
		Kind:    domain.NotificationSuccess,
		Title:   "Free match unlocked!",
		Message: fmt.Sprintf("You earned a free booking at %s. Free tickets: %d.", venue.Name, tickets),
	})

	event := kafka.RewardEvent{
		UserID:      userID,
		VenueID:     venue.ID,
		VenueName:   venue.Name,
		FreeTickets: tickets,
		At:          now,
	}
	if t.rewards != nil {
		if err := t.rewards.PresentReward(ctx, event); err != nil {
			t.log.WithError(err).WithField("venue_id", venue.ID).Warn("present reward")
		}
	}
	return event
}
