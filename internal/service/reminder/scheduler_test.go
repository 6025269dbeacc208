package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/clock"
	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/logging"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	args := m.Called(ctx, id, patch)
	if fn, ok := args.Get(0).(func(context.Context, string, domain.BookingPatch) *domain.Booking); ok {
		return fn(ctx, id, patch), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) AddPersistent(ctx context.Context, input domain.NotificationInput) domain.Notification {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Notification)
}

type MockVenueDirectory struct {
	mock.Mock
}

func (m *MockVenueDirectory) Index(ctx context.Context) (map[string]domain.Venue, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]domain.Venue), args.Error(1)
}

type MockTickLocker struct {
	mock.Mock
}

func (m *MockTickLocker) AcquireTickLock(ctx context.Context, task, userID string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, task, userID, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTickLocker) ReleaseTickLock(ctx context.Context, task, userID, token string) error {
	args := m.Called(ctx, task, userID, token)
	return args.Error(0)
}

var now = time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)

func bookingAt(id string, at time.Time, sent domain.RemindersSent) domain.Booking {
	return domain.Booking{
		ID:            id,
		UserID:        "u1",
		VenueID:       "v1",
		Date:          at.Format(domain.DateLayout),
		Time:          at.Format(domain.TimeLayout),
		Status:        domain.BookingStatusConfirmed,
		RemindersSent: sent,
	}
}

type fixture struct {
	bookings   *MockBookingRepository
	dispatcher *MockDispatcher
	venues     *MockVenueDirectory
	state      *session.State
	clock      *clock.Fake
	scheduler  *Scheduler
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		bookings:   &MockBookingRepository{},
		dispatcher: &MockDispatcher{},
		venues:     &MockVenueDirectory{},
		state:      session.NewState(),
		clock:      clock.NewFake(now),
	}
	f.venues.On("Index", mock.Anything).Return(map[string]domain.Venue{"v1": {ID: "v1", Name: "Cancha Norte"}}, nil).Maybe()
	opts = append([]Option{WithClock(f.clock), WithLocation(time.UTC), WithLogger(logging.Discard())}, opts...)
	f.scheduler = NewScheduler(f.bookings, f.venues, f.dispatcher, f.state, opts...)
	return f
}

// persistPatch makes Update echo back the booking with the patch applied.
func (f *fixture) persistPatch(b domain.Booking) {
	f.bookings.On("Update", mock.Anything, b.ID, mock.Anything).
		Return(func(_ context.Context, _ string, p domain.BookingPatch) *domain.Booking {
			out := p.Apply(b)
			return &out
		}, nil)
}

func TestScan_TwentyFourHourFiresOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := bookingAt("b1", now.Add(23*time.Hour+30*time.Minute), domain.RemindersSent{})

	f.dispatcher.On("AddPersistent", ctx, mock.MatchedBy(func(in domain.NotificationInput) bool {
		return in.Kind == domain.NotificationInfo && in.Title == "Match tomorrow" &&
			in.Message == "Your match at Cancha Norte is tomorrow at 17:30."
	})).Return(domain.Notification{}).Once()
	f.bookings.On("Update", ctx, "b1", domain.BookingPatch{
		RemindersSent: &domain.RemindersSent{TwentyFourHour: true},
	}).Return(func(_ context.Context, _ string, p domain.BookingPatch) *domain.Booking {
		out := p.Apply(b)
		return &out
	}, nil).Once()

	updated := f.scheduler.Scan(ctx, now, []domain.Booking{b})

	require.Len(t, updated, 1)
	assert.True(t, updated[0].RemindersSent.TwentyFourHour)
	assert.False(t, updated[0].RemindersSent.OneHour)
	assert.False(t, b.RemindersSent.TwentyFourHour, "input must not be mutated")

	// half an hour later, 23 hours out, with the persisted flag
	again := f.scheduler.Scan(ctx, now.Add(30*time.Minute), updated)

	assert.Empty(t, again)
	f.dispatcher.AssertNumberOfCalls(t, "AddPersistent", 1)
	f.bookings.AssertNumberOfCalls(t, "Update", 1)
}

func TestScan_OneHourFires(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := bookingAt("b1", now.Add(45*time.Minute), domain.RemindersSent{TwentyFourHour: true})

	f.dispatcher.On("AddPersistent", ctx, mock.MatchedBy(func(in domain.NotificationInput) bool {
		return in.Title == "Match soon"
	})).Return(domain.Notification{}).Once()
	f.bookings.On("Update", ctx, "b1", domain.BookingPatch{
		RemindersSent: &domain.RemindersSent{TwentyFourHour: true, OneHour: true},
	}).Return(&domain.Booking{ID: "b1", RemindersSent: domain.RemindersSent{TwentyFourHour: true, OneHour: true}}, nil).Once()

	updated := f.scheduler.Scan(ctx, now, []domain.Booking{b})

	require.Len(t, updated, 1)
	assert.True(t, updated[0].RemindersSent.OneHour)
	f.dispatcher.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
}

func TestScan_BothFlagsSetIsSilent(t *testing.T) {
	f := newFixture()
	b := bookingAt("b1", now.Add(45*time.Minute), domain.RemindersSent{TwentyFourHour: true, OneHour: true})

	updated := f.scheduler.Scan(context.Background(), now, []domain.Booking{b})

	assert.Empty(t, updated)
	f.dispatcher.AssertNotCalled(t, "AddPersistent", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestScan_WindowBoundaries(t *testing.T) {
	testCases := []struct {
		name      string
		until     time.Duration
		wantTitle string
	}{
		{name: "exactly 24h", until: 24 * time.Hour, wantTitle: "Match tomorrow"},
		{name: "just over 24h", until: 24*time.Hour + time.Minute},
		{name: "just over 1h", until: time.Hour + time.Minute, wantTitle: "Match tomorrow"},
		{name: "exactly 1h", until: time.Hour, wantTitle: "Match soon"},
		{name: "starting now", until: 0},
		{name: "already started", until: -time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			b := bookingAt("b1", now.Add(tc.until), domain.RemindersSent{})
			if tc.wantTitle != "" {
				f.dispatcher.On("AddPersistent", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool {
					return in.Title == tc.wantTitle
				})).Return(domain.Notification{}).Once()
				f.persistPatch(b)
			}

			f.scheduler.Scan(context.Background(), now, []domain.Booking{b})

			if tc.wantTitle == "" {
				f.dispatcher.AssertNotCalled(t, "AddPersistent", mock.Anything, mock.Anything)
			} else {
				f.dispatcher.AssertExpectations(t)
			}
		})
	}
}

func TestScan_SkipsNonConfirmedAndMalformed(t *testing.T) {
	f := newFixture()
	cancelled := bookingAt("b1", now.Add(2*time.Hour), domain.RemindersSent{})
	cancelled.Status = domain.BookingStatusCancelled
	completed := bookingAt("b2", now.Add(2*time.Hour), domain.RemindersSent{})
	completed.Status = domain.BookingStatusCompleted
	malformed := bookingAt("b3", now.Add(2*time.Hour), domain.RemindersSent{})
	malformed.Time = "late evening"

	updated := f.scheduler.Scan(context.Background(), now, []domain.Booking{cancelled, completed, malformed})

	assert.Empty(t, updated)
	f.dispatcher.AssertNotCalled(t, "AddPersistent", mock.Anything, mock.Anything)
}

func TestScan_WriteFailureRetriesNextTick(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := bookingAt("b1", now.Add(3*time.Hour), domain.RemindersSent{})

	f.dispatcher.On("AddPersistent", ctx, mock.Anything).Return(domain.Notification{}).Twice()
	f.bookings.On("Update", ctx, "b1", mock.Anything).Return(nil, errors.New("store unavailable")).Once()
	f.bookings.On("Update", ctx, "b1", mock.Anything).Return(&domain.Booking{ID: "b1", RemindersSent: domain.RemindersSent{TwentyFourHour: true}}, nil).Once()

	first := f.scheduler.Scan(ctx, now, []domain.Booking{b})
	assert.Empty(t, first)

	// the store still holds the unflipped booking, so the next tick retries
	second := f.scheduler.Scan(ctx, now.Add(time.Minute), []domain.Booking{b})
	require.Len(t, second, 1)
	assert.True(t, second[0].RemindersSent.TwentyFourHour)

	f.dispatcher.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
}

func TestScan_FlagsNeverReset(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := bookingAt("b1", now.Add(30*time.Hour), domain.RemindersSent{})
	f.dispatcher.On("AddPersistent", ctx, mock.Anything).Return(domain.Notification{})
	f.persistPatch(b)

	current := []domain.Booking{b}
	seen := domain.RemindersSent{}
	for step := 0; step < 32*60; step += 10 {
		at := now.Add(time.Duration(step) * time.Minute)
		for _, u := range f.scheduler.Scan(ctx, at, current) {
			assert.True(t, !seen.TwentyFourHour || u.RemindersSent.TwentyFourHour)
			assert.True(t, !seen.OneHour || u.RemindersSent.OneHour)
			seen = u.RemindersSent
			current = []domain.Booking{u}
		}
	}

	assert.True(t, seen.TwentyFourHour)
	assert.True(t, seen.OneHour)
	f.dispatcher.AssertNumberOfCalls(t, "AddPersistent", 2)
}

func TestTick_NoSession(t *testing.T) {
	f := newFixture()

	assert.NoError(t, f.scheduler.Tick(context.Background()))
	f.bookings.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestTick_LoadsCurrentUserBookings(t *testing.T) {
	f := newFixture()
	f.state.Start(domain.User{ID: "u1"})
	ctx := context.Background()

	b := bookingAt("b1", now.Add(20*time.Hour), domain.RemindersSent{})
	f.bookings.On("ListByUser", ctx, "u1").Return([]domain.Booking{b}, nil).Once()
	f.dispatcher.On("AddPersistent", ctx, mock.Anything).Return(domain.Notification{}).Once()
	f.persistPatch(b)

	assert.NoError(t, f.scheduler.Tick(ctx))
	f.bookings.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
}

func TestTick_ListError(t *testing.T) {
	f := newFixture()
	f.state.Start(domain.User{ID: "u1"})
	ctx := context.Background()
	f.bookings.On("ListByUser", ctx, "u1").Return([]domain.Booking(nil), errors.New("db down")).Once()

	assert.Error(t, f.scheduler.Tick(ctx))
}

func TestTick_SkipsWhenLockHeld(t *testing.T) {
	locker := &MockTickLocker{}
	f := newFixture(WithTickLock(locker, time.Minute))
	f.state.Start(domain.User{ID: "u1"})
	ctx := context.Background()

	locker.On("AcquireTickLock", ctx, TaskName, "u1", time.Minute).Return("", nil).Once()

	assert.NoError(t, f.scheduler.Tick(ctx))
	f.bookings.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
	locker.AssertNotCalled(t, "ReleaseTickLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTick_ReleasesLock(t *testing.T) {
	locker := &MockTickLocker{}
	f := newFixture(WithTickLock(locker, time.Minute))
	f.state.Start(domain.User{ID: "u1"})
	ctx := context.Background()

	locker.On("AcquireTickLock", ctx, TaskName, "u1", time.Minute).Return("token-1", nil).Once()
	locker.On("ReleaseTickLock", mock.Anything, TaskName, "u1", "token-1").Return(nil).Once()
	f.bookings.On("ListByUser", ctx, "u1").Return([]domain.Booking{}, nil).Once()

	assert.NoError(t, f.scheduler.Tick(ctx))
	locker.AssertExpectations(t)
}

func TestTick_ReleasesLockAfterCancel(t *testing.T) {
	locker := &MockTickLocker{}
	f := newFixture(WithTickLock(locker, time.Minute))
	f.state.Start(domain.User{ID: "u1"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locker.On("AcquireTickLock", ctx, TaskName, "u1", time.Minute).Return("token-1", nil).Once()
	f.bookings.On("ListByUser", ctx, "u1").
		Run(func(mock.Arguments) { cancel() }).
		Return([]domain.Booking{}, nil).Once()
	locker.On("ReleaseTickLock", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), TaskName, "u1", "token-1").Return(nil).Once()

	assert.NoError(t, f.scheduler.Tick(ctx))
	locker.AssertExpectations(t)
}
