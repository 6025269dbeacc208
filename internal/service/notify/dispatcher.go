package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/clock"
	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/metrics"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/sirupsen/logrus"
)

const DefaultToastTTL = 5 * time.Second

type NotificationUseCase interface {
	AddPersistent(ctx context.Context, input domain.NotificationInput) domain.Notification
	ShowToast(input domain.NotificationInput) domain.Notification
	Inbox() []domain.Notification
	Toasts() []Toast
	Dismiss(ctx context.Context, id int64) error
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	ClearAll(ctx context.Context) error
}

// PlatformSink surfaces OS-level alerts while the app is in the background.
type PlatformSink interface {
	Notify(ctx context.Context, title, body string) error
	PlayCue(ctx context.Context) error
}

// ToastSink receives every toast as it is shown.
type ToastSink interface {
	Toast(n domain.Notification)
}

type Toast struct {
	domain.Notification
	ExpiresAt time.Time `json:"expires_at"`
}

type Dispatcher struct {
	users     repository.UserRepository
	state     *session.State
	clock     clock.Clock
	log       logrus.FieldLogger
	platform  PlatformSink
	toastSink ToastSink
	toastTTL  time.Duration
	limit     int

	idMu   sync.Mutex
	lastID int64

	// writeMu serializes inbox mutations together with their store write so
	// a compensation always restores the state its command started from.
	writeMu sync.Mutex

	toastMu sync.Mutex
	toasts  []Toast
}

type DispatcherOption func(*Dispatcher)

func WithPlatformSink(sink PlatformSink) DispatcherOption {
	return func(d *Dispatcher) {
		d.platform = sink
	}
}

func WithToastSink(sink ToastSink) DispatcherOption {
	return func(d *Dispatcher) {
		d.toastSink = sink
	}
}

func WithToastTTL(ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.toastTTL = ttl
		}
	}
}

func WithInboxLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.limit = limit
		}
	}
}

func WithClock(c clock.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

func WithLogger(log logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

func NewDispatcher(users repository.UserRepository, state *session.State, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		users:    users,
		state:    state,
		clock:    clock.Real{},
		log:      logrus.StandardLogger(),
		toastTTL: DefaultToastTTL,
		limit:    domain.InboxLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("component", "dispatcher")
	return d
}

// AddPersistent prepends a notification to the inbox and persists the capped
// inbox for the current user. A failed write is logged; the notification
// stays in memory and rides along with the next successful write.
func (d *Dispatcher) AddPersistent(ctx context.Context, input domain.NotificationInput) domain.Notification {
	n := d.build(input)

	d.writeMu.Lock()
	inbox := domain.CapInbox(append([]domain.Notification{n}, d.state.Inbox()...), d.limit)
	d.commit(inbox)
	if userID := d.state.UserID(); userID != "" {
		if err := d.persist(ctx, userID, inbox); err != nil {
			metrics.RecordWriteFailure("dispatcher")
			d.log.WithError(err).WithField("user_id", userID).Warn("persist inbox")
		}
	}
	d.writeMu.Unlock()

	if d.platform != nil && d.state.ShouldAlert() {
		if err := d.platform.Notify(ctx, n.Title, n.Message); err != nil {
			d.log.WithError(err).Debug("platform alert unavailable")
		}
		if err := d.platform.PlayCue(ctx); err != nil {
			d.log.WithError(err).Debug("audio cue unavailable")
		}
	}
	return n
}

// ShowToast shows an ephemeral notification that is never persisted.
func (d *Dispatcher) ShowToast(input domain.NotificationInput) domain.Notification {
	n := d.build(input)

	d.toastMu.Lock()
	d.toasts = append([]Toast{{Notification: n, ExpiresAt: d.clock.Now().Add(d.toastTTL)}}, d.pruneLocked()...)
	d.toastMu.Unlock()

	if d.toastSink != nil {
		d.toastSink.Toast(n)
	}
	return n
}

// Toasts returns the toasts that have not expired, newest first.
func (d *Dispatcher) Toasts() []Toast {
	d.toastMu.Lock()
	defer d.toastMu.Unlock()
	d.toasts = d.pruneLocked()
	out := make([]Toast, len(d.toasts))
	copy(out, d.toasts)
	return out
}

func (d *Dispatcher) pruneLocked() []Toast {
	now := d.clock.Now()
	active := d.toasts[:0:0]
	for _, t := range d.toasts {
		if now.Before(t.ExpiresAt) {
			active = append(active, t)
		}
	}
	return active
}

func (d *Dispatcher) Inbox() []domain.Notification {
	return d.state.Inbox()
}

func (d *Dispatcher) Dismiss(ctx context.Context, id int64) error {
	return d.execute(ctx, dismissCommand(id))
}

func (d *Dispatcher) MarkRead(ctx context.Context, id int64) error {
	return d.execute(ctx, markReadCommand(id))
}

func (d *Dispatcher) MarkAllRead(ctx context.Context) error {
	return d.execute(ctx, markAllReadCommand())
}

func (d *Dispatcher) ClearAll(ctx context.Context) error {
	return d.execute(ctx, clearAllCommand())
}

// Load replaces the inbox with stored notifications, newest first. Entries
// whose timestamp cannot be parsed are dropped.
func (d *Dispatcher) Load(stored []domain.Notification) {
	inbox := domain.CapInbox(domain.SortInbox(stored), d.limit)

	d.writeMu.Lock()
	d.state.SetInbox(inbox)
	d.writeMu.Unlock()

	d.idMu.Lock()
	for _, n := range inbox {
		if n.ID > d.lastID {
			d.lastID = n.ID
		}
	}
	d.idMu.Unlock()
}

// Reset drops the in-memory inbox and toasts.
func (d *Dispatcher) Reset() {
	d.writeMu.Lock()
	d.state.SetInbox(nil)
	d.writeMu.Unlock()

	d.toastMu.Lock()
	d.toasts = nil
	d.toastMu.Unlock()
}

func (d *Dispatcher) execute(ctx context.Context, cmd command) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	before := d.state.Inbox()
	after, err := cmd.apply(domain.CloneNotifications(before))
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	d.commit(after)

	userID := d.state.UserID()
	if userID == "" {
		return nil
	}
	if err := d.persist(ctx, userID, after); err != nil {
		d.commit(before)
		metrics.RecordRollback(cmd.op)
		d.log.WithError(err).WithField("op", cmd.op).Warn("inbox write failed, rolled back")
		d.ShowToast(domain.NotificationInput{
			Kind:    domain.NotificationError,
			Title:   "Could not update notifications",
			Message: "Your change was undone. Please try again.",
		})
		return fmt.Errorf("%s: %w", cmd.op, err)
	}
	return nil
}

// commit sets the in-memory inbox and mirrors it into the session user.
func (d *Dispatcher) commit(inbox []domain.Notification) {
	d.state.SetInbox(inbox)
	if userID := d.state.UserID(); userID != "" {
		d.state.UpdateUser(userID, domain.UserPatch{Notifications: &inbox})
	}
}

func (d *Dispatcher) persist(ctx context.Context, userID string, inbox []domain.Notification) error {
	list := domain.CloneNotifications(domain.CapInbox(inbox, d.limit))
	if list == nil {
		list = []domain.Notification{}
	}
	_, err := d.users.Update(ctx, userID, domain.UserPatch{Notifications: &list})
	return err
}

func (d *Dispatcher) build(input domain.NotificationInput) domain.Notification {
	now := d.clock.Now()
	return domain.Notification{
		ID:        d.nextID(now),
		Kind:      input.Kind,
		Title:     input.Title,
		Message:   input.Message,
		Timestamp: domain.FormatTimestamp(now),
	}
}

// nextID derives ids from dispatch time, bumping past the previous id when two
// notifications land in the same millisecond.
func (d *Dispatcher) nextID(now time.Time) int64 {
	d.idMu.Lock()
	defer d.idMu.Unlock()
	id := now.UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	return id
}

var _ NotificationUseCase = (*Dispatcher)(nil)
