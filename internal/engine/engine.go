// Package engine drives the reminder and loyalty tasks for the signed-in user.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Domenick1991/pitchbooking/internal/service/loyalty"
	"github.com/Domenick1991/pitchbooking/internal/service/reminder"
	"github.com/Domenick1991/pitchbooking/internal/worker"
	"github.com/sirupsen/logrus"
)

var ErrRunning = errors.New("engine already running")

// Ticker is one pass of a periodic task.
type Ticker interface {
	Tick(ctx context.Context) error
}

type Engine struct {
	reminders        Ticker
	loyalty          Ticker
	reminderInterval time.Duration
	loyaltyInterval  time.Duration
	log              logrus.FieldLogger

	// trigger holds at most one pending settle request.
	trigger chan struct{}

	mu       sync.Mutex
	runner   *worker.Runner
	stopLoop context.CancelFunc
	loopDone chan struct{}
}

type Option func(*Engine)

func WithIntervals(reminderEvery, loyaltyEvery time.Duration) Option {
	return func(e *Engine) {
		if reminderEvery > 0 {
			e.reminderInterval = reminderEvery
		}
		if loyaltyEvery > 0 {
			e.loyaltyInterval = loyaltyEvery
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func New(reminders, loyaltyTracker Ticker, opts ...Option) *Engine {
	e := &Engine{
		reminders:        reminders,
		loyalty:          loyaltyTracker,
		reminderInterval: time.Minute,
		loyaltyInterval:  5 * time.Minute,
		log:              logrus.StandardLogger(),
		trigger:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("component", "engine")
	return e
}

// Start runs a reminder pass and a settle pass right away and schedules both.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runner != nil {
		return ErrRunning
	}

	runner := worker.NewRunner(e.log)
	if err := runner.Every(reminder.TaskName, e.reminderInterval, e.reminders.Tick); err != nil {
		return err
	}
	if err := runner.Every(loyalty.TaskName, e.loyaltyInterval, func(context.Context) error {
		e.TriggerSettle()
		return nil
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go e.settleLoop(ctx, done)

	if err := runner.Start(); err != nil {
		cancel()
		<-done
		return err
	}

	e.runner = runner
	e.stopLoop = cancel
	e.loopDone = done
	e.log.Info("engine started")
	return nil
}

// Stop halts both tasks and waits for passes in flight.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runner == nil {
		return
	}
	e.runner.Stop()
	e.stopLoop()
	<-e.loopDone

	e.runner = nil
	e.stopLoop = nil
	e.loopDone = nil
	e.log.Info("engine stopped")
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runner != nil
}

// TriggerSettle asks for a settle pass. Requests made while a pass is running
// collapse into a single follow-up pass.
func (e *Engine) TriggerSettle() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

func (e *Engine) settleLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.trigger:
			e.settle(ctx)
		}
	}
}

// settle runs one loyalty pass. A panicking pass is logged and the loop keeps
// serving triggers.
func (e *Engine) settle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Error("settle pass panicked")
		}
	}()
	if err := e.loyalty.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.log.WithError(err).Warn("settle pass failed")
	}
}
