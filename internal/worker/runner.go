// Package worker runs the engine's periodic tasks on a cron scheduler.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var ErrStarted = errors.New("runner already started")

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

type job struct {
	name string
	id   cron.EntryID
}

// Runner schedules named tasks at fixed intervals. A task never overlaps
// itself: a tick that fires while the previous one is still running is
// skipped. Panics are recovered and logged.
type Runner struct {
	cron *cron.Cron
	log  logrus.FieldLogger

	mu      sync.Mutex
	jobs    []job
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(log logrus.FieldLogger) *Runner {
	log = log.WithField("component", "runner")
	cronLog := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers task to run every interval. Intervals below one second are
// rounded up to one second.
func (r *Runner) Every(name string, interval time.Duration, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}
	if interval < time.Second {
		interval = time.Second
	}
	id := r.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		r.run(name, task)
	}))
	r.jobs = append(r.jobs, job{name: name, id: id})
	return nil
}

// Start runs every task once right away and then on its interval.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}
	r.started = true
	r.cron.Start()

	for _, j := range r.jobs {
		wrapped := r.cron.Entry(j.id).WrappedJob
		if wrapped == nil {
			return fmt.Errorf("task %s: entry missing", j.name)
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			wrapped.Run()
		}()
	}
	return nil
}

// Stop cancels the task context and waits for in-flight runs.
func (r *Runner) Stop() {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	r.cancel()
	if !started {
		return
	}
	<-r.cron.Stop().Done()
	r.wg.Wait()
}

func (r *Runner) run(name string, task Task) {
	if r.ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := task(r.ctx)
	entry := r.log.WithFields(logrus.Fields{"task": name, "took": time.Since(start)})
	if err != nil && !errors.Is(err, context.Canceled) {
		entry.WithError(err).Warn("task failed")
		return
	}
	entry.Debug("task done")
}
