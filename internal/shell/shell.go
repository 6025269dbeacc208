// Package shell owns the client session lifecycle: sign-in, sign-out,
// startup restore and foreground/background transitions.
package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/kafka"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/service/restore"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/sirupsen/logrus"
)

type Engine interface {
	Start() error
	Stop()
	TriggerSettle()
}

type Inbox interface {
	Load(stored []domain.Notification)
	Reset()
}

type Restorer interface {
	Restore(ctx context.Context) (restore.Outcome, error)
}

type SessionStore interface {
	RememberUser(ctx context.Context, userID string) error
	ForgetUser(ctx context.Context) error
}

type SessionUseCase interface {
	Login(ctx context.Context, userID string) (domain.User, error)
	Logout(ctx context.Context) error
	Current() (domain.User, bool)
	SetBackgrounded(backgrounded bool)
	SetAlertsAllowed(allowed bool)
}

type Shell struct {
	users    repository.UserRepository
	state    *session.State
	inbox    Inbox
	engine   Engine
	restorer Restorer
	sessions SessionStore
	log      logrus.FieldLogger
}

func New(
	users repository.UserRepository,
	state *session.State,
	inbox Inbox,
	engine Engine,
	restorer Restorer,
	sessions SessionStore,
	log logrus.FieldLogger,
) *Shell {
	return &Shell{
		users:    users,
		state:    state,
		inbox:    inbox,
		engine:   engine,
		restorer: restorer,
		sessions: sessions,
		log:      log.WithField("component", "shell"),
	}
}

// Boot restores the remembered session, if any, and starts the engine for it.
func (s *Shell) Boot(ctx context.Context) error {
	outcome, err := s.restorer.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.log.WithField("outcome", outcome.String()).Info("startup restore")
	if outcome != restore.OutcomeRestored {
		return nil
	}
	return s.engine.Start()
}

// Login signs userID in, replacing any current session.
func (s *Shell) Login(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	if s.state.Active() {
		if err := s.Logout(ctx); err != nil {
			s.log.WithError(err).Warn("end previous session")
		}
	}

	s.state.Start(*user)
	s.inbox.Load(user.Notifications)
	if err := s.sessions.RememberUser(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("remember user")
	}
	if err := s.engine.Start(); err != nil {
		return domain.User{}, fmt.Errorf("start engine: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("signed in")
	current, _ := s.state.CurrentUser()
	return current, nil
}

// Logout stops the engine before the session is cleared so no pass runs
// against a half-torn-down session.
func (s *Shell) Logout(ctx context.Context) error {
	userID := s.state.UserID()
	if userID == "" {
		return domain.ErrNoSession
	}
	s.engine.Stop()
	s.inbox.Reset()
	s.state.End()
	if err := s.sessions.ForgetUser(ctx); err != nil {
		return fmt.Errorf("forget user: %w", err)
	}
	s.log.WithField("user_id", userID).Info("signed out")
	return nil
}

func (s *Shell) Current() (domain.User, bool) {
	return s.state.CurrentUser()
}

func (s *Shell) SetBackgrounded(backgrounded bool) {
	s.state.SetBackgrounded(backgrounded)
}

func (s *Shell) SetAlertsAllowed(allowed bool) {
	s.state.SetAlertsAllowed(allowed)
}

// HandleBookingEvent asks for a settle pass when one of the signed-in user's
// bookings changed.
func (s *Shell) HandleBookingEvent(_ context.Context, event kafka.BookingEvent) {
	if event.UserID == "" || event.UserID != s.state.UserID() {
		return
	}
	s.engine.TriggerSettle()
}

// Close stops the engine. The session is kept so the next start can restore it.
func (s *Shell) Close() {
	s.engine.Stop()
}

func IsNoSession(err error) bool {
	return errors.Is(err, domain.ErrNoSession)
}

var _ SessionUseCase = (*Shell)(nil)
