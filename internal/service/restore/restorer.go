// Package restore re-establishes the previous session on startup.
package restore

import (
	"context"
	"fmt"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/sirupsen/logrus"
)

// Remembered stores the id of the last signed-in user.
type Remembered interface {
	RememberedUser(ctx context.Context) (string, error)
	ForgetUser(ctx context.Context) error
}

type InboxLoader interface {
	Load(stored []domain.Notification)
}

type Outcome int

const (
	// OutcomeSkipped means a session was already active or nobody was remembered.
	OutcomeSkipped Outcome = iota
	OutcomeRestored
	OutcomeForgotten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRestored:
		return "restored"
	case OutcomeForgotten:
		return "forgotten"
	default:
		return "skipped"
	}
}

type Restorer struct {
	users      repository.UserRepository
	remembered Remembered
	inbox      InboxLoader
	state      *session.State
	log        logrus.FieldLogger
}

func NewRestorer(users repository.UserRepository, remembered Remembered, inbox InboxLoader, state *session.State, log logrus.FieldLogger) *Restorer {
	return &Restorer{
		users:      users,
		remembered: remembered,
		inbox:      inbox,
		state:      state,
		log:        log.WithField("component", "restore"),
	}
}

// Restore starts a session for the remembered user if one exists in the
// store, or forgets the id if it does not. Running it again once a session
// is active is a no-op.
func (r *Restorer) Restore(ctx context.Context) (Outcome, error) {
	if r.state.Active() {
		return OutcomeSkipped, nil
	}

	userID, err := r.remembered.RememberedUser(ctx)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("read remembered user: %w", err)
	}
	if userID == "" {
		return OutcomeSkipped, nil
	}

	users, err := r.users.List(ctx)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.ID != userID {
			continue
		}
		r.state.Start(u)
		r.inbox.Load(u.Notifications)
		r.log.WithField("user_id", userID).Info("session restored")
		return OutcomeRestored, nil
	}

	if err := r.remembered.ForgetUser(ctx); err != nil {
		return OutcomeSkipped, fmt.Errorf("forget user %s: %w", userID, err)
	}
	r.log.WithField("user_id", userID).Info("remembered user no longer exists")
	return OutcomeForgotten, nil
}
