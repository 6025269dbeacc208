// Package session holds the state of the signed-in client: who is signed in,
// their inbox, and whether the app is in the background. The engine services
// receive a *State instead of reaching for package-level globals.
package session

import (
	"sync"

	"github.com/Domenick1991/pitchbooking/internal/domain"
)

type State struct {
	mu            sync.RWMutex
	user          *domain.User
	inbox         []domain.Notification
	backgrounded  bool
	alertsAllowed bool
}

func NewState() *State {
	return &State{}
}

// Start makes user the current user. The inbox is left to the dispatcher.
func (s *State) Start(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user.Clone()
	s.user = &u
}

// End clears the current user and inbox.
func (s *State) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.inbox = nil
}

func (s *State) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// CurrentUser returns a copy of the current user.
func (s *State) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return s.user.Clone(), true
}

func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// UpdateUser applies patch to the current user if it is still userID.
func (s *State) UpdateUser(userID string, patch domain.UserPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != userID {
		return false
	}
	u := patch.Apply(*s.user)
	s.user = &u
	return true
}

func (s *State) Inbox() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneNotifications(s.inbox)
}

func (s *State) SetInbox(inbox []domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = domain.CloneNotifications(inbox)
}

func (s *State) SetBackgrounded(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backgrounded = v
}

func (s *State) SetAlertsAllowed(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertsAllowed = v
}

// ShouldAlert reports whether platform alerts should fire: app in the
// background and permission granted.
func (s *State) ShouldAlert() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backgrounded && s.alertsAllowed
}
