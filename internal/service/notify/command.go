package notify

import (
	"errors"

	"github.com/Domenick1991/pitchbooking/internal/domain"
)

var errNoChange = errors.New("inbox unchanged")

// command is an optimistic inbox update. The dispatcher captures the inbox
// before apply and restores it if the store write fails.
type command struct {
	op    string
	apply func(inbox []domain.Notification) ([]domain.Notification, error)
}

func dismissCommand(id int64) command {
	return command{
		op: "dismiss",
		apply: func(inbox []domain.Notification) ([]domain.Notification, error) {
			for i, n := range inbox {
				if n.ID == id {
					return append(inbox[:i], inbox[i+1:]...), nil
				}
			}
			return nil, domain.ErrNotFound
		},
	}
}

func markReadCommand(id int64) command {
	return command{
		op: "mark_read",
		apply: func(inbox []domain.Notification) ([]domain.Notification, error) {
			for i := range inbox {
				if inbox[i].ID != id {
					continue
				}
				if inbox[i].Read {
					return nil, errNoChange
				}
				inbox[i].Read = true
				return inbox, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}

func markAllReadCommand() command {
	return command{
		op: "mark_all_read",
		apply: func(inbox []domain.Notification) ([]domain.Notification, error) {
			changed := false
			for i := range inbox {
				if !inbox[i].Read {
					inbox[i].Read = true
					changed = true
				}
			}
			if !changed {
				return nil, errNoChange
			}
			return inbox, nil
		},
	}
}

func clearAllCommand() command {
	return command{
		op: "clear_all",
		apply: func(inbox []domain.Notification) ([]domain.Notification, error) {
			if len(inbox) == 0 {
				return nil, errNoChange
			}
			return []domain.Notification{}, nil
		},
	}
}
