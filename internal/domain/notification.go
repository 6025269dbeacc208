package domain

import (
	"sort"
	"time"
)

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationInfo    NotificationKind = "info"
	NotificationError   NotificationKind = "error"
)

// InboxLimit is how many notifications a user keeps.
const InboxLimit = 50

type Notification struct {
	ID        int64            `json:"id"`
	Kind      NotificationKind `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp string           `json:"timestamp"`
	Read      bool             `json:"read"`
}

// NotificationInput is what callers hand to the dispatcher.
type NotificationInput struct {
	Kind    NotificationKind
	Title   string
	Message string
}

func (n Notification) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, n.Timestamp)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func CloneNotifications(in []Notification) []Notification {
	if in == nil {
		return nil
	}
	out := make([]Notification, len(in))
	copy(out, in)
	return out
}

// SortInbox drops entries with unparsable timestamps and orders the rest
// newest first.
func SortInbox(stored []Notification) []Notification {
	type entry struct {
		n  Notification
		at time.Time
	}
	entries := make([]entry, 0, len(stored))
	for _, n := range stored {
		at, err := n.Time()
		if err != nil {
			continue
		}
		entries = append(entries, entry{n: n, at: at})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.After(entries[j].at)
	})
	out := make([]Notification, len(entries))
	for i, e := range entries {
		out[i] = e.n
	}
	return out
}

// CapInbox keeps the first limit notifications.
func CapInbox(inbox []Notification, limit int) []Notification {
	if limit > 0 && len(inbox) > limit {
		return inbox[:limit]
	}
	return inbox
}
