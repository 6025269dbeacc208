package kafka

import "time"

const (
	AlertTypePlatform = "platform_alert"
	AlertTypeCue      = "audio_cue"

	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
)

// AlertEvent asks the push worker to surface a platform-level alert or play the cue.
type AlertEvent struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	Title  string    `json:"title,omitempty"`
	Body   string    `json:"body,omitempty"`
	At     time.Time `json:"at"`
}

// RewardEvent is emitted once per loyalty goal crossing.
type RewardEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	VenueID     string    `json:"venue_id"`
	VenueName   string    `json:"venue_name"`
	FreeTickets int       `json:"free_tickets"`
	At          time.Time `json:"at"`
}

// BookingEvent is published by the booking flow whenever a booking changes.
type BookingEvent struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	VenueID   string `json:"venue_id"`
	Status    string `json:"status"`
}
