package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// RemindersSent flags only ever move from false to true.
type RemindersSent struct {
	TwentyFourHour bool `json:"twenty_four_hour"`
	OneHour        bool `json:"one_hour"`
}

type Booking struct {
	ID             string
	UserID         string
	VenueID        string
	Date           string
	Time           string
	Status         BookingStatus
	RemindersSent  RemindersSent
	LoyaltyApplied bool
	IsFree         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Instant is the scheduled start of the booking in loc.
func (b Booking) Instant(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(DateLayout+" "+TimeLayout, b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: booking %s %q %q: %v", ErrInvalidSchedule, b.ID, b.Date, b.Time, err)
	}
	return at, nil
}

// BookingPatch is a partial update. Nil fields are left untouched.
type BookingPatch struct {
	RemindersSent  *RemindersSent
	LoyaltyApplied *bool
	Status         *BookingStatus
}

func (p BookingPatch) Empty() bool {
	return p.RemindersSent == nil && p.LoyaltyApplied == nil && p.Status == nil
}

// Apply returns b with the patch fields applied.
func (p BookingPatch) Apply(b Booking) Booking {
	if p.RemindersSent != nil {
		b.RemindersSent = *p.RemindersSent
	}
	if p.LoyaltyApplied != nil {
		b.LoyaltyApplied = *p.LoyaltyApplied
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}

type CreateBookingInput struct {
	UserID  string
	VenueID string
	Date    string
	Time    string
	IsFree  bool
}
