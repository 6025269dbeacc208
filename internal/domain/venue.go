package domain

// DefaultLoyaltyGoal applies to venues that never configured a goal.
const DefaultLoyaltyGoal = 7

type Venue struct {
	ID             string
	Name           string
	LoyaltyEnabled bool
	LoyaltyGoal    int
}

// Goal is the number of played bookings needed for one free ticket.
func (v Venue) Goal() int {
	if v.LoyaltyGoal <= 0 {
		return DefaultLoyaltyGoal
	}
	return v.LoyaltyGoal
}

// VenueIndex maps venue id to venue.
func VenueIndex(venues []Venue) map[string]Venue {
	idx := make(map[string]Venue, len(venues))
	for _, v := range venues {
		idx[v.ID] = v
	}
	return idx
}
