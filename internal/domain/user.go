package domain

type LoyaltyProgress struct {
	Progress    int `json:"progress"`
	FreeTickets int `json:"free_tickets"`
}

type User struct {
	ID                      string
	Name                    string
	Loyalty                 map[string]LoyaltyProgress
	Notifications           []Notification
	NotificationPreferences map[string]bool
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (u User) Clone() User {
	out := u
	out.Loyalty = CloneLoyalty(u.Loyalty)
	out.Notifications = CloneNotifications(u.Notifications)
	if u.NotificationPreferences != nil {
		out.NotificationPreferences = make(map[string]bool, len(u.NotificationPreferences))
		for k, v := range u.NotificationPreferences {
			out.NotificationPreferences[k] = v
		}
	}
	return out
}

func CloneLoyalty(in map[string]LoyaltyProgress) map[string]LoyaltyProgress {
	out := make(map[string]LoyaltyProgress, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// UserPatch is a partial update. Nil fields are left untouched; a non-nil
// pointer to an empty slice clears the inbox.
type UserPatch struct {
	Loyalty       map[string]LoyaltyProgress
	Notifications *[]Notification
}

func (p UserPatch) Empty() bool {
	return p.Loyalty == nil && p.Notifications == nil
}

func (p UserPatch) Apply(u User) User {
	if p.Loyalty != nil {
		u.Loyalty = CloneLoyalty(p.Loyalty)
	}
	if p.Notifications != nil {
		u.Notifications = CloneNotifications(*p.Notifications)
	}
	return u
}
