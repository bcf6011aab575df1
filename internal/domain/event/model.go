// Package event defines meetup events and registrations for the crush site.
package event

import "time"

// RegistrationStatus is the state of one user's registration.
type RegistrationStatus string

const (
	StatusConfirmed  RegistrationStatus = "confirmed"
	StatusWaitlisted RegistrationStatus = "waitlisted"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Event is a meetup with a hard seat capacity.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
	CreatedBy   string    `json:"created_by"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Registration is one user's place at an event. Waitlist order is the
// registration creation time.
type Registration struct {
	ID        string             `json:"id"`
	EventID   string             `json:"event_id"`
	UserID    string             `json:"user_id"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Availability is the derived seat state of an event.
type Availability struct {
	EventID    string `json:"event_id"`
	Capacity   int    `json:"capacity"`
	Confirmed  int    `json:"confirmed"`
	Waitlisted int    `json:"waitlisted"`
}

// SeatsLeft returns the number of open seats.
func (a Availability) SeatsLeft() int {
	left := a.Capacity - a.Confirmed
	if left < 0 {
		return 0
	}
	return left
}
