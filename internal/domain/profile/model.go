// Package profile defines dating profiles and coach records for the crush
// site.
package profile

import "time"

// ApprovalState tracks the moderation state of profiles and coaches.
type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
	StateRejected ApprovalState = "rejected"
)

// Profile is a member's dating profile. One per user; coaches have none.
type Profile struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Headline  string        `json:"headline"`
	Bio       string        `json:"bio"`
	Age       int           `json:"age"`
	City      string        `json:"city"`
	PhotoKey  string        `json:"photo_key,omitempty"`
	Interests []string      `json:"interests,omitempty"`
	State     ApprovalState `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Coach is a dating coach listed in the directory.
type Coach struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Bio             string        `json:"bio"`
	Specialties     []string      `json:"specialties,omitempty"`
	HourlyRateCents int64         `json:"hourly_rate_cents"`
	PhotoKey        string        `json:"photo_key,omitempty"`
	State           ApprovalState `json:"state"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
