// Package venture defines founder profiles and match requests for the
// entrepreneur-matching site.
package venture

import "time"

// MatchStatus is the state of a match request.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchDeclined MatchStatus = "declined"
)

// Founder is an entrepreneur profile.
type Founder struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Company      string    `json:"company"`
	Pitch        string    `json:"pitch"`
	SkillsHave   []string  `json:"skills_have,omitempty"`
	SkillsWanted []string  `json:"skills_wanted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MatchRequest is one founder's request to connect with another.
type MatchRequest struct {
	ID          string      `json:"id"`
	FromFounder string      `json:"from_founder"`
	ToFounder   string      `json:"to_founder"`
	Message     string      `json:"message,omitempty"`
	Status      MatchStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
