// Package journey defines the gamified progression system: journeys hold
// ordered chapters, chapters hold challenges and rewards, and progress is
// tracked per user.
package journey

import "time"

// Journey is a configured progression a user can enroll in.
type Journey struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter is one ordered step of a journey. Position starts at 1.
type Chapter struct {
	ID           string        `json:"id"`
	JourneyID    string        `json:"journey_id"`
	Position     int           `json:"position"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	DeadlineDays int           `json:"deadline_days,omitempty"`
	Challenges   []Challenge   `json:"challenges,omitempty"`
	Rewards      []Reward      `json:"rewards,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Challenge is a task within a chapter.
type Challenge struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Reward is granted once when its chapter is completed.
type Reward struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment ties a user to a journey.
type Enrollment struct {
	ID         string     `json:"id"`
	JourneyID  string     `json:"journey_id"`
	UserID     string     `json:"user_id"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
}

// Completion records one completed challenge for a user.
type Completion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// GrantedReward records one reward granted to a user.
type GrantedReward struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RewardID  string    `json:"reward_id"`
	GrantedAt time.Time `json:"granted_at"`
}

// Progress is the derived view of a user's position in a journey.
type Progress struct {
	JourneyID           string   `json:"journey_id"`
	UserID              string   `json:"user_id"`
	UnlockedChapters    []string `json:"unlocked_chapters"`
	CompletedChapters   []string `json:"completed_chapters"`
	CompletedChallenges []string `json:"completed_challenges"`
	GrantedRewards      []string `json:"granted_rewards"`
	Points              int      `json:"points"`
}
