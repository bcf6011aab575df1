// Package catalog defines the wine catalog for the cellar site: producers,
// coffrets and vineyard plot adoption plans.
package catalog

import "time"

// PlanState is the lifecycle state of an adoption plan.
type PlanState string

const (
	PlanActive    PlanState = "active"
	PlanExpired   PlanState = "expired"
	PlanCancelled PlanState = "cancelled"
)

// Producer is a winemaker listed in the catalog.
type Producer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Story     string    `json:"story"`
	PhotoKey  string    `json:"photo_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Coffret is a boxed wine selection sold on the site.
type Coffret struct {
	ID          string    `json:"id"`
	ProducerID  string    `json:"producer_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdoptionPlan is a member's adoption of a named vineyard plot for a term.
type AdoptionPlan struct {
	ID         string    `json:"id"`
	ProducerID string    `json:"producer_id"`
	UserID     string    `json:"user_id"`
	PlotName   string    `json:"plot_name"`
	TermYears  int       `json:"term_years"`
	State      PlanState `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
