// Package costs defines imported provider cost entries and their monthly
// rollups for the internal dashboard.
package costs

import "time"

// Entry is one imported cost line item.
type Entry struct {
	ID          string    `json:"id" db:"id"`
	Project     string    `json:"project" db:"project"`
	Service     string    `json:"service" db:"service"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Currency    string    `json:"currency" db:"currency"`
	UsageDate   time.Time `json:"usage_date" db:"usage_date"`
	ImportedAt  time.Time `json:"imported_at" db:"imported_at"`
}

// Rollup is the aggregated spend of one project for one month.
type Rollup struct {
	Project     string    `json:"project" db:"project"`
	Month       string    `json:"month" db:"month"` // YYYY-MM
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	EntryCount  int       `json:"entry_count" db:"entry_count"`
	ComputedAt  time.Time `json:"computed_at" db:"computed_at"`
}
