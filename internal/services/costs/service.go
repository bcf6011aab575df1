// Package costs imports provider cost exports and aggregates them into
// monthly per-project rollups for the internal dashboard.
package costs

import (
	"context"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/webatelier/platform/internal/domain/costs"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	"github.com/webatelier/platform/internal/storage"
)

// Fetcher pulls a raw cost export document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Service imports cost entries and serves rollups.
type Service struct {
	store     storage.CostsStore
	fetcher   Fetcher
	exportURL string
	log       *logging.Logger
}

var _ Fetcher = (*httputil.Client)(nil)

// New constructs a costs service.
func New(store storage.CostsStore, fetcher Fetcher, exportURL string, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("costs")
	}
	return &Service{store: store, fetcher: fetcher, exportURL: exportURL, log: log}
}

// Import pulls the provider export, parses its line items and stores them.
// Returns the number of entries imported.
func (s *Service) Import(ctx context.Context) (int, error) {
	if s.exportURL == "" {
		return 0, errors.InvalidInput("no cost export URL configured")
	}

	raw, err := s.fetcher.Fetch(ctx, s.exportURL)
	if err != nil {
		metrics.RecordCostImport("fetch_failed")
		return 0, errors.Dependency("cost export", err)
	}

	entries, err := parseExport(raw)
	if err != nil {
		metrics.RecordCostImport("parse_failed")
		return 0, err
	}

	n, err := s.store.InsertEntries(ctx, entries)
	if err != nil {
		metrics.RecordCostImport("store_failed")
		return 0, errors.Internal("", err)
	}

	metrics.RecordCostImport("ok")
	s.log.WithContext(ctx).WithField("entries", n).Info("cost export imported")
	return n, nil
}

// parseExport reads the provider's JSON export. The document is a rows
// array of {project, service, amount, currency, date} objects; amount is a
// decimal string or number in major units.
func parseExport(raw []byte) ([]costs.Entry, error) {
	doc := gjson.ParseBytes(raw)
	rows := doc.Get("rows")
	if !rows.IsArray() {
		return nil, errors.InvalidInput("export document has no rows array")
	}

	var entries []costs.Entry
	var parseErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		project := row.Get("project").String()
		service := row.Get("service").String()
		if project == "" || service == "" {
			parseErr = errors.InvalidInput("export row missing project or service")
			return false
		}

		usageDate, err := time.Parse("2006-01-02", row.Get("date").String())
		if err != nil {
			parseErr = errors.InvalidInput("export row has invalid date").
				WithDetails("date", row.Get("date").String())
			return false
		}

		currency := row.Get("currency").String()
		if currency == "" {
			currency = "EUR"
		}

		entries = append(entries, costs.Entry{
			Project:     project,
			Service:     service,
			AmountCents: int64(math.Round(row.Get("amount").Float() * 100)),
			Currency:    currency,
			UsageDate:   usageDate,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return entries, nil
}

// Rollup recomputes and stores rollups for one month (YYYY-MM), or for all
// months when month is empty. Invoked by the scheduler and on demand.
func (s *Service) Rollup(ctx context.Context, month string) ([]costs.Rollup, error) {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return nil, errors.InvalidInput("month must be YYYY-MM").WithDetails("month", month)
		}
	}

	rollups, err := s.store.ComputeRollups(ctx, month)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	if err := s.store.SaveRollups(ctx, rollups); err != nil {
		return nil, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("month", month).
		WithField("rollups", len(rollups)).
		Info("rollups recomputed")
	return rollups, nil
}

// Entries lists imported entries, optionally filtered by project and month.
func (s *Service) Entries(ctx context.Context, project, month string) ([]costs.Entry, error) {
	list, err := s.store.ListEntries(ctx, project, month)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// Rollups lists stored rollups, optionally filtered by project.
func (s *Service) Rollups(ctx context.Context, project string) ([]costs.Rollup, error) {
	list, err := s.store.ListRollups(ctx, project)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}
