// Package dashboard builds the usage dashboard: it picks the bucket
// granularity for a window, fetches raw usage from a source and aggregates it
// into dense per-model series.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/usage"
)

// MaxWindow is the longest window Load accepts.
const MaxWindow = 366 * 24 * time.Hour

// ErrWindowTooLong is returned by Load for a window longer than MaxWindow.
var ErrWindowTooLong = errors.New("date range longer than 366 days")

// Source supplies raw usage for a window. It returns models.ErrNoContent when
// the window holds nothing.
type Source interface {
	FetchUsage(ctx context.Context, start, end time.Time, filter string) (models.Snapshot, error)
}

// Query selects what to load. A nil bound means the window is unset.
type Query struct {
	From   *time.Time
	To     *time.Time
	Filter string
}

// Dashboard is the loaded view.
type Dashboard struct {
	Granularity usage.Granularity
	From        time.Time
	To          time.Time
	AllTime     models.Spending
	Current     models.Spending
	Buckets     []usage.Bucket
	Series      []usage.Series
	// Dropped counts fetched events that fell outside every bucket.
	Dropped int
}

// IsEmpty reports whether the dashboard has no series.
func (d *Dashboard) IsEmpty() bool {
	return len(d.Series) == 0
}

// Empty returns the all-zero dashboard.
func Empty() *Dashboard {
	return &Dashboard{Series: []usage.Series{}}
}

// Service loads dashboards from a source.
type Service struct {
	source Source
	loc    *time.Location
}

// New creates a service that buckets calendar days in loc.
func New(source Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{source: source, loc: loc}
}

// Location returns the location calendar days are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Load resolves q into a dashboard. An unset window or a window without
// usage yields an all-zero dashboard; a window that starts after it ends
// yields a *usage.InvalidRangeError and one longer than MaxWindow yields
// ErrWindowTooLong.
func (s *Service) Load(ctx context.Context, q Query) (*Dashboard, error) {
	if q.From == nil || q.To == nil {
		return Empty(), nil
	}

	from := q.From.In(s.loc)
	to := q.To.In(s.loc)

	if to.Sub(from) > MaxWindow {
		return nil, ErrWindowTooLong
	}

	g := usage.SelectGranularity(from, to)
	buckets, err := usage.Materialize(from, to, g)
	if err != nil {
		return nil, err
	}
	start, end := usage.DayBounds(from, to)

	d := Empty()
	d.Granularity = g
	d.From = start
	d.To = end
	d.Buckets = buckets

	snap, err := s.source.FetchUsage(ctx, start, end, q.Filter)
	if errors.Is(err, models.ErrNoContent) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage: %w", err)
	}

	inputs := make([]usage.SeriesInput, 0, len(snap.Groups))
	fetched := 0
	for _, grp := range snap.Groups {
		inputs = append(inputs, usage.SeriesInput{
			Key:    usage.SeriesKey{Model: grp.Model, Provider: grp.Provider},
			Events: grp.Events,
		})
		fetched += len(grp.Events)
	}

	d.AllTime = snap.AllTime
	d.Current = snap.Current
	d.Series = usage.Aggregate(inputs, buckets, g.EventKeyFunc(s.loc))

	kept := 0
	for _, series := range d.Series {
		kept += int(series.Totals().Requests)
	}
	if d.Dropped = fetched - kept; d.Dropped > 0 {
		logger.Debug("usage events outside materialized buckets",
			"dropped", d.Dropped,
			"granularity", g.String(),
			"from", start,
			"to", end,
		)
	}

	return d, nil
}
