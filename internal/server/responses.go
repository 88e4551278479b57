package server

import (
	"time"

	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
	"github.com/j-veylop/inspectro-tui/internal/usage"
)

type seriesResponse struct {
	Granularity     string              `json:"granularity"`
	From            *time.Time          `json:"from,omitempty"`
	To              *time.Time          `json:"to,omitempty"`
	AllTimeSpending models.SpendingJSON `json:"all_time_spending"`
	CurrentSpending models.SpendingJSON `json:"current_spending"`
	Buckets         []bucketJSON        `json:"buckets"`
	Series          []seriesJSON        `json:"series"`
	Dropped         int                 `json:"dropped"`
}

type bucketJSON struct {
	Key   usage.BucketKey `json:"key"`
	Label string          `json:"label"`
	Start time.Time       `json:"start"`
}

type seriesJSON struct {
	Model    string               `json:"model_name"`
	Provider string               `json:"provider"`
	Totals   usage.BucketRecord   `json:"totals"`
	Points   []usage.BucketRecord `json:"points"`
}

func newSeriesResponse(d *dashboard.Dashboard) seriesResponse {
	resp := seriesResponse{
		Granularity:     d.Granularity.String(),
		AllTimeSpending: models.NewSpendingJSON(d.AllTime),
		CurrentSpending: models.NewSpendingJSON(d.Current),
		Buckets:         make([]bucketJSON, len(d.Buckets)),
		Series:          make([]seriesJSON, len(d.Series)),
		Dropped:         d.Dropped,
	}
	if !d.From.IsZero() {
		resp.From, resp.To = &d.From, &d.To
	}
	for i, b := range d.Buckets {
		resp.Buckets[i] = bucketJSON{Key: b.Key, Label: d.Granularity.Label(b.Start), Start: b.Start}
	}
	// Points line up with Buckets by index.
	for i, s := range d.Series {
		points := make([]usage.BucketRecord, len(s.Points))
		for j, p := range s.Points {
			points[j] = p.Record
		}
		resp.Series[i] = seriesJSON{
			Model:    s.Key.Model,
			Provider: s.Key.Provider,
			Totals:   s.Totals(),
			Points:   points,
		}
	}
	return resp
}
