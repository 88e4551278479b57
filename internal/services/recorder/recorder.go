// Package recorder prices observed LLM calls and stores them as usage events.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/db"
	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

// Store is the persistence the recorder needs.
type Store interface {
	GetModelPrice(ctx context.Context, provider, model string) (models.Price, error)
	InsertUsage(ctx context.Context, e *models.UsageEvent) error
}

// Call is the token usage of one upstream response.
type Call struct {
	Timestamp time.Time
	RequestID string
	Provider  string
	Model     string
	// UpstreamModel is the model the provider reported, when it said.
	UpstreamModel string
	InputTokens   int64
	OutputTokens  int64
	TotalTokens   int64
}

// Recorder turns calls into priced usage events.
type Recorder struct {
	store Store
	now   func() time.Time
}

// New creates a recorder backed by store.
func New(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record prices c and stores it. An unpriced model is stored at zero cost.
func (r *Recorder) Record(ctx context.Context, c Call) (*models.UsageEvent, error) {
	if c.Provider == "" || c.Model == "" {
		return nil, fmt.Errorf("record usage: provider and model are required")
	}
	if c.InputTokens < 0 || c.OutputTokens < 0 || c.TotalTokens < 0 {
		return nil, fmt.Errorf("record usage: negative token count")
	}

	price, err := r.store.GetModelPrice(ctx, c.Provider, c.Model)
	switch {
	case errors.Is(err, db.ErrNotFound):
		logger.Warn("no price for model, recording zero cost", "provider", c.Provider, "model", c.Model)
	case err != nil:
		return nil, fmt.Errorf("record usage: %w", err)
	}

	total := c.TotalTokens
	if total == 0 {
		total = c.InputTokens + c.OutputTokens
	}
	ts := c.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}

	inCost, outCost := price.Cost(c.InputTokens, c.OutputTokens)
	e := &models.UsageEvent{
		Timestamp:    ts,
		RequestID:    c.RequestID,
		Provider:     c.Provider,
		Model:        c.Model,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
		TotalTokens:  total,
		InputCost:    inCost,
		OutputCost:   outCost,
		TotalCost:    inCost + outCost,
	}

	if err := r.store.InsertUsage(ctx, e); err != nil {
		return nil, fmt.Errorf("record usage: %w", err)
	}

	if c.UpstreamModel != "" && c.UpstreamModel != c.Model {
		logger.Debug("provider answered with a different model",
			"request_id", c.RequestID,
			"requested", c.Model,
			"served", c.UpstreamModel,
		)
	}

	logger.Debug("usage recorded",
		"provider", e.Provider,
		"model", e.Model,
		"tokens", e.TotalTokens,
		"cost_usd", models.MicroUSDToUSD(e.TotalCost),
	)
	return e, nil
}
