package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

// filterClause matches the filter text against provider or model name.
// An empty filter matches everything.
const filterClause = `(? = '' OR provider LIKE ? ESCAPE '\' OR model_name LIKE ? ESCAPE '\')`

// InsertUsage records one metered call.
func (db *DB) InsertUsage(ctx context.Context, e *models.UsageEvent) error {
	query := `
		INSERT INTO llm_usages (
			request_id, provider, model_name, input_token, output_token, total_token,
			input_token_cost, output_token_cost, total_token_cost, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	result, err := db.ExecContext(ctx, query,
		nullString(e.RequestID),
		e.Provider,
		e.Model,
		e.InputTokens,
		e.OutputTokens,
		e.TotalTokens,
		e.InputCost,
		e.OutputCost,
		e.TotalCost,
		formatTimestamp(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		e.ID = id
	}

	return nil
}

// GetUsageEvents returns the events with start <= ts <= end that match
// filter, oldest first.
func (db *DB) GetUsageEvents(ctx context.Context, start, end time.Time, filter string) ([]models.UsageEvent, error) {
	query := `
		SELECT id, request_id, provider, model_name, input_token, output_token, total_token,
			   input_token_cost, output_token_cost, total_token_cost, ts
		FROM llm_usages
		WHERE ts >= ? AND ts <= ? AND ` + filterClause + `
		ORDER BY ts ASC, id ASC
	`

	args := append([]any{formatTimestamp(start), formatTimestamp(end)}, filterArgs(filter)...)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var events []models.UsageEvent
	for rows.Next() {
		var e models.UsageEvent
		var reqID sql.NullString
		var ts string

		err := rows.Scan(
			&e.ID,
			&reqID,
			&e.Provider,
			&e.Model,
			&e.InputTokens,
			&e.OutputTokens,
			&e.TotalTokens,
			&e.InputCost,
			&e.OutputCost,
			&e.TotalCost,
			&ts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}

		parsed, ok := parseTimeString(ts)
		if !ok {
			logger.Warn("skipping usage with unparseable timestamp", "id", e.ID, "ts", ts)
			continue
		}
		e.Timestamp = parsed
		e.RequestID = reqID.String
		events = append(events, e)
	}

	return events, rows.Err()
}

// GetAllTimeSpending sums cost and tokens over every recorded event.
func (db *DB) GetAllTimeSpending(ctx context.Context) (models.Spending, error) {
	query := `
		SELECT COALESCE(SUM(total_token_cost), 0), COALESCE(SUM(total_token), 0)
		FROM llm_usages
	`

	var s models.Spending
	if err := db.QueryRowContext(ctx, query).Scan(&s.Money, &s.Tokens); err != nil {
		return models.Spending{}, fmt.Errorf("failed to query all-time spending: %w", err)
	}
	return s, nil
}

// GetRangeSpending sums cost and tokens over the events GetUsageEvents would
// return for the same arguments.
func (db *DB) GetRangeSpending(ctx context.Context, start, end time.Time, filter string) (models.Spending, error) {
	query := `
		SELECT COALESCE(SUM(total_token_cost), 0), COALESCE(SUM(total_token), 0)
		FROM llm_usages
		WHERE ts >= ? AND ts <= ? AND ` + filterClause

	args := append([]any{formatTimestamp(start), formatTimestamp(end)}, filterArgs(filter)...)

	var s models.Spending
	if err := db.QueryRowContext(ctx, query, args...).Scan(&s.Money, &s.Tokens); err != nil {
		return models.Spending{}, fmt.Errorf("failed to query range spending: %w", err)
	}
	return s, nil
}

// FetchUsage loads the window [start, end] grouped by model and provider in
// order of first appearance, together with all-time and in-window spending.
// It returns models.ErrNoContent when the window has no matching events.
func (db *DB) FetchUsage(ctx context.Context, start, end time.Time, filter string) (models.Snapshot, error) {
	events, err := db.GetUsageEvents(ctx, start, end, filter)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(events) == 0 {
		return models.Snapshot{}, models.ErrNoContent
	}

	allTime, err := db.GetAllTimeSpending(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	current, err := db.GetRangeSpending(ctx, start, end, filter)
	if err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		AllTime: allTime,
		Current: current,
		Groups:  GroupEvents(events),
	}, nil
}

type groupKey struct {
	model    string
	provider string
}

// GroupEvents splits events by model and provider, keeping first-seen group
// order and event order within each group.
func GroupEvents(events []models.UsageEvent) []models.UsageGroup {
	index := make(map[groupKey]int)
	var groups []models.UsageGroup
	for _, e := range events {
		k := groupKey{model: e.Model, provider: e.Provider}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, models.UsageGroup{Provider: e.Provider, Model: e.Model})
		}
		groups[i].Events = append(groups[i].Events, e)
	}
	return groups
}

// DeleteUsageBefore removes events older than cutoff and returns how many
// were deleted.
func (db *DB) DeleteUsageBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM llm_usages WHERE ts < ?", formatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old usage: %w", err)
	}
	return result.RowsAffected()
}

func filterArgs(filter string) []any {
	filter = strings.TrimSpace(filter)
	pattern := "%" + escapeLike(filter) + "%"
	return []any{filter, pattern, pattern}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
