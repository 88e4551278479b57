package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

// SyncCatalog upserts every provider and model of c in one transaction.
// Rows missing from c are left in place so historical usage keeps its price.
func (db *DB) SyncCatalog(ctx context.Context, c *models.Catalog) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTimestamp(time.Now())

	for _, p := range c.Providers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO llm_providers (name, api_base, api_key, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				api_base = excluded.api_base,
				api_key = excluded.api_key,
				updated_at = excluded.updated_at
		`, p.Name, p.APIBase, p.APIKey, now)
		if err != nil {
			return fmt.Errorf("failed to upsert provider %s: %w", p.Name, err)
		}
	}

	for _, m := range c.Models {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO llms (name, provider, cost_per_million_input, cost_per_million_output, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name, provider) DO UPDATE SET
				cost_per_million_input = excluded.cost_per_million_input,
				cost_per_million_output = excluded.cost_per_million_output,
				updated_at = excluded.updated_at
		`, m.Name, m.Provider,
			models.USDToMicroUSD(m.CostPerMillionInputToken),
			models.USDToMicroUSD(m.CostPerMillionOutputToken),
			now)
		if err != nil {
			return fmt.Errorf("failed to upsert model %s/%s: %w", m.Provider, m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog sync: %w", err)
	}
	return nil
}

// GetCatalog returns every stored provider and model, ordered by provider
// then model name.
func (db *DB) GetCatalog(ctx context.Context) (*models.Catalog, error) {
	c := &models.Catalog{}

	rows, err := db.QueryContext(ctx, `SELECT name, api_base, api_key FROM llm_providers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.Name, &p.APIBase, &p.APIKey); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		c.Providers = append(c.Providers, p)
	}
	if err := rows.Close(); err != nil {
		logger.Error("failed to close rows", "error", err)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT name, provider, cost_per_million_input, cost_per_million_output
		FROM llms
		ORDER BY provider, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var m models.LLM
		var in, out int64
		if err := rows.Scan(&m.Name, &m.Provider, &in, &out); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		m.CostPerMillionInputToken = models.MicroUSDToUSD(in)
		m.CostPerMillionOutputToken = models.MicroUSDToUSD(out)
		c.Models = append(c.Models, m)
	}

	return c, rows.Err()
}

// GetModelPrice returns the stored price of a model. It returns ErrNotFound
// when the model is not in the catalog.
func (db *DB) GetModelPrice(ctx context.Context, provider, model string) (models.Price, error) {
	var p models.Price
	err := db.QueryRowContext(ctx, `
		SELECT cost_per_million_input, cost_per_million_output
		FROM llms
		WHERE provider = ? AND name = ?
	`, provider, model).Scan(&p.InputPerMillion, &p.OutputPerMillion)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Price{}, ErrNotFound
	}
	if err != nil {
		return models.Price{}, fmt.Errorf("failed to get model price: %w", err)
	}
	return p, nil
}
