package db

import (
	"context"
	"fmt"
)

// FixLegacyTimeFormats rewrites timestamps stored in Go's default time.Time
// text form ("2006-01-02 15:04:05 +0000 UTC") to the plain layout used by
// every query. Only UTC values are touched; their first 19 characters are
// already the wanted layout.
func (db *DB) FixLegacyTimeFormats(ctx context.Context) error {
	queries := []string{
		`UPDATE llm_usages
		 SET ts = SUBSTR(ts, 1, 19)
		 WHERE length(ts) > 19 AND ts LIKE '% +0000 UTC'`,

		`UPDATE llm_usages
		 SET ts = REPLACE(SUBSTR(ts, 1, 19), 'T', ' ')
		 WHERE length(ts) = 20 AND ts LIKE '____-__-__T__:__:__Z'`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats: %w", err)
		}
	}

	return nil
}
