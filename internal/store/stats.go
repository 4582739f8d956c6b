package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats holds aggregate counts for a store.
type Stats struct {
	Primers     int
	Targets     int
	Pairs       int
	Blacklisted int
	// Schema is the PRAGMA user_version of the file.
	Schema int
}

// Stats returns row counts across the store and its schema version.
func (d *DB) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		counts := []struct {
			what  string
			query string
			dest  *int
		}{
			{"primers", `SELECT COUNT(*) FROM primer`, &stats.Primers},
			{"targets", `SELECT COUNT(*) FROM target`, &stats.Targets},
			{"pairs", `SELECT COUNT(*) FROM pairs`, &stats.Pairs},
			{"blacklisted pairs", `SELECT COUNT(*) FROM status WHERE status = 0`, &stats.Blacklisted},
			{"schema version", `PRAGMA user_version`, &stats.Schema},
		}
		for _, c := range counts {
			if err := tx.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
				return fmt.Errorf("counting %s: %w", c.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
