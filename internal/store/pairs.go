package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacklau/zippy/internal/primer"
)

// PairRecord is a stored pair row joined with its status.
type PairRecord struct {
	PairID    string
	UniqueID  string
	Left      string
	Right     string
	Chrom     string
	Start     int
	End       int
	Status    int
	DateAdded time.Time
}

// Active reports whether the pair is not blacklisted.
func (r PairRecord) Active() bool {
	return r.Status != primer.StatusBlacklisted
}

// AddPair stores the primers of each pair, the pair itself and an active
// status row, all in one transaction. Re-adding a pair with the same name
// and content replaces its coordinates and status.
func (d *DB) AddPair(ctx context.Context, pairs ...*primer.Pair) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return d.withWriteTx(ctx, func(tx *sql.Tx) error {
		for _, p := range pairs {
			if p.Left == nil || p.Right == nil {
				return fmt.Errorf("pair %s: %w", p.Name, primer.ErrIncompletePair)
			}
			if p.Left.Target == nil || p.Right.Target == nil {
				return fmt.Errorf("pair %s: primers have no target position", p.Name)
			}
			if err := addPrimers(ctx, tx, []*primer.Primer{p.Left, p.Right}); err != nil {
				return err
			}

			uid := p.UniqueID()
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO pairs (pairid, uniqueid, "left", "right", chrom, start, "end")
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.Name, uid, p.Left.Seq(), p.Right.Seq(),
				p.Left.Target.Chrom, p.Left.Target.Offset, p.Right.Target.End(),
			)
			if err != nil {
				return fmt.Errorf("storing pair %s: %w", p.Name, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO status (pairid, uniqueid, status, dateadded) VALUES (?, ?, ?, ?)`,
				p.Name, uid, primer.StatusActive, now,
			)
			if err != nil {
				return fmt.Errorf("storing status of pair %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

// Query returns the active pairs on iv.Chrom satisfying
// start+len(left) <= iv.End and end-len(right) >= iv.Start, closest
// amplicon midpoint first. Primers are rebuilt from their stored
// sequences as <pairid>_left and <pairid>_right.
func (d *DB) Query(ctx context.Context, iv primer.Interval) ([]*primer.Pair, error) {
	var pairs []*primer.Pair
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT DISTINCT p.pairid, p."left", p."right", p.chrom, p.start, p."end", s.status,
				abs(p.start + (p."end" - p.start) / 2.0 - ?) AS midpointdistance
			FROM pairs AS p
			JOIN status AS s ON p.pairid = s.pairid AND p.uniqueid = s.uniqueid
			WHERE p.chrom = ?
				AND p.start + length(p."left") <= ?
				AND p."end" - length(p."right") >= ?
				AND s.status != 0
			ORDER BY midpointdistance`,
			iv.Midpoint(), iv.Chrom, iv.End, iv.Start,
		)
		if err != nil {
			return fmt.Errorf("querying pairs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				name, left, right, chrom string
				start, end, status       int
				distance                 float64
			)
			if err := rows.Scan(&name, &left, &right, &chrom, &start, &end, &status, &distance); err != nil {
				return fmt.Errorf("scanning pair: %w", err)
			}
			p, err := rebuildPair(name, left, right, chrom, start, end)
			if err != nil {
				return err
			}
			p.Status = status
			pairs = append(pairs, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

func rebuildPair(name, left, right, chrom string, start, end int) (*primer.Pair, error) {
	l, err := primer.New(name+"_left", left,
		primer.WithTarget(primer.Locus{Chrom: chrom, Offset: start, Length: len(left)}))
	if err != nil {
		return nil, fmt.Errorf("rebuilding pair %s: %w", name, err)
	}
	r, err := primer.New(name+"_right", right,
		primer.WithTarget(primer.Locus{Chrom: chrom, Offset: end - len(right), Length: len(right), Reverse: true}))
	if err != nil {
		return nil, fmt.Errorf("rebuilding pair %s: %w", name, err)
	}
	return primer.NewPair(l, r, name), nil
}

const pairRecordColumns = `p.pairid, p.uniqueid, p."left", p."right", p.chrom, p.start, p."end",
	s.status, s.dateadded`

// dateLayouts are the timestamp forms found in status.dateadded: RFC 3339
// from this package, and Python's str(datetime) from older databases.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseDateAdded(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized dateadded %q", s)
}

func scanPairRecords(rows *sql.Rows) ([]PairRecord, error) {
	var out []PairRecord
	for rows.Next() {
		var (
			r         PairRecord
			status    sql.NullInt64
			dateAdded sql.NullString
		)
		if err := rows.Scan(&r.PairID, &r.UniqueID, &r.Left, &r.Right, &r.Chrom, &r.Start, &r.End,
			&status, &dateAdded); err != nil {
			return nil, fmt.Errorf("scanning pair: %w", err)
		}
		r.Status = int(status.Int64)
		if dateAdded.Valid && dateAdded.String != "" {
			t, err := parseDateAdded(dateAdded.String)
			if err != nil {
				return nil, fmt.Errorf("pair %s: %w", r.PairID, err)
			}
			r.DateAdded = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) listPairs(ctx context.Context, where string, args ...any) ([]PairRecord, error) {
	var out []PairRecord
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT DISTINCT `+pairRecordColumns+`
			FROM pairs AS p
			JOIN status AS s ON p.pairid = s.pairid AND p.uniqueid = s.uniqueid
			`+where+`
			ORDER BY p.chrom, p.start, p.pairid`, args...)
		if err != nil {
			return fmt.Errorf("listing pairs: %w", err)
		}
		defer rows.Close()
		out, err = scanPairRecords(rows)
		return err
	})
	return out, err
}

// Pairs lists every stored pair with its status.
func (d *DB) Pairs(ctx context.Context) ([]PairRecord, error) {
	return d.listPairs(ctx, "")
}

// Blacklisted lists the pairs whose status is 0.
func (d *DB) Blacklisted(ctx context.Context) ([]PairRecord, error) {
	return d.listPairs(ctx, "WHERE s.status = 0")
}

// Blacklist sets the status of one pair to blacklisted. Both the pair id
// and the content id must match, so pairs that only share a name are left
// alone.
func (d *DB) Blacklist(ctx context.Context, pairID, uniqueID string) error {
	return d.withWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE status SET status = 0 WHERE pairid = ? AND uniqueid = ?`, pairID, uniqueID)
		if err != nil {
			return fmt.Errorf("blacklisting pair %s: %w", pairID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("blacklisting pair %s: %w", pairID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %s", ErrPairNotFound, pairID, uniqueID)
		}
		return nil
	})
}
