package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jacklau/zippy/internal/primer"
)

// AddPrimer stores each primer and all of its observed loci in a single
// transaction. Existing rows with the same name or locus are replaced.
func (d *DB) AddPrimer(ctx context.Context, primers ...*primer.Primer) error {
	return d.withWriteTx(ctx, func(tx *sql.Tx) error {
		return addPrimers(ctx, tx, primers)
	})
}

func addPrimers(ctx context.Context, tx *sql.Tx, primers []*primer.Primer) error {
	for _, p := range primers {
		if p == nil {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO primer (name, seq, tm, gc) VALUES (?, ?, ?, ?)`,
			p.Name, p.Seq(), p.Tm(), p.GC(),
		)
		if err != nil {
			return fmt.Errorf("storing primer %s: %w", p.Name, err)
		}
		for _, l := range p.Loci {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO target (seq, chrom, position, reverse) VALUES (?, ?, ?, ?)`,
				p.Seq(), l.Chrom, l.Offset, l.Reverse,
			)
			if err != nil {
				return fmt.Errorf("storing locus %s of primer %s: %w", l, p.Name, err)
			}
		}
	}
	return nil
}

// Loci returns the stored binding sites of a primer sequence ordered by
// chromosome and position.
func (d *DB) Loci(ctx context.Context, seq string) ([]primer.Locus, error) {
	var loci []primer.Locus
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT chrom, position, reverse FROM target WHERE seq = ? ORDER BY chrom, position`, seq)
		if err != nil {
			return fmt.Errorf("querying loci: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			l := primer.Locus{Length: len(seq)}
			if err := rows.Scan(&l.Chrom, &l.Offset, &l.Reverse); err != nil {
				return fmt.Errorf("scanning locus: %w", err)
			}
			loci = append(loci, l)
		}
		return rows.Err()
	})
	return loci, err
}

// GetPrimer returns the stored properties of a primer by name, or nil if
// there is none.
func (d *DB) GetPrimer(ctx context.Context, name string) (*primer.Primer, error) {
	var p *primer.Primer
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var seq string
		err := tx.QueryRowContext(ctx, `SELECT seq FROM primer WHERE name = ?`, name).Scan(&seq)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("querying primer: %w", err)
		}
		p, err = primer.New(name, seq)
		return err
	})
	return p, err
}
