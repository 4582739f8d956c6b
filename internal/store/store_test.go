package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jacklau/zippy/internal/primer"
)

func setupTestStore(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "zippy.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return db
}

func newPair(t *testing.T, name, left, right string, leftPos, rightPos int) *primer.Pair {
	t.Helper()
	l, err := primer.New(name+"_F", left,
		primer.WithTarget(primer.Locus{Chrom: "chr1", Offset: leftPos, Length: len(left)}))
	if err != nil {
		t.Fatalf("creating left primer: %v", err)
	}
	r, err := primer.New(name+"_R", right,
		primer.WithTarget(primer.Locus{Chrom: "chr1", Offset: rightPos, Length: len(right), Reverse: true}))
	if err != nil {
		t.Fatalf("creating right primer: %v", err)
	}
	l.AddLocus("chr1", leftPos, false)
	r.AddLocus("chr1", rightPos, true)
	return primer.NewPair(l, r, name)
}

// pairX amplifies chr1:100-210.
func pairX(t *testing.T) *primer.Pair {
	return newPair(t, "pairX", "ACGTACGTAC", "TTGGCCAATT", 100, 200)
}

func TestOpenConcurrentFreshStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Open(ctx, path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Open failed: %v", err)
	}

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}

	pairs := make([]*primer.Pair, workers)
	for i := range pairs {
		pairs[i] = newPair(t, fmt.Sprintf("pair%d", i), "ACGTACGTAC", "TTGGCCAATT", 100+i, 200+i)
	}
	wg = sync.WaitGroup{}
	addErrs := make(chan error, workers)
	for _, p := range pairs {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := db.AddPair(ctx, p); err != nil {
				addErrs <- err
			}
		}()
	}
	wg.Wait()
	close(addErrs)
	for err := range addErrs {
		t.Errorf("concurrent AddPair failed: %v", err)
	}

	records, err := db.Pairs(ctx)
	if err != nil {
		t.Fatalf("listing pairs: %v", err)
	}
	if len(records) != workers {
		t.Errorf("expected %d pairs, got %d", workers, len(records))
	}
}

func TestInitializeIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	if err := db.AddPair(ctx, pairX(t)); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	again, err := Open(ctx, db.Path())
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	stats, err := again.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Pairs != 1 || stats.Primers != 2 || stats.Targets != 2 {
		t.Errorf("unexpected stats after reopen: %+v", stats)
	}
	if stats.Schema != SchemaVersion {
		t.Errorf("expected stats schema %d, got %d", SchemaVersion, stats.Schema)
	}

	var version int
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow("PRAGMA user_version").Scan(&version)
	})
	if err != nil {
		t.Fatalf("reading user_version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected user_version %d, got %d", SchemaVersion, version)
	}
}

func TestOpenRequiresFile(t *testing.T) {
	_, err := Open(context.Background(), ":memory:")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "zippy.db"))
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError for unwritable path, got %v", err)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	orig := pairX(t)
	if err := db.AddPair(ctx, orig); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	pairs, err := db.Query(ctx, primer.Interval{Chrom: "chr1", Start: 150, End: 160})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	got := pairs[0]
	if got.Name != "pairX" {
		t.Errorf("expected pairX, got %q", got.Name)
	}
	if got.Left.Seq() != orig.Left.Seq() || got.Right.Seq() != orig.Right.Seq() {
		t.Errorf("sequences changed: %s/%s", got.Left.Seq(), got.Right.Seq())
	}
	if got.Left.Name != "pairX_left" || got.Right.Name != "pairX_right" {
		t.Errorf("unexpected primer names %q %q", got.Left.Name, got.Right.Name)
	}
	if got.Status != primer.StatusActive {
		t.Errorf("expected active status, got %d", got.Status)
	}
	if got.Left.Tm() != orig.Left.Tm() || got.Left.GC() != orig.Left.GC() {
		t.Errorf("recomputed properties differ")
	}
	if *got.Left.Target != (primer.Locus{Chrom: "chr1", Offset: 100, Length: 10}) {
		t.Errorf("unexpected left target %v", got.Left.Target)
	}
	if *got.Right.Target != (primer.Locus{Chrom: "chr1", Offset: 200, Length: 10, Reverse: true}) {
		t.Errorf("unexpected right target %v", got.Right.Target)
	}
	if len(got.Left.Loci) != 0 {
		t.Errorf("rebuilt primers should carry no loci, got %d", len(got.Left.Loci))
	}
	if got.UniqueID() != orig.UniqueID() {
		t.Errorf("uniqueid changed after round trip")
	}
}

func TestQueryBoundaries(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	if err := db.AddPair(ctx, pairX(t)); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	// pairX: start+len(left) = 110, end-len(right) = 200
	tests := []struct {
		name string
		iv   primer.Interval
		want bool
	}{
		{"inside", primer.Interval{Chrom: "chr1", Start: 150, End: 160}, true},
		{"end equals start+len(left)", primer.Interval{Chrom: "chr1", Start: 100, End: 110}, true},
		{"end one short", primer.Interval{Chrom: "chr1", Start: 100, End: 109}, false},
		{"start equals end-len(right)", primer.Interval{Chrom: "chr1", Start: 200, End: 250}, true},
		{"start one past", primer.Interval{Chrom: "chr1", Start: 201, End: 250}, false},
		{"other chromosome", primer.Interval{Chrom: "chr2", Start: 150, End: 160}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := db.Query(ctx, tt.iv)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if got := len(pairs) == 1; got != tt.want {
				t.Errorf("Query(%s) returned %d pairs, want included=%v", tt.iv, len(pairs), tt.want)
			}
		})
	}
}

func TestQueryOrdersByMidpointDistance(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	far := newPair(t, "far", "GGGACCCTTA", "CCATGGTACA", 120, 400)
	near := pairX(t)
	if err := db.AddPair(ctx, far, near); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	pairs, err := db.Query(ctx, primer.Interval{Chrom: "chr1", Start: 150, End: 160})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Name != "pairX" || pairs[1].Name != "far" {
		t.Errorf("unexpected order: %s, %s", pairs[0].Name, pairs[1].Name)
	}

	pairs, err = db.Query(ctx, primer.Interval{Chrom: "chr1", Start: 300, End: 350})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Name != "far" {
		t.Errorf("expected only far, got %d pairs", len(pairs))
	}
}

func TestAddPairReplaces(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	if err := db.AddPair(ctx, pairX(t)); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}
	moved := newPair(t, "pairX", "ACGTACGTAC", "TTGGCCAATT", 100, 300)
	if err := db.AddPair(ctx, moved); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	records, err := db.Pairs(ctx)
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 pair row, got %d", len(records))
	}
	if records[0].End != 310 {
		t.Errorf("expected replaced end 310, got %d", records[0].End)
	}
	if records[0].DateAdded.IsZero() {
		t.Error("expected dateadded to be set")
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Primers != 2 {
		t.Errorf("expected 2 primers, got %d", stats.Primers)
	}
	// the moved right primer adds a second locus for its sequence
	if stats.Targets != 3 {
		t.Errorf("expected 3 targets, got %d", stats.Targets)
	}
}

func TestAddPairAtomic(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	broken := pairX(t)
	broken.Name = "broken"
	broken.Right.Target = nil

	if err := db.AddPair(ctx, pairX(t), broken); err == nil {
		t.Fatal("expected error for pair without target")
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Pairs != 0 || stats.Primers != 0 {
		t.Errorf("failed batch left rows behind: %+v", stats)
	}
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	p := pairX(t)
	// same name, different content
	twin := newPair(t, "pairX", "GGGACCCTTA", "CCATGGTACA", 100, 200)
	if err := db.AddPair(ctx, p, twin); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	if err := db.Blacklist(ctx, "pairX", p.UniqueID()); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}
	if err := db.Blacklist(ctx, "pairX", "nope"); !errors.Is(err, ErrPairNotFound) {
		t.Errorf("expected ErrPairNotFound, got %v", err)
	}

	pairs, err := db.Query(ctx, primer.Interval{Chrom: "chr1", Start: 150, End: 160})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Left.Seq() != "GGGACCCTTA" {
		t.Fatalf("expected only the twin to remain, got %d pairs", len(pairs))
	}

	black, err := db.Blacklisted(ctx)
	if err != nil {
		t.Fatalf("Blacklisted failed: %v", err)
	}
	if len(black) != 1 || black[0].UniqueID != p.UniqueID() || black[0].Active() {
		t.Errorf("unexpected blacklist: %+v", black)
	}

	// re-adding restores an active status row
	if err := db.AddPair(ctx, pairX(t)); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}
	black, err = db.Blacklisted(ctx)
	if err != nil {
		t.Fatalf("Blacklisted failed: %v", err)
	}
	if len(black) != 0 {
		t.Errorf("expected empty blacklist, got %d", len(black))
	}
}

func TestLoci(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	p, err := primer.New("multi", "ACGTACGTAC")
	if err != nil {
		t.Fatalf("creating primer: %v", err)
	}
	p.AddLocus("chr2", 5, false)
	p.AddLocus("chr1", 900, true)
	p.AddLocus("chr1", 100, false)

	if err := db.AddPrimer(ctx, p); err != nil {
		t.Fatalf("AddPrimer failed: %v", err)
	}
	// storing again must not duplicate loci
	if err := db.AddPrimer(ctx, p); err != nil {
		t.Fatalf("AddPrimer failed: %v", err)
	}

	loci, err := db.Loci(ctx, "ACGTACGTAC")
	if err != nil {
		t.Fatalf("Loci failed: %v", err)
	}
	want := []primer.Locus{
		{Chrom: "chr1", Offset: 100, Length: 10},
		{Chrom: "chr1", Offset: 900, Length: 10, Reverse: true},
		{Chrom: "chr2", Offset: 5, Length: 10},
	}
	if len(loci) != len(want) {
		t.Fatalf("expected %d loci, got %d", len(want), len(loci))
	}
	for i := range want {
		if loci[i] != want[i] {
			t.Errorf("locus %d: got %v, want %v", i, loci[i], want[i])
		}
	}

	got, err := db.GetPrimer(ctx, "multi")
	if err != nil {
		t.Fatalf("GetPrimer failed: %v", err)
	}
	if got == nil || got.Seq() != "ACGTACGTAC" {
		t.Errorf("unexpected primer %v", got)
	}
	missing, err := db.GetPrimer(ctx, "none")
	if err != nil || missing != nil {
		t.Errorf("expected nil primer without error, got %v, %v", missing, err)
	}
}

func TestPairsParsesLegacyDateAdded(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	if err := db.AddPair(ctx, pairX(t)); err != nil {
		t.Fatalf("AddPair failed: %v", err)
	}

	setDate := func(v string) {
		t.Helper()
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `UPDATE status SET dateadded = ?`, v)
			return err
		})
		if err != nil {
			t.Fatalf("updating dateadded: %v", err)
		}
	}

	setDate("2017-03-14 09:26:53.589793")
	records, err := db.Pairs(ctx)
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	got := records[0].DateAdded
	if got.Year() != 2017 || got.Month() != 3 || got.Day() != 14 || got.Hour() != 9 || got.Nanosecond() != 589793000 {
		t.Errorf("unexpected legacy date %v", got)
	}

	setDate("not a date")
	if _, err := db.Pairs(ctx); err == nil {
		t.Error("expected error for unparseable dateadded")
	}
}

func TestParseDateAdded(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-05-01T10:00:00Z", false},
		{"2024-05-01T10:00:00+02:00", false},
		{"2024-05-01 10:00:00", false},
		{"2024-05-01 10:00:00.123456", false},
		{"2024-05-01T10:00:00.5", false},
		{"yesterday", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, err := parseDateAdded(tc.in)
			if (err != nil) != tc.wantErr {
				t.Errorf("parseDateAdded(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
		})
	}
}
