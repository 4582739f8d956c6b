package specificity

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacklau/zippy/internal/primer"
)

func matchVec(n int, mismatches ...int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	for _, i := range mismatches {
		v[i] = false
	}
	return v
}

func templates(t *testing.T) map[string]*primer.Primer {
	t.Helper()
	a, err := primer.New("A", "ACGTACGTAC", primer.WithTarget(primer.Locus{Chrom: "chr1", Offset: 100, Length: 10}))
	require.NoError(t, err)
	b, err := primer.New("B", "TTGGCCAATT")
	require.NoError(t, err)
	return map[string]*primer.Primer{"A": a, "B": b}
}

func TestResolveExactAndNearMatch(t *testing.T) {
	primers := templates(t)
	st, err := ResolveAll(primers, []Alignment{
		{Name: "A", Chrom: "chr1", Pos: 100, Match: matchVec(10)},
		{Name: "A", Chrom: "chr7", Pos: 5000, Reverse: true, Match: matchVec(10, 4)},
	})
	require.NoError(t, err)

	a := primers["A"]
	require.Len(t, a.Loci, 1)
	assert.Equal(t, primer.Locus{Chrom: "chr1", Offset: 100, Length: 10}, a.Loci[0])
	assert.Equal(t, 1, a.SigMatch)
	assert.True(t, a.OnTarget())
	assert.Equal(t, Stats{Records: 2, Loci: 1, Near: 1}, st)
}

func TestResolveGapsAndWeakHits(t *testing.T) {
	primers := templates(t)
	_, err := ResolveAll(primers, []Alignment{
		// single-base deletion: eleven columns, one gap
		{Name: "B", Chrom: "chr2", Pos: 10, Match: append(matchVec(10), false)},
		// insertion: nine matched columns plus an inserted base
		{Name: "B", Chrom: "chr2", Pos: 900, Match: append(matchVec(9), false)},
		// two mismatches
		{Name: "B", Chrom: "chr3", Pos: 1, Match: matchVec(10, 0, 9)},
		{Name: "B", Unmapped: true},
	})
	require.NoError(t, err)
	b := primers["B"]
	assert.Empty(t, b.Loci)
	assert.Equal(t, 2, b.SigMatch)
}

func TestResolveSortsLoci(t *testing.T) {
	primers := templates(t)
	_, err := ResolveAll(primers, []Alignment{
		{Name: "A", Chrom: "chr2", Pos: 50, Match: matchVec(10)},
		{Name: "A", Chrom: "chr1", Pos: 900, Match: matchVec(10)},
		{Name: "A", Chrom: "chr1", Pos: 100, Match: matchVec(10)},
	})
	require.NoError(t, err)
	loci := primers["A"].Loci
	require.Len(t, loci, 3)
	assert.Equal(t, "chr1", loci[0].Chrom)
	assert.Equal(t, 100, loci[0].Offset)
	assert.Equal(t, 900, loci[1].Offset)
	assert.Equal(t, "chr2", loci[2].Chrom)
}

func TestResolveUnknownPrimer(t *testing.T) {
	primers := templates(t)
	_, err := ResolveAll(primers, []Alignment{{Name: "C", Chrom: "chr1", Match: matchVec(10)}})
	var nm *primer.NamingMismatchError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, "C", nm.Name)
}

type failingSource struct{ n int }

func (f *failingSource) Next() (Alignment, error) {
	if f.n > 0 {
		return Alignment{}, errors.New("truncated report")
	}
	f.n++
	return Alignment{Unmapped: true}, nil
}

func TestResolveSourceError(t *testing.T) {
	st, err := Resolve(templates(t), &failingSource{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, st.Unmapped)
}
