package thermo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTmRange(t *testing.T) {
	tests := []struct {
		name     string
		seq      string
		min, max float64
	}{
		{"typical 20-mer", "AGCGGATAACAATTTCACACAGGA", 50, 70},
		{"gc rich", "GCGCGGCCGCGGCCGC", 55, 90},
		{"at rich", "ATATTATAATTATAAT", 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := Tm(tt.seq)
			assert.GreaterOrEqual(t, tm, tt.min)
			assert.LessOrEqual(t, tm, tt.max)
		})
	}
}

func TestTmOrdering(t *testing.T) {
	at := Tm("ATATATTTAAATATAT")
	gc := Tm("GCGCGGCCGCGGCCGC")
	assert.Greater(t, gc, at)

	short := Tm("ACGTACGTAC")
	long := Tm("ACGTACGTACGTACGTACGT")
	assert.Greater(t, long, short)
}

func TestTmCaseInsensitive(t *testing.T) {
	assert.InDelta(t, Tm("ACGTTGCA"), Tm("acgttgca"), 1e-9)
}

func TestTmDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, Tm(""))
	assert.Equal(t, 0.0, Tm("A"))
	assert.Equal(t, 0.0, TmWith("ACGTACGT", Conditions{}))
}

func TestTmSaltDependence(t *testing.T) {
	low := TmWith("AGCGGATAACAATTTCACACAGGA", Conditions{Na: 0.01, Oligo: 50e-9})
	high := TmWith("AGCGGATAACAATTTCACACAGGA", Conditions{Na: 1, Oligo: 50e-9})
	assert.Greater(t, high, low)
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "TTGGCCAA", ReverseComplement("TTGGCCAA"))
	assert.Equal(t, "GTACGT", ReverseComplement("acgtac"))
	assert.Equal(t, "NACGT", ReverseComplement("ACGTX"))
	assert.Equal(t, "", ReverseComplement(""))
}
