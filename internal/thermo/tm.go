// Package thermo computes two-state melting temperatures of short DNA
// oligonucleotides using the SantaLucia unified nearest-neighbour set.
package thermo

import (
	"math"
	"strings"
)

// gas constant, cal/(K*mol)
const rcal = 1.9872

// Conditions describes the solution a primer is melted in.
type Conditions struct {
	// Na is the monovalent cation concentration in mol/L.
	Na float64
	// Oligo is the total strand concentration in mol/L.
	Oligo float64
}

// DefaultConditions mirror common PCR buffer settings
// (50 mM monovalent salt, 50 nM oligo).
var DefaultConditions = Conditions{Na: 0.05, Oligo: 50e-9}

type stack struct {
	dh float64 // kcal/mol
	ds float64 // cal/(K*mol)
}

// Watson-Crick stacks keyed 5'->3' on the top strand.
var stacks = map[string]stack{
	"AA": {-7.9, -22.2}, "TT": {-7.9, -22.2},
	"AT": {-7.2, -20.4},
	"TA": {-7.2, -21.3},
	"CA": {-8.5, -22.7}, "TG": {-8.5, -22.7},
	"GT": {-8.4, -22.4}, "AC": {-8.4, -22.4},
	"CT": {-7.8, -21.0}, "AG": {-7.8, -21.0},
	"GA": {-8.2, -22.2}, "TC": {-8.2, -22.2},
	"CG": {-10.6, -27.2},
	"GC": {-9.8, -24.4},
	"GG": {-8.0, -19.9}, "CC": {-8.0, -19.9},
}

var (
	initGC = stack{0.1, -2.8}
	initAT = stack{2.3, 4.1}
	symm   = stack{0, -1.4}
)

// Tm returns the melting temperature in degrees Celsius of seq under
// DefaultConditions.
func Tm(seq string) float64 {
	return TmWith(seq, DefaultConditions)
}

// TmWith returns the melting temperature of seq under the given
// conditions. Dinucleotides containing non-ACGT bases contribute nothing.
// Sequences shorter than two bases have no defined Tm and yield 0.
func TmWith(seq string, c Conditions) float64 {
	s := strings.ToUpper(seq)
	n := len(s)
	if n < 2 || c.Na <= 0 || c.Oligo <= 0 {
		return 0
	}

	dh, ds := 0.0, 0.0
	for _, end := range []byte{s[0], s[n-1]} {
		init := initAT
		if end == 'G' || end == 'C' {
			init = initGC
		}
		dh += init.dh
		ds += init.ds
	}
	for i := 0; i < n-1; i++ {
		st, ok := stacks[s[i:i+2]]
		if !ok {
			continue
		}
		dh += st.dh
		ds += st.ds
	}

	x := 4.0
	if isSelfComplementary(s) {
		dh += symm.dh
		ds += symm.ds
		x = 1.0
	}

	// salt correction over n-1 phosphates per strand
	ds += 0.368 * float64(n-1) * math.Log(c.Na)

	tmK := dh * 1000 / (ds + rcal*math.Log(c.Oligo/x))
	return tmK - 273.15
}

// ReverseComplement returns the reverse complement of an ACGTN sequence.
// Unknown bases become N.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		var c byte
		switch seq[len(seq)-1-i] {
		case 'A', 'a':
			c = 'T'
		case 'C', 'c':
			c = 'G'
		case 'G', 'g':
			c = 'C'
		case 'T', 't':
			c = 'A'
		default:
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

func isSelfComplementary(s string) bool {
	return s == ReverseComplement(s)
}
