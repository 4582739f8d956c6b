package primer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Status values stored with a pair.
const (
	StatusBlacklisted = 0
	StatusActive      = 1
)

// Pair is a forward (Left) and reverse (Right) primer amplifying the span
// between them.
type Pair struct {
	Left     *Primer
	Right    *Primer
	Name     string
	Reversed bool
	// Status is only meaningful for pairs read back from a store.
	Status int
}

// NewPair pairs two primers. An empty name defaults to the common prefix
// of the primer names.
func NewPair(left, right *Primer, name string) *Pair {
	if name == "" && left != nil && right != nil {
		name = CommonPrefix(left.Name, right.Name)
	}
	return &Pair{Left: left, Right: right, Name: name, Status: StatusActive}
}

// PairOf builds a pair from a slice holding exactly a left and a right
// primer. Longer slices fail with ErrBoundExceeded.
func PairOf(primers []*Primer, name string) (*Pair, error) {
	switch {
	case len(primers) > 2:
		return nil, fmt.Errorf("%w: got %d primers for %q", ErrBoundExceeded, len(primers), name)
	case len(primers) < 2 || primers[0] == nil || primers[1] == nil:
		return nil, fmt.Errorf("%w: %q", ErrIncompletePair, name)
	}
	return NewPair(primers[0], primers[1], name), nil
}

// Reverse swaps left and right and toggles Reversed.
func (p *Pair) Reverse() *Pair {
	p.Left, p.Right = p.Right, p.Left
	p.Reversed = !p.Reversed
	return p
}

// UniqueID is a content hash over the tagged primer sequences. Pairs with
// identical tags and sequences share an id whatever their names. An unset
// tag hashes as "None" so ids match databases written by the Python tool.
func (p *Pair) UniqueID() string {
	h := sha1.Sum([]byte(hashTag(p.Left.Tag) + "-" + p.Left.Seq() + "," + hashTag(p.Right.Tag) + "-" + p.Right.Seq()))
	return hex.EncodeToString(h[:])
}

func hashTag(tag string) string {
	if tag == "" {
		return "None"
	}
	return tag
}

// PruneRanks moves the design rank encoded in primer names of the form
// <name>_<rank>_<LEFT|RIGHT> into Rank and drops it from the names.
func (p *Pair) PruneRanks() error {
	left, err := rankFromName(p.Left.Name)
	if err != nil {
		return err
	}
	right, err := rankFromName(p.Right.Name)
	if err != nil {
		return err
	}
	if left != right {
		return &NamingMismatchError{
			Name:   p.Name,
			Reason: fmt.Sprintf("left rank %d differs from right rank %d", left, right),
		}
	}
	p.Left.Rank, p.Right.Rank = left, right

	suffix := "_" + strconv.Itoa(left)
	if !strings.HasSuffix(p.Name, suffix) {
		return &NamingMismatchError{Name: p.Name, Reason: "pair name does not end with rank " + suffix}
	}
	base := strings.TrimSuffix(p.Name, suffix)
	for _, pr := range []*Primer{p.Left, p.Right} {
		if strings.HasPrefix(pr.Name, p.Name) {
			pr.Name = base + pr.Name[len(p.Name):]
		}
	}
	if !strings.Contains(p.Left.Name, p.Name) || !strings.Contains(p.Right.Name, p.Name) {
		p.Name = CommonPrefix(p.Left.Name, p.Right.Name)
	}
	return nil
}

func rankFromName(name string) (int, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0, &NamingMismatchError{Name: name, Reason: "no rank in name"}
	}
	rank, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, &NamingMismatchError{Name: name, Reason: "no rank in name"}
	}
	return rank, nil
}

// Locations returns the storage locations of both primers ("" if unset).
func (p *Pair) Locations() [2]string {
	var out [2]string
	for i, pr := range []*Primer{p.Left, p.Right} {
		if pr != nil && pr.Location != nil {
			out[i] = pr.Location.String()
		}
	}
	return out
}

func (p *Pair) String() string {
	locs := p.Locations()
	chrom, leftEnd, rightStart := "NA", "NA", "NA"
	if p.Left.Target != nil {
		chrom = p.Left.Target.Chrom
		leftEnd = strconv.Itoa(p.Left.Target.End())
	}
	if p.Right.Target != nil {
		rightStart = strconv.Itoa(p.Right.Target.Offset)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s-%s\t%.1f\t%.2f\t%s-%s\t%.1f\t%.2f\t%s\t%s\t%s",
		p.Name, locs[0], locs[1],
		p.Left.Tag, p.Left.Seq(), p.Left.Tm(), p.Left.GC(),
		p.Right.Tag, p.Right.Seq(), p.Right.Tm(), p.Right.GC(),
		chrom, leftEnd, rightStart)
}
