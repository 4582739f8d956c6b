package primer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	vesselPattern = regexp.MustCompile(`(\d+)`)
	wellPattern   = regexp.MustCompile(`^\w\d`)
)

// Location is the physical storage place of a primer: a numbered vessel
// (plate, box) and one or more wells.
type Location struct {
	Vessel int
	Wells  map[string]struct{}
}

// NewLocation builds a location from a vessel label containing a number
// and a comma-separated well list.
func NewLocation(vessel, wells string) (*Location, error) {
	m := vesselPattern.FindString(vessel)
	if m == "" {
		return nil, &InvalidLocationError{Input: vessel, Reason: "vessel has no number"}
	}
	num, err := strconv.Atoi(m)
	if err != nil {
		return nil, &InvalidLocationError{Input: vessel, Reason: err.Error()}
	}
	loc := &Location{Vessel: num, Wells: make(map[string]struct{})}
	for _, w := range strings.Split(wells, ",") {
		w = strings.TrimSpace(w)
		if !wellPattern.MatchString(w) {
			return nil, &InvalidLocationError{Input: wells, Reason: fmt.Sprintf("invalid well %q", w)}
		}
		loc.Wells[w] = struct{}{}
	}
	return loc, nil
}

// ParseLocation parses the "vessel|well[,well...]" form produced by String.
func ParseLocation(s string) (*Location, error) {
	vessel, wells, ok := strings.Cut(s, "|")
	if !ok {
		return nil, &InvalidLocationError{Input: s, Reason: "expected vessel|wells"}
	}
	return NewLocation(vessel, wells)
}

// WellList returns the wells in sorted order.
func (l *Location) WellList() []string {
	out := make([]string, 0, len(l.Wells))
	for w := range l.Wells {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func (l *Location) String() string {
	return strconv.Itoa(l.Vessel) + "|" + strings.Join(l.WellList(), ",")
}

// Equal reports whether both locations name the same vessel and wells.
func (l *Location) Equal(o *Location) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.Vessel != o.Vessel || len(l.Wells) != len(o.Wells) {
		return false
	}
	for w := range l.Wells {
		if _, ok := o.Wells[w]; !ok {
			return false
		}
	}
	return true
}

// Merge adds the wells of o. Both locations must share a vessel.
func (l *Location) Merge(o *Location) error {
	if l.Vessel != o.Vessel {
		return fmt.Errorf("cannot merge vessel %d into vessel %d", o.Vessel, l.Vessel)
	}
	for w := range o.Wells {
		l.Wells[w] = struct{}{}
	}
	return nil
}
