package primer

import (
	"regexp"
	"strings"
)

// Direction of a primer derived from its name.
type Direction int

const (
	Unknown Direction = 0
	Forward Direction = 1
	Reverse Direction = -1
)

const (
	prefixStripChars = "-_ "
	minCommonPrefix  = 3
)

var (
	forwardSuffixes = map[string]bool{"f": true, "fwd": true, "l": true, "5'": true, "left": true}
	reverseSuffixes = map[string]bool{"r": true, "rev": true, "3'": true, "right": true}
	forwardNumbered = regexp.MustCompile(`^f\d+`)
	reverseNumbered = regexp.MustCompile(`^r\d+`)
)

// CommonPrefix returns the longest common leading substring of a and b
// with trailing separators removed. Prefixes shorter than three
// characters are not considered a shared name and yield "".
func CommonPrefix(a, b string) string {
	if a == "" || b == "" {
		return ""
	}
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n < minCommonPrefix {
		return ""
	}
	return strings.TrimRight(a[:n], prefixStripChars)
}

// ParseDirection splits a primer name into its base name and the
// direction encoded either as a 5'/3' prefix or as a separator-delimited
// suffix such as _F, -rev, _left or _r2.
func ParseDirection(name string) (string, Direction) {
	if strings.HasPrefix(name, "5'") {
		return name[2:], Forward
	}
	if strings.HasPrefix(name, "3'") {
		return name[2:], Reverse
	}

	i := strings.LastIndexAny(name, "_-")
	if i < 0 {
		return name, Unknown
	}
	base, suffix := name[:i], strings.ToLower(name[i+1:])
	switch {
	case forwardSuffixes[suffix] || forwardNumbered.MatchString(suffix):
		return base, Forward
	case reverseSuffixes[suffix] || reverseNumbered.MatchString(suffix):
		return base, Reverse
	}
	return name, Unknown
}
