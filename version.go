package update

import (
	"strconv"
	"strings"
)

// VersionNumber is an ordered sequence of non-negative integer components,
// such as 1.2.3. Components beyond the shorter of two compared versions are
// treated as zero, so VersionNumber{1, 2} equals VersionNumber{1, 2, 0}.
type VersionNumber struct {
	components []int
}

// NewVersionNumber builds a VersionNumber from its components.
func NewVersionNumber(components ...int) VersionNumber {
	cs := make([]int, len(components))
	copy(cs, components)
	return VersionNumber{components: cs}
}

// ParseVersionNumber parses a version string with an optional literal prefix.
// The prefix must occur at position 0; the remainder is split on "." and
// each piece must be a non-empty run of ASCII digits.
func ParseVersionNumber(version, prefix string) (VersionNumber, error) {
	if !strings.HasPrefix(version, prefix) {
		return VersionNumber{}, &Error{Kind: Misconfigured, Message: "version prefix not found in " + strconv.Quote(version)}
	}
	rest := version[len(prefix):]
	pieces := strings.Split(rest, ".")
	components := make([]int, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			return VersionNumber{}, &Error{Kind: Misconfigured, Message: "empty version component in " + strconv.Quote(version)}
		}
		n := 0
		for _, c := range piece {
			if c < '0' || c > '9' {
				return VersionNumber{}, &Error{Kind: Misconfigured, Message: "version string contains non-digits: " + strconv.Quote(version)}
			}
			n = n*10 + int(c-'0')
		}
		components = append(components, n)
	}
	return VersionNumber{components: components}, nil
}

// String serializes the version by joining its components with ".".
func (v VersionNumber) String() string {
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// Len returns the number of components.
func (v VersionNumber) Len() int { return len(v.components) }

// At returns the component at index i, or zero if i is out of range (this
// is what gives shorter versions their implicit zero-padding).
func (v VersionNumber) At(i int) int {
	if i < 0 || i >= len(v.components) {
		return 0
	}
	return v.components[i]
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, treating missing trailing components as zero.
func (v VersionNumber) Compare(other VersionNumber) int {
	n := v.Len()
	if other.Len() > n {
		n = other.Len()
	}
	for i := 0; i < n; i++ {
		a, b := v.At(i), other.At(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// Less reports whether v is ordered before other.
func (v VersionNumber) Less(other VersionNumber) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other order equally.
func (v VersionNumber) Equal(other VersionNumber) bool { return v.Compare(other) == 0 }

// Greater reports whether v is ordered after other.
func (v VersionNumber) Greater(other VersionNumber) bool { return v.Compare(other) > 0 }
