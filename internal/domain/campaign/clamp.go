package campaign

import "fmt"

// ClampPolicy decides how gauge values are bounded after a write.
type ClampPolicy string

const (
	// ClampRange keeps gauge values within [0, max].
	ClampRange ClampPolicy = "range"
	// ClampNone stores gauge values as given.
	ClampNone ClampPolicy = "none"
)

// ParseClampPolicy parses a configured policy name. Empty means ClampRange.
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch ClampPolicy(s) {
	case "", ClampRange:
		return ClampRange, nil
	case ClampNone:
		return ClampNone, nil
	default:
		return "", fmt.Errorf("unknown clamp policy %q", s)
	}
}

// Clamp bounds a single stat under the policy. Flags and non-numeric
// values pass through.
func (p ClampPolicy) Clamp(st Stat) Stat {
	if p != ClampRange || st.Max == nil || st.Value.Kind != KindNumber {
		return st
	}
	out := st.Clone()
	if *out.Max < 0 {
		*out.Max = 0
	}
	if out.Value.Number < 0 {
		out.Value.Number = 0
	}
	if out.Value.Number > *out.Max {
		out.Value.Number = *out.Max
	}
	return out
}
