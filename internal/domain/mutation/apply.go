package mutation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// Apply returns a copy of current with the mutation applied. current is
// never modified. Numeric inputs that don't parse become 0; the policy
// decides whether gauge values are bounded afterwards.
func Apply(current campaign.Character, m Mutation, policy campaign.ClampPolicy) (campaign.Character, error) {
	next := current.Clone()

	switch m.Field {
	case FieldName:
		next.Name = text(m.Value)
	case FieldIcon:
		next.Icon = text(m.Value)
	case FieldColor:
		next.Color = text(m.Value)
	case FieldVisible:
		b, ok := m.Value.(bool)
		if !ok {
			return campaign.Character{}, fmt.Errorf("%w: visible needs a boolean, got %T", ErrInvalidValue, m.Value)
		}
		next.Visible = b
	case FieldStatValue, FieldStatMax:
		st, idx, ok := next.Stat(m.StatName)
		if !ok {
			return campaign.Character{}, fmt.Errorf("%w: %q", ErrStatNotFound, m.StatName)
		}
		updated, err := applyStat(st, m)
		if err != nil {
			return campaign.Character{}, err
		}
		next.Stats[idx] = policy.Clamp(updated)
	default:
		return campaign.Character{}, fmt.Errorf("%w: %q", ErrUnknownField, m.Field)
	}
	return next, nil
}

func applyStat(st campaign.Stat, m Mutation) (campaign.Stat, error) {
	if m.Field == FieldStatMax {
		if !st.IsGauge() {
			return campaign.Stat{}, fmt.Errorf("%w: %q", ErrNotGauge, st.Name)
		}
		limit := ParseInt(m.Value)
		st.Max = &limit
		return st, nil
	}

	switch st.Value.Kind {
	case campaign.KindNumber:
		st.Value = campaign.NumberValue(ParseInt(m.Value))
	case campaign.KindBoolean:
		b, ok := m.Value.(bool)
		if !ok {
			return campaign.Stat{}, fmt.Errorf("%w: stat %q needs a boolean, got %T", ErrInvalidValue, st.Name, m.Value)
		}
		st.Value = campaign.BoolValue(b)
	case campaign.KindString:
		st.Value = campaign.StringValue(text(m.Value))
	default:
		return campaign.Stat{}, fmt.Errorf("%w: stat %q has unknown kind %q", ErrInvalidValue, st.Name, st.Value.Kind)
	}
	return st, nil
}

// ParseInt reads an integer the way a form field is read: leading sign and
// digits of a string, the truncated value of a float. Anything else is 0.
func ParseInt(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return truncate(float64(x))
	case float64:
		return truncate(x)
	case json.Number:
		return parseLeadingInt(x.String())
	case string:
		return parseLeadingInt(x)
	case campaign.StatValue:
		if x.Kind == campaign.KindNumber {
			return x.Number
		}
		if x.Kind == campaign.KindString {
			return parseLeadingInt(x.Text)
		}
		return 0
	default:
		return 0
	}
}

func truncate(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f < math.MinInt64 {
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

func parseLeadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			break
		}
		n = n*10 + d
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case campaign.StatValue:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
