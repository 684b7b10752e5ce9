package campaign

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// StatKind is the payload type of a StatValue. It is fixed when a stat is
// created from its system template.
type StatKind string

const (
	KindNumber  StatKind = "number"
	KindBoolean StatKind = "boolean"
	KindString  StatKind = "string"
)

// StatValue holds exactly one of a number, a boolean or a string.
// On the wire it is the bare JSON scalar.
type StatValue struct {
	Kind   StatKind
	Number int64
	Bool   bool
	Text   string
}

// NumberValue builds a numeric stat value.
func NumberValue(n int64) StatValue {
	return StatValue{Kind: KindNumber, Number: n}
}

// BoolValue builds a boolean stat value.
func BoolValue(b bool) StatValue {
	return StatValue{Kind: KindBoolean, Bool: b}
}

// StringValue builds a text stat value.
func StringValue(s string) StatValue {
	return StatValue{Kind: KindString, Text: s}
}

// ValueOf converts a decoded scalar (from JSON, YAML or a tool call) into a
// StatValue. Floats are truncated to integers and numbers outside the int64
// range saturate. NaN is rejected.
func ValueOf(v any) (StatValue, error) {
	switch x := v.(type) {
	case StatValue:
		return x, nil
	case bool:
		return BoolValue(x), nil
	case string:
		return StringValue(x), nil
	case int:
		return NumberValue(int64(x)), nil
	case int64:
		return NumberValue(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return NumberValue(math.MaxInt64), nil
		}
		return NumberValue(int64(x)), nil
	case float64:
		return floatValue(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return NumberValue(n), nil
		}
		f, err := x.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return StatValue{}, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, x)
		}
		return floatValue(f)
	default:
		return StatValue{}, fmt.Errorf("%w: unsupported stat value %T", ErrInvalidInput, v)
	}
}

func floatValue(f float64) (StatValue, error) {
	switch {
	case math.IsNaN(f):
		return StatValue{}, fmt.Errorf("%w: NaN is not a stat value", ErrInvalidInput)
	case f >= math.MaxInt64:
		return NumberValue(math.MaxInt64), nil
	case f <= math.MinInt64:
		return NumberValue(math.MinInt64), nil
	default:
		return NumberValue(int64(math.Trunc(f))), nil
	}
}

// Any returns the payload as a plain Go value.
func (v StatValue) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBoolean:
		return v.Bool
	case KindString:
		return v.Text
	default:
		return nil
	}
}

// String renders the payload without any localisation.
func (v StatValue) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatInt(v.Number, 10)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Text
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a bare scalar.
func (v StatValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return []byte(strconv.FormatInt(v.Number, 10)), nil
	case KindBoolean:
		return []byte(strconv.FormatBool(v.Bool)), nil
	case KindString:
		return json.Marshal(v.Text)
	default:
		return nil, fmt.Errorf("marshal stat value: unknown kind %q", v.Kind)
	}
}

// UnmarshalJSON decodes a bare scalar, choosing the kind from the token type.
func (v *StatValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: stat value is null", ErrInvalidInput)
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode boolean stat value: %w", err)
		}
		*v = BoolValue(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string stat value: %w", err)
		}
		*v = StringValue(s)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("decode numeric stat value: %w", err)
		}
		parsed, err := ValueOf(n)
		if err != nil {
			return err
		}
		*v = parsed
	}
	return nil
}
