package mutation

import "errors"

var (
	// ErrStatNotFound indicates the named stat doesn't exist on the character.
	ErrStatNotFound = errors.New("stat not found")
	// ErrNotGauge indicates a max was set on a stat without one.
	ErrNotGauge = errors.New("stat is not a gauge")
	// ErrInvalidValue indicates the value can't be applied to the field.
	ErrInvalidValue = errors.New("invalid mutation value")
	// ErrUnknownField indicates the field isn't editable.
	ErrUnknownField = errors.New("unknown mutation field")
)
