package parking

import "errors"

var (
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidProfile   = errors.New("invalid rate profile")
	ErrProfileNotFound  = errors.New("rate profile not found")
)
