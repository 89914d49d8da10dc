package parking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dayStartHour = 8
	dayEndHour   = 18
)

// TimeOfDay is a wall-clock start time, hour 0-23 and minute 0-59.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM". Single digit hours are accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, s)
	}
	if len(hh) < 1 || len(hh) > 2 || !isDigits(hh) || len(mm) != 2 || !isDigits(mm) {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	t := TimeOfDay{Hour: hour, Minute: minute}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

// TimeOfDayOf returns the local wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidTimeOfDay, t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidTimeOfDay, t.Minute)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// IsDaytime reports whether a stay starting at hour:minute is priced with
// the daytime regime. The window is 08:00 through 18:00, both inclusive.
func IsDaytime(hour, minute int) (bool, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if err := t.Validate(); err != nil {
		return false, err
	}
	if hour >= dayStartHour && hour < dayEndHour {
		return true, nil
	}
	return hour == dayEndHour && minute == 0, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
