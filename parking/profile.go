package parking

import "fmt"

// Category names a stored rate configuration. Weekday and Holiday have
// built-in presets; any other key is a custom profile that only exists in
// the rate store.
type Category string

const (
	Weekday Category = "weekday"
	Holiday Category = "holiday"
)

// Profile is one pricing regime pair: daytime and nighttime unit pricing,
// each with an optional cap. A cap minutes value of 0 disables the cap.
type Profile struct {
	UnitMinutes int `json:"unit_minutes"`
	UnitPrice   int `json:"unit_price"`
	CapMinutes  int `json:"cap_minutes"`
	CapFee      int `json:"cap_fee"`

	NightUnitMinutes int `json:"night_unit_minutes"`
	NightUnitPrice   int `json:"night_unit_price"`
	NightCapMinutes  int `json:"night_cap_minutes"`
	NightCapFee      int `json:"night_cap_fee"`
}

// Regime is the half of a Profile selected by the start time.
type Regime struct {
	Kind        RegimeKind
	UnitMinutes int
	UnitPrice   int
	CapMinutes  int
	CapFee      int
}

type RegimeKind string

const (
	Day   RegimeKind = "day"
	Night RegimeKind = "night"
)

func (p Profile) Day() Regime {
	return Regime{Day, p.UnitMinutes, p.UnitPrice, p.CapMinutes, p.CapFee}
}

func (p Profile) Night() Regime {
	return Regime{Night, p.NightUnitMinutes, p.NightUnitPrice, p.NightCapMinutes, p.NightCapFee}
}

// Validate reports the first field that cannot be priced with.
func (p Profile) Validate() error {
	if err := p.Day().validate(); err != nil {
		return err
	}
	return p.Night().validate()
}

func (r Regime) validate() error {
	switch {
	case r.UnitMinutes <= 0:
		return fmt.Errorf("%w: %s unit minutes must be positive, got %d", ErrInvalidProfile, r.Kind, r.UnitMinutes)
	case r.UnitPrice < 0:
		return fmt.Errorf("%w: %s unit price must not be negative, got %d", ErrInvalidProfile, r.Kind, r.UnitPrice)
	case r.CapMinutes < 0:
		return fmt.Errorf("%w: %s cap minutes must not be negative, got %d", ErrInvalidProfile, r.Kind, r.CapMinutes)
	case r.CapFee < 0:
		return fmt.Errorf("%w: %s cap fee must not be negative, got %d", ErrInvalidProfile, r.Kind, r.CapFee)
	}
	return nil
}

// DefaultWeekdayProfile is the standard weekday tariff:
// 500 per 60 min by day capped at 1500 for 12h, 300 per 60 min by night
// capped at 1000 for 12h.
func DefaultWeekdayProfile() Profile {
	return Profile{
		UnitMinutes: 60,
		UnitPrice:   500,
		CapMinutes:  720,
		CapFee:      1500,

		NightUnitMinutes: 60,
		NightUnitPrice:   300,
		NightCapMinutes:  720,
		NightCapFee:      1000,
	}
}

// DefaultHolidayProfile is the standard weekend and holiday tariff:
// 500 per 30 min by day capped at 1500 for 6h, 300 per 60 min by night
// capped at 1000 for 6h.
func DefaultHolidayProfile() Profile {
	return Profile{
		UnitMinutes: 30,
		UnitPrice:   500,
		CapMinutes:  360,
		CapFee:      1500,

		NightUnitMinutes: 60,
		NightUnitPrice:   300,
		NightCapMinutes:  360,
		NightCapFee:      1000,
	}
}

// DefaultProfile returns the preset for c, if it has one.
func DefaultProfile(c Category) (Profile, bool) {
	switch c {
	case Weekday:
		return DefaultWeekdayProfile(), true
	case Holiday:
		return DefaultHolidayProfile(), true
	}
	return Profile{}, false
}

// Presets lists the categories that have a built-in profile.
func Presets() []Category {
	return []Category{Weekday, Holiday}
}
