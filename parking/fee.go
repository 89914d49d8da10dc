package parking

import (
	"fmt"
	"math"
)

// CapFloorMinutes is the stay length from which a regime's cap fee applies
// early, when the unit-priced amount exceeds it. Below this floor, and
// below the regime's own cap minutes, the unit-priced amount is charged even
// if it is higher than the cap fee.
const CapFloorMinutes = 300

// Quote is a priced stay with the intermediate values that produced it.
type Quote struct {
	Minutes int        `json:"minutes"`
	Regime  RegimeKind `json:"regime"`
	Base    int        `json:"base"`
	Amount  int        `json:"fee"`
	Capped  bool       `json:"capped"`
}

// UnitFee charges unitPrice for every started block of unitMinutes.
func UnitFee(minutes, unitMinutes, unitPrice int) (int, error) {
	if minutes < 0 {
		return 0, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
	}
	if unitMinutes <= 0 {
		return 0, fmt.Errorf("%w: unit minutes must be positive, got %d", ErrInvalidProfile, unitMinutes)
	}
	units := minutes / unitMinutes
	if minutes%unitMinutes != 0 {
		units++
	}
	if unitPrice > 0 && units > math.MaxInt/unitPrice {
		return 0, fmt.Errorf("%w: %d minutes overflows the fee", ErrInvalidDuration, minutes)
	}
	return units * unitPrice, nil
}

// Quote prices minutes under r, applying the cap rule.
func (r Regime) Quote(minutes int) (Quote, error) {
	base, err := UnitFee(minutes, r.UnitMinutes, r.UnitPrice)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Minutes: minutes, Regime: r.Kind, Base: base, Amount: base}

	switch {
	case r.CapMinutes == 0:
	case minutes >= r.CapMinutes:
		q.Amount, q.Capped = r.CapFee, true
	case minutes >= CapFloorMinutes && base > r.CapFee:
		q.Amount, q.Capped = r.CapFee, true
	}
	return q, nil
}

// Calculator prices stays against a single validated Profile. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	profile Profile
}

func NewCalculator(p Profile) (*Calculator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{profile: p}, nil
}

func (c *Calculator) Profile() Profile {
	return c.profile
}

// Quote prices a stay with no known start time. The daytime regime is used.
func (c *Calculator) Quote(minutes int) (Quote, error) {
	return c.profile.Day().Quote(minutes)
}

// QuoteAt prices a stay by the regime in force at its start time. The whole
// stay is charged under that regime even if it runs past 18:00 or 08:00.
func (c *Calculator) QuoteAt(minutes, startHour, startMinute int) (Quote, error) {
	day, err := IsDaytime(startHour, startMinute)
	if err != nil {
		return Quote{}, err
	}
	if day {
		return c.profile.Day().Quote(minutes)
	}
	return c.profile.Night().Quote(minutes)
}

func (c *Calculator) Fee(minutes int) (int, error) {
	q, err := c.Quote(minutes)
	return q.Amount, err
}

func (c *Calculator) FeeAt(minutes, startHour, startMinute int) (int, error) {
	q, err := c.QuoteAt(minutes, startHour, startMinute)
	return q.Amount, err
}

// Fee prices minutes under the daytime regime of p.
func Fee(minutes int, p Profile) (int, error) {
	c, err := NewCalculator(p)
	if err != nil {
		return 0, err
	}
	return c.Fee(minutes)
}

// FeeAt prices minutes under the regime of p in force at startHour:startMinute.
func FeeAt(minutes, startHour, startMinute int, p Profile) (int, error) {
	c, err := NewCalculator(p)
	if err != nil {
		return 0, err
	}
	return c.FeeAt(minutes, startHour, startMinute)
}

// SplitFee prices a stay that is partly on weekdays and partly on holidays.
// Each part is priced on its own with Fee and the results are added; the
// caps are not shared. A part with zero minutes or a nil profile adds 0.
func SplitFee(weekdayMinutes, holidayMinutes int, weekday, holiday *Profile) (int, error) {
	weekdayFee, err := partFee(weekdayMinutes, weekday)
	if err != nil {
		return 0, fmt.Errorf("weekday part: %w", err)
	}
	holidayFee, err := partFee(holidayMinutes, holiday)
	if err != nil {
		return 0, fmt.Errorf("holiday part: %w", err)
	}
	return weekdayFee + holidayFee, nil
}

func partFee(minutes int, p *Profile) (int, error) {
	if minutes < 0 {
		return 0, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
	}
	if minutes == 0 || p == nil {
		return 0, nil
	}
	return Fee(minutes, *p)
}
