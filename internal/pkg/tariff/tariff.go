/*
Package tariff maps timestep indices onto time-of-use buy and sell prices for
grid electricity. A schedule is an ordered set of bands partitioning a 24 hour
cycle, tiled across the solve horizon.
*/
package tariff

import "fmt"

const cycleHours = 24

// Band is one time-of-use pricing window. End is exclusive; hours are in the
// range [0,24].
type Band struct {
	Start int     `json:"Start"`
	End   int     `json:"End"`
	Buy   float64 `json:"Buy"`
	Sell  float64 `json:"Sell"`
}

// TariffConfigError reports a malformed time-of-use schedule.
type TariffConfigError struct {
	Band   int
	Reason string
}

func (e *TariffConfigError) Error() string {
	return fmt.Sprintf("tariff config error: band %d: %s", e.Band, e.Reason)
}

// Schedule resolves per-timestep prices. Immutable once constructed.
type Schedule struct {
	bands      []Band
	buySeries  []float64
	sellSeries []float64
}

// New validates that the bands exactly partition [0,24) and returns the
// schedule. Bands must be supplied in ascending order.
func New(bands []Band) (*Schedule, error) {
	if len(bands) == 0 {
		return nil, &TariffConfigError{Band: 0, Reason: "no bands supplied"}
	}

	for i, b := range bands {
		if b.Start < 0 || b.End > cycleHours {
			return nil, &TariffConfigError{Band: i, Reason: "hours outside [0,24]"}
		}
		if b.Start >= b.End {
			return nil, &TariffConfigError{Band: i, Reason: "start must precede end"}
		}
		if b.Buy < 0 || b.Sell < 0 {
			return nil, &TariffConfigError{Band: i, Reason: "negative rate"}
		}
	}

	if bands[0].Start != 0 {
		return nil, &TariffConfigError{Band: 0, Reason: "cycle must start at hour 0"}
	}
	for i := 1; i < len(bands); i++ {
		switch {
		case bands[i].Start > bands[i-1].End:
			return nil, &TariffConfigError{Band: i, Reason: "gap in cycle coverage"}
		case bands[i].Start < bands[i-1].End:
			return nil, &TariffConfigError{Band: i, Reason: "overlapping bands"}
		}
	}
	if bands[len(bands)-1].End != cycleHours {
		return nil, &TariffConfigError{Band: len(bands) - 1, Reason: "cycle must end at hour 24"}
	}

	copied := make([]Band, len(bands))
	copy(copied, bands)
	return &Schedule{bands: copied}, nil
}

// Flat returns the degenerate single-band schedule covering the full cycle.
func Flat(buy, sell float64) *Schedule {
	s, err := New([]Band{{Start: 0, End: cycleHours, Buy: buy, Sell: sell}})
	if err != nil {
		panic(err)
	}
	return s
}

// FromSeries builds a schedule from explicit per-hour price series, the form
// metered sites supply. The series tile with the same modular rule as bands.
// sell may be nil for a buy-only tariff.
func FromSeries(buy, sell []float64) (*Schedule, error) {
	if len(buy) == 0 {
		return nil, &TariffConfigError{Band: 0, Reason: "empty buy series"}
	}
	if sell != nil && len(sell) != len(buy) {
		return nil, &TariffConfigError{Band: 0, Reason: "sell series length mismatch"}
	}
	for i, p := range buy {
		if p < 0 || (sell != nil && sell[i] < 0) {
			return nil, &TariffConfigError{Band: i, Reason: "negative rate"}
		}
	}
	s := &Schedule{buySeries: append([]float64(nil), buy...)}
	if sell != nil {
		s.sellSeries = append([]float64(nil), sell...)
	}
	return s, nil
}

// PriceAt returns the buy and sell price for a horizon timestep. Timesteps
// are hourly; the schedule repeats every 24 steps.
func (s *Schedule) PriceAt(step int) (buy, sell float64) {
	if step < 0 {
		step = 0
	}
	if s.buySeries != nil {
		i := step % len(s.buySeries)
		buy = s.buySeries[i]
		if s.sellSeries != nil {
			sell = s.sellSeries[i]
		}
		return buy, sell
	}

	hour := step % cycleHours
	for _, b := range s.bands {
		if hour >= b.Start && hour < b.End {
			return b.Buy, b.Sell
		}
	}
	// unreachable given construction-time validation
	return 0, 0
}

// Bands returns a copy of the schedule's bands. Nil for series schedules.
func (s *Schedule) Bands() []Band {
	if s.bands == nil {
		return nil
	}
	return append([]Band(nil), s.bands...)
}
