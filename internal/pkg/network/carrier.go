package network

import "fmt"

// Carrier identifies the energy commodity balanced on a bus.
type Carrier int

const (
	Electricity Carrier = iota
	Heat
	Cooling
	Hydrogen
)

var carrierNames = map[Carrier]string{
	Electricity: "electricity",
	Heat:        "heat",
	Cooling:     "cooling",
	Hydrogen:    "hydrogen",
}

func (c Carrier) String() string {
	if s, ok := carrierNames[c]; ok {
		return s
	}
	return fmt.Sprintf("carrier(%d)", int(c))
}

// MarshalText allows Carrier to key JSON maps in solve results.
func (c Carrier) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Carrier) UnmarshalText(b []byte) error {
	parsed, err := ParseCarrier(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCarrier maps a config file string onto a Carrier.
func ParseCarrier(s string) (Carrier, error) {
	for c, name := range carrierNames {
		if name == s {
			return c, nil
		}
	}
	return Electricity, fmt.Errorf("unknown carrier %q", s)
}

// Carriers lists all carriers in bus ordering.
func Carriers() []Carrier {
	return []Carrier{Electricity, Heat, Cooling, Hydrogen}
}
