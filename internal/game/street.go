package game

import (
	"fmt"
	"strings"
)

// Street represents a betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

// Streets lists every street in dealing order.
var Streets = [...]Street{Preflop, Flop, Turn, River}

func (s Street) String() string {
	if s < Preflop || s > River {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return [...]string{"preflop", "flop", "turn", "river"}[s]
}

// Title returns the display name, e.g. "Preflop".
func (s Street) Title() string {
	if s < Preflop || s > River {
		return s.String()
	}
	return [...]string{"Preflop", "Flop", "Turn", "River"}[s]
}

// MarshalText encodes the street as its lower-case name.
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a street name in any case.
func (s *Street) UnmarshalText(text []byte) error {
	street, err := ParseStreet(string(text))
	if err != nil {
		return err
	}
	*s = street
	return nil
}

// ParseStreet converts a street name into a Street.
func ParseStreet(name string) (Street, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "preflop":
		return Preflop, nil
	case "flop":
		return Flop, nil
	case "turn":
		return Turn, nil
	case "river":
		return River, nil
	}
	return Preflop, fmt.Errorf("unknown street %q", name)
}

// StreetFromCardCount derives the street from the number of community
// cards. The second return value is false for counts that do not
// correspond to a street.
func StreetFromCardCount(count int) (Street, bool) {
	switch count {
	case 0:
		return Preflop, true
	case 3:
		return Flop, true
	case 4:
		return Turn, true
	case 5:
		return River, true
	}
	return Preflop, false
}
