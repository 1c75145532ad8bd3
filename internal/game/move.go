package game

import (
	"fmt"
	"strings"
)

// ActionType represents a player action
type ActionType int

const (
	Fold ActionType = iota
	Call
	Raise
	Check
	SmallBlind
	BigBlind
)

func (a ActionType) String() string {
	if a < Fold || a > BigBlind {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return [...]string{"fold", "call", "raise", "check", "sb", "bb"}[a]
}

// MarshalText encodes the action by its wire value.
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action wire value.
func (a *ActionType) UnmarshalText(text []byte) error {
	action, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*a = action
	return nil
}

// ParseActionType converts a detected action token into an ActionType.
// "bet" is folded into Raise since both open or increase the betting level.
func ParseActionType(token string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "fold":
		return Fold, nil
	case "call":
		return Call, nil
	case "raise", "bet":
		return Raise, nil
	case "check":
		return Check, nil
	case "sb":
		return SmallBlind, nil
	case "bb":
		return BigBlind, nil
	}
	return Fold, fmt.Errorf("unknown action %q", token)
}

// Move is a single recorded player action.
type Move struct {
	Seat              int        `json:"seat"`
	Action            ActionType `json:"action"`
	Amount            float64    `json:"amount"`
	Street            Street     `json:"street"`
	TotalContribution float64    `json:"total_contribution"`
}
