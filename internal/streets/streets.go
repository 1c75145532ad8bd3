// Package streets reconstructs which betting round each detected player
// action belongs to.
//
// The vision layer reports actions per seat, with no timing information:
// every seat has its own list of actions in the order that seat took them.
// Segment approximates the true chronology by visiting seats round-robin in
// preflop acting order and then replays standard betting-round closure rules
// to decide where each street ends.
//
// The reconstruction is lossy by construction. When two seats have a
// different number of actions the interleaving is a best guess; recovering
// the true order requires timestamps the upstream data does not carry.
package streets

import (
	"encoding/json"
	"fmt"

	"github.com/lox/omahareader/internal/game"
)

// SeatOrder is the fixed priority in which seats are visited when
// rebuilding the timeline.
var SeatOrder = []string{"SB", "BB", "EP", "MP", "CO", "BTN"}

// Action tokens understood by the closure rules.
const (
	TokenFold  = "fold"
	TokenBet   = "bet"
	TokenRaise = "raise"
	TokenCall  = "call"
	TokenCheck = "check"
)

// Action is a single detected action. Amount is carried through but plays
// no part in segmentation.
type Action struct {
	Token  string
	Amount float64
}

// UnmarshalJSON accepts either a bare token ("call") or a token/amount
// pair (["raise", 3.5]).
func (a *Action) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		*a = Action{Token: token}
		return nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("action must be a string or [token, amount] pair: %w", err)
	}
	if len(pair) == 0 || len(pair) > 2 {
		return fmt.Errorf("action pair must have 1 or 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &token); err != nil {
		return fmt.Errorf("action token: %w", err)
	}
	var amount float64
	if len(pair) == 2 {
		if err := json.Unmarshal(pair[1], &amount); err != nil {
			return fmt.Errorf("action amount: %w", err)
		}
	}
	*a = Action{Token: token, Amount: amount}
	return nil
}

// MarshalJSON writes the bare token, or a pair when an amount is present.
func (a Action) MarshalJSON() ([]byte, error) {
	if a.Amount == 0 {
		return json.Marshal(a.Token)
	}
	return json.Marshal([]any{a.Token, a.Amount})
}

// Tokens builds an action list from bare tokens.
func Tokens(tokens ...string) []Action {
	actions := make([]Action, len(tokens))
	for i, token := range tokens {
		actions[i] = Action{Token: token}
	}
	return actions
}

// Entry is one action placed on the reconstructed timeline.
type Entry struct {
	Seat   string
	Token  string
	Amount float64
}

// Partition is the timeline split into streets, indexed by game.Street.
type Partition [len(game.Streets)][]Entry

// Breakdown is the token-only view of a Partition. Every street is always
// present, empty when nothing was assigned to it.
type Breakdown struct {
	Preflop []string `json:"preflop"`
	Flop    []string `json:"flop"`
	Turn    []string `json:"turn"`
	River   []string `json:"river"`
}

// Street returns the tokens assigned to a street.
func (b Breakdown) Street(street game.Street) []string {
	switch street {
	case game.Preflop:
		return b.Preflop
	case game.Flop:
		return b.Flop
	case game.Turn:
		return b.Turn
	case game.River:
		return b.River
	}
	return nil
}

// Total returns the number of actions across all streets.
func (b Breakdown) Total() int {
	return len(b.Preflop) + len(b.Flop) + len(b.Turn) + len(b.River)
}

// Breakdown drops seats and amounts from the partition.
func (p Partition) Breakdown() Breakdown {
	tokens := func(entries []Entry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Token
		}
		return out
	}
	return Breakdown{
		Preflop: tokens(p[game.Preflop]),
		Flop:    tokens(p[game.Flop]),
		Turn:    tokens(p[game.Turn]),
		River:   tokens(p[game.River]),
	}
}

// Segment partitions per-seat action lists into ordered per-street token
// lists.
func Segment(perSeat map[string][]Action) Breakdown {
	return Build(perSeat).Breakdown()
}

// Build partitions per-seat action lists into per-street timeline entries.
func Build(perSeat map[string][]Action) Partition {
	var out Partition

	timeline := Timeline(perSeat)
	if len(timeline) == 0 {
		return out
	}

	var present []string
	for _, seat := range SeatOrder {
		if _, ok := perSeat[seat]; ok {
			present = append(present, seat)
		}
	}

	folded := make(map[string]bool)
	street := game.Preflop
	next := 0

	for next < len(timeline) {
		active := activeSeats(present, folded)
		if len(active) <= 1 {
			break
		}

		r := newRound(active)
		for next < len(timeline) && !r.closed {
			entry := timeline[next]
			next++
			if folded[entry.Seat] {
				continue
			}
			out[street] = append(out[street], entry)
			if entry.Token == TokenFold {
				folded[entry.Seat] = true
			}
			r.apply(entry)
		}

		// Checked once the timeline runs out, never between entries.
		if !r.closed && r.aggressor == "" && r.consumed >= r.startActive {
			r.closed = true
		}
		if !r.closed {
			continue
		}
		if street == game.River {
			break
		}
		street++
	}

	return out
}

// Timeline interleaves the per-seat lists round-robin: index 0 for every
// seat in SeatOrder, then index 1, and so on. Seats outside SeatOrder are
// ignored.
func Timeline(perSeat map[string][]Action) []Entry {
	longest := 0
	for _, seat := range SeatOrder {
		longest = max(longest, len(perSeat[seat]))
	}

	var timeline []Entry
	for i := 0; i < longest; i++ {
		for _, seat := range SeatOrder {
			actions := perSeat[seat]
			if i < len(actions) {
				timeline = append(timeline, Entry{Seat: seat, Token: actions[i].Token, Amount: actions[i].Amount})
			}
		}
	}
	return timeline
}

func activeSeats(present []string, folded map[string]bool) []string {
	active := make([]string, 0, len(present))
	for _, seat := range present {
		if !folded[seat] {
			active = append(active, seat)
		}
	}
	return active
}

// round tracks a single betting round.
type round struct {
	active      map[string]bool
	needsToAct  map[string]bool
	aggressor   string
	startActive int
	consumed    int
	closed      bool
}

func newRound(active []string) *round {
	r := &round{
		active:      make(map[string]bool, len(active)),
		needsToAct:  make(map[string]bool, len(active)),
		startActive: len(active),
	}
	for _, seat := range active {
		r.active[seat] = true
		r.needsToAct[seat] = true
	}
	return r
}

func (r *round) apply(entry Entry) {
	r.consumed++

	switch entry.Token {
	case TokenFold:
		delete(r.active, entry.Seat)
		delete(r.needsToAct, entry.Seat)
		if len(r.active) <= 1 {
			r.closed = true
		}
	case TokenBet, TokenRaise:
		r.aggressor = entry.Seat
		r.needsToAct = make(map[string]bool, len(r.active))
		for seat := range r.active {
			if seat != entry.Seat {
				r.needsToAct[seat] = true
			}
		}
	case TokenCall, TokenCheck:
		delete(r.needsToAct, entry.Seat)
		if len(r.needsToAct) == 0 {
			r.closed = true
		}
	}
}
