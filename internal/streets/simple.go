package streets

import "github.com/lox/omahareader/internal/game"

// SegmentSimple is the older heuristic: seats are concatenated in
// SeatOrder and the street advances after two consecutive checks that
// follow any aggression. It is kept for side-by-side debugging against
// Segment and is not used by the polling pipeline. A "UTG" key is read as
// EP when no EP key is present.
func SegmentSimple(perSeat map[string][]Action) Breakdown {
	var out Partition

	street := game.Preflop
	consecutiveChecks := 0
	aggressive := false

	for _, seat := range SeatOrder {
		actions, ok := perSeat[seat]
		if !ok && seat == "EP" {
			actions = perSeat["UTG"]
		}
		for _, action := range actions {
			out[street] = append(out[street], Entry{Seat: seat, Token: action.Token, Amount: action.Amount})

			switch action.Token {
			case TokenCheck:
				consecutiveChecks++
				if consecutiveChecks >= 2 && aggressive {
					street = min(street+1, game.River)
					consecutiveChecks = 0
				}
			case TokenBet, TokenRaise:
				aggressive = true
				consecutiveChecks = 0
			case TokenCall:
				consecutiveChecks = 0
			}
		}
	}

	return out.Breakdown()
}
