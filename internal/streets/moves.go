package streets

import (
	"strings"

	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
)

// FromDetections converts per-seat action detections into the position
// keyed form Segment expects. Seats without a detected position are
// dropped since their place in the acting order is unknown.
func FromDetections(actions map[int][]detection.Detection, positions map[int]detection.Detection) map[string][]Action {
	perSeat := make(map[string][]Action, len(actions))
	for seat, detected := range actions {
		position, ok := positions[seat]
		if !ok {
			continue
		}
		list := make([]Action, 0, len(detected))
		for _, d := range detected {
			list = append(list, Action{Token: strings.ToLower(strings.TrimSpace(d.Label))})
		}
		perSeat[detection.NormalizePosition(position.PositionName())] = list
	}
	return perSeat
}

// SeatNumbers maps canonical position names back to seat numbers.
func SeatNumbers(positions map[int]detection.Detection) map[string]int {
	seats := make(map[string]int, len(positions))
	for seat, position := range positions {
		seats[detection.NormalizePosition(position.PositionName())] = seat
	}
	return seats
}

// Moves turns a partition into per-street move records. Entries whose
// position has no seat number, or whose token is not a known action, are
// skipped. TotalContribution is the running sum of a seat's amounts on
// the street.
func Moves(p Partition, seats map[string]int) map[game.Street][]game.Move {
	history := make(map[game.Street][]game.Move)
	for _, street := range game.Streets {
		contributed := make(map[int]float64)
		for _, entry := range p[street] {
			seat, ok := seats[entry.Seat]
			if !ok {
				continue
			}
			action, err := game.ParseActionType(entry.Token)
			if err != nil {
				continue
			}
			contributed[seat] += entry.Amount
			history[street] = append(history[street], game.Move{
				Seat:              seat,
				Action:            action,
				Amount:            entry.Amount,
				Street:            street,
				TotalContribution: contributed[seat],
			})
		}
	}
	return history
}
