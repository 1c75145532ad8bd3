// Package cards converts detected card labels into evaluator cards and
// describes the best Omaha hand available to the hero.
package cards

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulhankin/poker"

	"github.com/lox/omahareader/internal/detection"
)

// ErrInvalidCard is returned for labels that do not name a card.
var ErrInvalidCard = errors.New("invalid card label")

var suits = map[byte]poker.Suit{
	'c': poker.Club,
	'd': poker.Diamond,
	'h': poker.Heart,
	's': poker.Spade,
}

var ranks = map[string]poker.Rank{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "T": 10, "10": 10, "J": 11, "Q": 12, "K": 13,
}

// Parse converts a label such as "10h", "AS" or "td" into a card.
func Parse(label string) (poker.Card, error) {
	label = strings.TrimSpace(label)
	if len(label) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, label)
	}
	suit, ok := suits[strings.ToLower(label[len(label)-1:])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q: unknown suit", ErrInvalidCard, label)
	}
	rank, ok := ranks[strings.ToUpper(label[:len(label)-1])]
	if !ok {
		return 0, fmt.Errorf("%w: %q: unknown rank", ErrInvalidCard, label)
	}
	return poker.MakeCard(suit, rank)
}

// Short renders a label in the two-character form used by strategy
// tables and solver links: upper-case rank with T for ten, lower-case
// suit ("10H" becomes "Th").
func Short(label string) (string, error) {
	if _, err := Parse(label); err != nil {
		return "", err
	}
	label = strings.TrimSpace(label)
	rank := strings.ToUpper(label[:len(label)-1])
	if rank == "10" {
		rank = "T"
	}
	return rank + strings.ToLower(label[len(label)-1:]), nil
}

// FromDetections parses every detection label.
func FromDetections(detections []detection.Detection) ([]poker.Card, error) {
	out := make([]poker.Card, 0, len(detections))
	for _, d := range detections {
		c, err := Parse(d.Label)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// BestOmaha returns the strongest five card hand made from exactly two
// hole cards and three board cards. Higher scores are better.
func BestOmaha(hole, board []poker.Card) ([5]poker.Card, int16, error) {
	var best [5]poker.Card
	if len(hole) < 2 || len(board) < 3 {
		return best, 0, fmt.Errorf("need at least 2 hole and 3 board cards, have %d and %d", len(hole), len(board))
	}

	bestScore := int16(-1)
	var five [5]poker.Card
	for i := 0; i < len(hole); i++ {
		for j := i + 1; j < len(hole); j++ {
			for a := 0; a < len(board); a++ {
				for b := a + 1; b < len(board); b++ {
					for c := b + 1; c < len(board); c++ {
						five = [5]poker.Card{hole[i], hole[j], board[a], board[b], board[c]}
						if score := poker.Eval5(&five); score > bestScore {
							bestScore = score
							best = five
						}
					}
				}
			}
		}
	}
	return best, bestScore, nil
}

// DescribeHero names the hero's best Omaha hand, e.g. "two pair, kings
// and sevens". It returns "" before the flop or when any card label is
// unreadable.
func DescribeHero(player, table []detection.Detection) string {
	if len(player) < 2 || len(table) < 3 {
		return ""
	}
	hole, err := FromDetections(player)
	if err != nil {
		return ""
	}
	board, err := FromDetections(table)
	if err != nil {
		return ""
	}
	best, _, err := BestOmaha(hole, board)
	if err != nil {
		return ""
	}
	desc, err := poker.Describe(best[:])
	if err != nil {
		return ""
	}
	return desc
}
