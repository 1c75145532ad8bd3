package game

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/lox/omahareader/internal/detection"
)

// HeroSeat is the seat number of the local player.
const HeroSeat = 1

// Game is the persistent state of one table, accumulated across polling
// cycles. It lives from the first detection on a table until the table
// disappears from capture.
type Game struct {
	HandID      string
	PlayerCards []detection.Detection
	TableCards  []detection.Detection
	Positions   map[int]detection.Detection
	MoveHistory map[Street][]Move
	CreatedAt   time.Time
}

// NewFromSnapshot seeds a fresh game from a snapshot. The move history
// starts empty.
func NewFromSnapshot(handID string, snap Snapshot, createdAt time.Time) *Game {
	return &Game{
		HandID:      handID,
		PlayerCards: snap.PlayerCards(),
		TableCards:  snap.TableCards(),
		Positions:   snap.Positions(),
		MoveHistory: make(map[Street][]Move),
		CreatedAt:   createdAt,
	}
}

// Street derives the current street from the community card count.
func (g *Game) Street() (Street, bool) {
	return StreetFromCardCount(len(g.TableCards))
}

// StreetDisplay returns the street title or an error string naming the
// invalid card count.
func (g *Game) StreetDisplay() string {
	street, ok := g.Street()
	if !ok {
		return fmt.Sprintf("ERROR (%d cards)", len(g.TableCards))
	}
	return street.Title()
}

// AddMoves appends moves to a street's history.
func (g *Game) AddMoves(street Street, moves ...Move) {
	if len(moves) == 0 {
		return
	}
	if g.MoveHistory == nil {
		g.MoveHistory = make(map[Street][]Move)
	}
	g.MoveHistory[street] = append(g.MoveHistory[street], moves...)
}

// SetMoveHistory replaces the whole move history.
func (g *Game) SetMoveHistory(history map[Street][]Move) {
	g.MoveHistory = make(map[Street][]Move, len(history))
	for street, moves := range history {
		if len(moves) > 0 {
			g.MoveHistory[street] = slices.Clone(moves)
		}
	}
}

// ResetMoveHistory clears all recorded moves.
func (g *Game) ResetMoveHistory() {
	g.MoveHistory = make(map[Street][]Move)
}

// MovesFor returns the moves recorded on a street.
func (g *Game) MovesFor(street Street) []Move {
	return g.MoveHistory[street]
}

// AllMoves returns every recorded move in street order.
func (g *Game) AllMoves() []Move {
	var all []Move
	for _, street := range Streets {
		all = append(all, g.MoveHistory[street]...)
	}
	return all
}

// MovesSummary describes how many moves were recorded and on which streets.
func (g *Game) MovesSummary() string {
	total := 0
	var streets []string
	for _, street := range Streets {
		moves := g.MoveHistory[street]
		if len(moves) == 0 {
			continue
		}
		total += len(moves)
		streets = append(streets, street.Title())
	}
	if total == 0 {
		return "No moves"
	}
	return fmt.Sprintf("%d moves across %s", total, strings.Join(streets, ", "))
}

// HeroPosition returns the canonical position of the hero seat, or "" when
// the hero's position has not been detected.
func (g *Game) HeroPosition() string {
	hero, ok := g.Positions[HeroSeat]
	if !ok || hero.PositionName() == "" {
		return ""
	}
	return detection.NormalizePosition(hero.PositionName())
}

// ActivePositions returns the seats whose position label is not "NO".
func (g *Game) ActivePositions() map[int]detection.Detection {
	active := make(map[int]detection.Detection, len(g.Positions))
	for seat, position := range g.Positions {
		if position.PositionName() != "NO" {
			active[seat] = position
		}
	}
	return active
}

func (g *Game) HasCards() bool {
	return len(g.PlayerCards) > 0 || len(g.TableCards) > 0
}

func (g *Game) HasPositions() bool {
	return len(g.Positions) > 0
}

func (g *Game) HasMoves() bool {
	for _, moves := range g.MoveHistory {
		if len(moves) > 0 {
			return true
		}
	}
	return false
}

// PlayerCardsString concatenates the hero's card labels, e.g. "4S6DJH".
func (g *Game) PlayerCardsString() string {
	return joinLabels(g.PlayerCards)
}

// TableCardsString concatenates the community card labels.
func (g *Game) TableCardsString() string {
	return joinLabels(g.TableCards)
}

// TotalBidsForStreet returns the latest total contribution of every seat
// that did not fold on the street, skipping zero contributions.
func (g *Game) TotalBidsForStreet(street Street) map[int]float64 {
	totals := make(map[int]float64)
	for _, move := range g.MoveHistory[street] {
		if move.Action == Fold {
			continue
		}
		totals[move.Seat] = move.TotalContribution
	}
	maps.DeleteFunc(totals, func(_ int, amount float64) bool { return amount <= 0 })
	return totals
}

// CurrentStreetTotalBids is TotalBidsForStreet for the current street; it is
// empty when the street is invalid.
func (g *Game) CurrentStreetTotalBids() map[int]float64 {
	street, ok := g.Street()
	if !ok {
		return map[int]float64{}
	}
	return g.TotalBidsForStreet(street)
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	clone := &Game{
		HandID:      g.HandID,
		PlayerCards: slices.Clone(g.PlayerCards),
		TableCards:  slices.Clone(g.TableCards),
		Positions:   make(map[int]detection.Detection, len(g.Positions)),
		MoveHistory: make(map[Street][]Move, len(g.MoveHistory)),
		CreatedAt:   g.CreatedAt,
	}
	maps.Copy(clone.Positions, g.Positions)
	for street, moves := range g.MoveHistory {
		clone.MoveHistory[street] = slices.Clone(moves)
	}
	return clone
}

func joinLabels(cards []detection.Detection) string {
	var sb strings.Builder
	for _, card := range cards {
		sb.WriteString(card.Label)
	}
	return sb.String()
}
