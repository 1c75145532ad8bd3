package game

import (
	"fmt"
	"maps"
	"slices"

	"github.com/lox/omahareader/internal/detection"
)

// Snapshot is the full set of detections for one table from one polling
// cycle. It is immutable once built; accessors return copies.
type Snapshot struct {
	playerCards  []detection.Detection
	tableCards   []detection.Detection
	positions    map[int]detection.Detection
	bids         map[int]detection.BidDetection
	actions      map[int][]detection.Detection
	isPlayerMove bool
}

// PlayerCards returns the hero's detected hole cards.
func (s Snapshot) PlayerCards() []detection.Detection {
	return cloneDetections(s.playerCards)
}

// TableCards returns the detected community cards.
func (s Snapshot) TableCards() []detection.Detection {
	return cloneDetections(s.tableCards)
}

// Positions returns the detected position label per seat.
func (s Snapshot) Positions() map[int]detection.Detection {
	return clonePositions(s.positions)
}

// Bids returns the detected bet amount per seat.
func (s Snapshot) Bids() map[int]detection.BidDetection {
	out := make(map[int]detection.BidDetection, len(s.bids))
	maps.Copy(out, s.bids)
	return out
}

// Actions returns the detected action markers per seat.
func (s Snapshot) Actions() map[int][]detection.Detection {
	return cloneActions(s.actions)
}

// IsPlayerMove reports whether action buttons were visible for the hero.
func (s Snapshot) IsPlayerMove() bool {
	return s.isPlayerMove
}

// HasCards reports whether any player or table cards were detected.
func (s Snapshot) HasCards() bool {
	return len(s.playerCards) > 0 || len(s.tableCards) > 0
}

// HasPositions reports whether any seat positions were detected.
func (s Snapshot) HasPositions() bool {
	return len(s.positions) > 0
}

// HasBids reports whether any bids were detected.
func (s Snapshot) HasBids() bool {
	return len(s.bids) > 0
}

// HasActions reports whether any seat has detected actions.
func (s Snapshot) HasActions() bool {
	for _, list := range s.actions {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

func (s Snapshot) String() string {
	status := "WAIT"
	if s.isPlayerMove {
		status = "MOVE"
	}
	return fmt.Sprintf("Snapshot(player_cards=%d, table_cards=%d, positions=%d, bids=%d, status=%s)",
		len(s.playerCards), len(s.tableCards), len(s.positions), len(s.bids), status)
}

// SnapshotBuilder assembles a Snapshot field by field.
type SnapshotBuilder struct {
	snap Snapshot
}

// NewSnapshotBuilder returns a builder with every field empty.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

func (b *SnapshotBuilder) WithPlayerCards(cards []detection.Detection) *SnapshotBuilder {
	b.snap.playerCards = cloneDetections(cards)
	return b
}

func (b *SnapshotBuilder) WithTableCards(cards []detection.Detection) *SnapshotBuilder {
	b.snap.tableCards = cloneDetections(cards)
	return b
}

func (b *SnapshotBuilder) WithPositions(positions map[int]detection.Detection) *SnapshotBuilder {
	b.snap.positions = clonePositions(positions)
	return b
}

func (b *SnapshotBuilder) WithBids(bids map[int]detection.BidDetection) *SnapshotBuilder {
	b.snap.bids = make(map[int]detection.BidDetection, len(bids))
	maps.Copy(b.snap.bids, bids)
	return b
}

func (b *SnapshotBuilder) WithActions(actions map[int][]detection.Detection) *SnapshotBuilder {
	b.snap.actions = cloneActions(actions)
	return b
}

func (b *SnapshotBuilder) WithPlayerMove(isPlayerMove bool) *SnapshotBuilder {
	b.snap.isPlayerMove = isPlayerMove
	return b
}

// Build returns the snapshot. Unset fields are empty, never nil.
func (b *SnapshotBuilder) Build() Snapshot {
	snap := Snapshot{
		playerCards:  cloneDetections(b.snap.playerCards),
		tableCards:   cloneDetections(b.snap.tableCards),
		positions:    clonePositions(b.snap.positions),
		bids:         make(map[int]detection.BidDetection, len(b.snap.bids)),
		actions:      cloneActions(b.snap.actions),
		isPlayerMove: b.snap.isPlayerMove,
	}
	maps.Copy(snap.bids, b.snap.bids)
	return snap
}

func cloneDetections(in []detection.Detection) []detection.Detection {
	if in == nil {
		return []detection.Detection{}
	}
	return slices.Clone(in)
}

func clonePositions(in map[int]detection.Detection) map[int]detection.Detection {
	out := make(map[int]detection.Detection, len(in))
	maps.Copy(out, in)
	return out
}

func cloneActions(in map[int][]detection.Detection) map[int][]detection.Detection {
	out := make(map[int][]detection.Detection, len(in))
	for seat, list := range in {
		out[seat] = cloneDetections(list)
	}
	return out
}
