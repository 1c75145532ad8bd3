package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/detection"
)

func card(label string) detection.Detection {
	return detection.New(label, 0, 0, 10, 10, 0.95)
}

func cards(labels ...string) []detection.Detection {
	out := make([]detection.Detection, len(labels))
	for i, label := range labels {
		out[i] = card(label)
	}
	return out
}

func TestStreetFromCardCount(t *testing.T) {
	tests := []struct {
		count int
		want  Street
		ok    bool
	}{
		{0, Preflop, true},
		{1, Preflop, false},
		{2, Preflop, false},
		{3, Flop, true},
		{4, Turn, true},
		{5, River, true},
		{6, Preflop, false},
	}

	for _, tt := range tests {
		street, ok := StreetFromCardCount(tt.count)
		assert.Equal(t, tt.ok, ok, "count %d", tt.count)
		if tt.ok {
			assert.Equal(t, tt.want, street, "count %d", tt.count)
		}
	}
}

func TestStreetNames(t *testing.T) {
	assert.Equal(t, "preflop", Preflop.String())
	assert.Equal(t, "River", River.Title())

	street, err := ParseStreet("TURN")
	require.NoError(t, err)
	assert.Equal(t, Turn, street)

	_, err = ParseStreet("showdown")
	assert.Error(t, err)
}

func TestParseActionType(t *testing.T) {
	action, err := ParseActionType("bet")
	require.NoError(t, err)
	assert.Equal(t, Raise, action)

	action, err = ParseActionType(" BB ")
	require.NoError(t, err)
	assert.Equal(t, BigBlind, action)
	assert.Equal(t, "bb", action.String())

	_, err = ParseActionType("allin")
	assert.Error(t, err)
}

func TestStreetDisplay(t *testing.T) {
	g := &Game{}
	assert.Equal(t, "Preflop", g.StreetDisplay())

	g.TableCards = cards("AS", "KD", "2C")
	assert.Equal(t, "Flop", g.StreetDisplay())

	g.TableCards = cards("AS", "KD")
	assert.Equal(t, "ERROR (2 cards)", g.StreetDisplay())
}

func TestMoveHistory(t *testing.T) {
	g := NewFromSnapshot("hand-1", NewSnapshotBuilder().Build(), time.Now())
	assert.Equal(t, "No moves", g.MovesSummary())
	assert.False(t, g.HasMoves())

	g.AddMoves(Preflop,
		Move{Seat: 2, Action: Raise, Amount: 3, Street: Preflop, TotalContribution: 3},
		Move{Seat: 3, Action: Fold, Street: Preflop},
		Move{Seat: 1, Action: Call, Amount: 3, Street: Preflop, TotalContribution: 3},
	)
	g.AddMoves(River, Move{Seat: 1, Action: Check, Street: River})
	g.AddMoves(Turn)

	assert.True(t, g.HasMoves())
	assert.Equal(t, "4 moves across Preflop, River", g.MovesSummary())
	assert.Len(t, g.AllMoves(), 4)
	assert.Equal(t, map[int]float64{1: 3, 2: 3}, g.TotalBidsForStreet(Preflop))
	assert.Equal(t, map[int]float64{1: 3, 2: 3}, g.CurrentStreetTotalBids())

	g.ResetMoveHistory()
	assert.Empty(t, g.AllMoves())
}

func TestHeroPosition(t *testing.T) {
	g := &Game{Positions: map[int]detection.Detection{}}
	assert.Equal(t, "", g.HeroPosition())

	g.Positions[1] = detection.New("btn_low", 0, 0, 1, 1, 0.9)
	assert.Equal(t, "BTN", g.HeroPosition())

	g.Positions[2] = detection.New("NO", 0, 0, 1, 1, 0.9)
	assert.Len(t, g.ActivePositions(), 1)
}

func TestCardStrings(t *testing.T) {
	g := &Game{PlayerCards: cards("4S", "6D", "JH"), TableCards: cards("10C")}
	assert.Equal(t, "4S6DJH", g.PlayerCardsString())
	assert.Equal(t, "10C", g.TableCardsString())
	assert.True(t, g.HasCards())
}

func TestCloneIsDeep(t *testing.T) {
	g := &Game{
		PlayerCards: cards("AS"),
		Positions:   map[int]detection.Detection{1: card("BTN")},
		MoveHistory: map[Street][]Move{Preflop: {{Seat: 1, Action: Call}}},
	}
	clone := g.Clone()
	clone.PlayerCards[0] = card("KD")
	clone.Positions[2] = card("SB")
	clone.MoveHistory[Preflop][0].Seat = 4

	assert.Equal(t, "AS", g.PlayerCards[0].Label)
	assert.Len(t, g.Positions, 1)
	assert.Equal(t, 1, g.MoveHistory[Preflop][0].Seat)
}

func TestSnapshotBuilderDefaults(t *testing.T) {
	snap := NewSnapshotBuilder().Build()

	assert.NotNil(t, snap.PlayerCards())
	assert.NotNil(t, snap.TableCards())
	assert.NotNil(t, snap.Positions())
	assert.NotNil(t, snap.Bids())
	assert.NotNil(t, snap.Actions())
	assert.False(t, snap.IsPlayerMove())
	assert.False(t, snap.HasCards())
	assert.False(t, snap.HasActions())
}

func TestSnapshotIsImmutable(t *testing.T) {
	board := cards("AS", "KD", "2C")
	positions := map[int]detection.Detection{1: card("BTN")}

	b := NewSnapshotBuilder().WithTableCards(board).WithPositions(positions).WithPlayerMove(true)
	snap := b.Build()

	board[0] = card("QH")
	positions[2] = card("SB")
	b.WithTableCards(nil)

	got := snap.TableCards()
	got[1] = card("3S")

	assert.Equal(t, "AS", snap.TableCards()[0].Label)
	assert.Equal(t, "KD", snap.TableCards()[1].Label)
	assert.Len(t, snap.Positions(), 1)
	assert.True(t, snap.IsPlayerMove())
	assert.Contains(t, snap.String(), "status=MOVE")
}
