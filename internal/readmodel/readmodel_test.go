package readmodel

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
)

type stubAdvisor struct{ advice *Advice }

func (s stubAdvisor) Advise(*game.Game) *Advice { return s.advice }

type stubLinks struct {
	link string
	err  error
}

func (s stubLinks) Link(*game.Game) (string, error) { return s.link, s.err }

func detections(labels ...string) []detection.Detection {
	out := make([]detection.Detection, len(labels))
	for i, label := range labels {
		out[i] = detection.New(label, 0, 0, 10, 10, 0.91234)
	}
	return out
}

func sampleGame() *game.Game {
	g := &game.Game{
		PlayerCards: detections("AH", "KH", "2C", "3D"),
		TableCards:  detections("5H", "7H", "9H"),
		Positions: map[int]detection.Detection{
			3: detection.New("CO_FOLD", 0, 0, 1, 1, 0.9),
			1: detection.New("btn", 0, 0, 1, 1, 0.9),
		},
	}
	g.AddMoves(game.Preflop,
		game.Move{Seat: 3, Action: game.Fold, Street: game.Preflop},
		game.Move{Seat: 1, Action: game.Raise, Amount: 3.5, Street: game.Preflop, TotalContribution: 3.5},
	)
	return g
}

func TestTable(t *testing.T) {
	r := NewRenderer(DefaultDisplay(),
		WithAdvisor(stubAdvisor{advice: &Advice{Action: "RAISE 100"}}),
		WithLinks(stubLinks{link: "https://example.test/x"}),
	)

	table := r.Table("t1", sampleGame())

	assert.Equal(t, "t1", table.WindowName)
	assert.Equal(t, "AHKH2C3D", table.PlayerCardsString)
	assert.Equal(t, "5H7H9H", table.TableCardsString)
	require.Len(t, table.PlayerCards, 4)
	assert.Equal(t, Card{Name: "AH", Display: "A♥", Score: 0.912}, table.PlayerCards[0])
	assert.Equal(t, "Flop", table.Street)
	assert.Equal(t, "BTN", table.HeroPosition)
	assert.NotEmpty(t, table.HeroHand)
	assert.Equal(t, "RAISE 100", table.PreflopAdvice.Action)
	assert.Equal(t, "https://example.test/x", table.SolverLink)
	assert.Equal(t, "2 moves across Preflop", table.MovesSummary)

	require.Len(t, table.Positions, 2)
	assert.Equal(t, Position{Player: 1, PlayerLabel: "Player 1", Name: "btn", IsMainPlayer: true}, table.Positions[0])
	assert.Equal(t, 3, table.Positions[1].Player)

	require.Len(t, table.Moves, 1)
	assert.Equal(t, "Preflop", table.Moves[0].Street)
	assert.Equal(t, Move{PlayerNumber: 1, PlayerLabel: "P1", Action: "raise", Amount: 3.5, TotalContribution: 3.5}, table.Moves[0].Moves[1])
}

func TestTableDisplayFlags(t *testing.T) {
	r := NewRenderer(Display{}, WithLinks(stubLinks{link: "https://example.test/x"}))

	table := r.Table("t1", sampleGame())
	assert.Empty(t, table.TableCardsString)
	assert.Empty(t, table.TableCards)
	assert.Empty(t, table.Positions)
	assert.Empty(t, table.Moves)
	assert.Empty(t, table.SolverLink)
	assert.Nil(t, table.PreflopAdvice)

	// Street and hero position are always shown.
	assert.Equal(t, "Flop", table.Street)
	assert.Equal(t, "BTN", table.HeroPosition)
}

func TestTableInvalidStreetAndLinkError(t *testing.T) {
	r := NewRenderer(DefaultDisplay(), WithLinks(stubLinks{err: errors.New("boom")}))

	g := sampleGame()
	g.TableCards = detections("5H", "7H")
	table := r.Table("t1", g)
	assert.Equal(t, "ERROR (2 cards)", table.Street)
	assert.Empty(t, table.SolverLink)
	assert.Empty(t, table.HeroHand)
}

func TestPayloadJSON(t *testing.T) {
	r := NewRenderer(DefaultDisplay())
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p := r.Payload(map[string]*game.Game{"b": {}, "a": {}}, &ts)
	p.Type = UpdateType
	require.Len(t, p.Tables, 2)
	assert.Equal(t, "a", p.Tables[0].WindowName)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "detection_update", decoded["type"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["last_update"])

	first := decoded["tables"].([]any)[0].(map[string]any)
	assert.Equal(t, "Preflop", first["street"])
	assert.Equal(t, "No moves", first["moves_summary"])
	assert.Equal(t, []any{}, first["player_cards"])
	assert.Nil(t, first["preflop_advice"])
}
