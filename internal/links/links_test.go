package links

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
)

func TestLink(t *testing.T) {
	g := &game.Game{
		TableCards: []detection.Detection{
			detection.New("AH", 0, 0, 1, 1, 0.9),
			detection.New("10D", 0, 0, 1, 1, 0.9),
			detection.New("2C", 0, 0, 1, 1, 0.9),
		},
		Positions: map[int]detection.Detection{
			1: detection.New("BTN", 0, 0, 1, 1, 0.9),
			2: detection.New("SB", 0, 0, 1, 1, 0.9),
			3: detection.New("NO", 0, 0, 1, 1, 0.9),
		},
	}
	g.AddMoves(game.Preflop,
		game.Move{Seat: 2, Action: game.Raise, Amount: 3.5},
		game.Move{Seat: 1, Action: game.Call, Amount: 3.5},
	)
	g.AddMoves(game.Flop, game.Move{Seat: 2, Action: game.Check}, game.Move{Seat: 1, Action: game.Fold})

	link, err := NewFlopHero().Link(g)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "app.flophero.com", u.Host)
	assert.Equal(t, "/omaha/cash/strategies", u.Path)

	q := u.Query()
	assert.Equal(t, "AhTd2c", q.Get("boardCards"))
	assert.Equal(t, "R3.5,C", q.Get("preflopActions"))
	assert.Equal(t, "X,F", q.Get("flopActions"))
	assert.Equal(t, "", q.Get("turnActions"))
	assert.True(t, q.Has("riverActions"))
	assert.Equal(t, "2", q.Get("players"))
	assert.Equal(t, "GGPoker", q.Get("site"))
}

func TestLinkBadBaseURL(t *testing.T) {
	_, err := (&FlopHero{BaseURL: "://nope"}).Link(&game.Game{})
	assert.Error(t, err)
}

func TestActions(t *testing.T) {
	assert.Equal(t, "SB,BB,R,R10", Actions([]game.Move{
		{Action: game.SmallBlind},
		{Action: game.BigBlind},
		{Action: game.Raise},
		{Action: game.Raise, Amount: 10},
	}))
	assert.Empty(t, Actions(nil))
}
