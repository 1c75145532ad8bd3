// Package links builds FlopHero strategy browser links for a game.
package links

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lox/omahareader/internal/cards"
	"github.com/lox/omahareader/internal/game"
)

const DefaultBaseURL = "https://app.flophero.com/omaha/cash/strategies"

var defaultParams = map[string]string{
	"research":       "full_tree",
	"site":           "GGPoker",
	"bb":             "10",
	"blindStructure": "Regular",
	"players":        "6",
	"openRaise":      "3.5",
	"stack":          "100",
	"topRanks":       "",
	"suitLevel":      "",
}

var streetParams = map[game.Street]string{
	game.Preflop: "preflopActions",
	game.Flop:    "flopActions",
	game.Turn:    "turnActions",
	game.River:   "riverActions",
}

var actionCodes = map[game.ActionType]string{
	game.Fold:       "F",
	game.Call:       "C",
	game.Raise:      "R",
	game.Check:      "X",
	game.SmallBlind: "SB",
	game.BigBlind:   "BB",
}

// FlopHero builds solver links.
type FlopHero struct {
	BaseURL string
}

func NewFlopHero() *FlopHero {
	return &FlopHero{BaseURL: DefaultBaseURL}
}

// Link implements readmodel.LinkBuilder.
func (f *FlopHero) Link(g *game.Game) (string, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	for k, v := range defaultParams {
		q.Set(k, v)
	}
	if board := Board(g); board != "" {
		q.Set("boardCards", board)
	}
	for _, street := range game.Streets {
		q.Set(streetParams[street], Actions(g.MovesFor(street)))
	}
	q.Set("players", strconv.Itoa(len(g.ActivePositions())))

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Board renders the community cards as FlopHero expects them, e.g.
// "Ah7d2c". Unreadable labels are skipped.
func Board(g *game.Game) string {
	var sb strings.Builder
	for _, d := range g.TableCards {
		if c, err := cards.Short(d.Label); err == nil {
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// Actions renders moves as a comma separated action string such as
// "R3.5,F,C". Raises carry their amount when it is known.
func Actions(moves []game.Move) string {
	codes := make([]string, 0, len(moves))
	for _, m := range moves {
		code, ok := actionCodes[m.Action]
		if !ok {
			continue
		}
		if m.Action == game.Raise && m.Amount > 0 {
			code += strconv.FormatFloat(m.Amount, 'f', -1, 64)
		}
		codes = append(codes, code)
	}
	return strings.Join(codes, ",")
}
