// Package readmodel renders games into the JSON view served to browsers,
// websocket subscribers and the console monitor.
package readmodel

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/lox/omahareader/internal/cards"
	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
)

// UpdateType tags push notifications.
const UpdateType = "detection_update"

// Card is a detected card as shown to users.
type Card struct {
	Name    string  `json:"name"`
	Display string  `json:"display"`
	Score   float64 `json:"score"`
}

// Position is a detected seat position.
type Position struct {
	Player       int    `json:"player"`
	PlayerLabel  string `json:"player_label"`
	Name         string `json:"name"`
	IsMainPlayer bool   `json:"is_main_player"`
}

// Move is one recorded action.
type Move struct {
	PlayerNumber      int     `json:"player_number"`
	PlayerLabel       string  `json:"player_label"`
	Action            string  `json:"action"`
	Amount            float64 `json:"amount"`
	TotalContribution float64 `json:"total_contribution"`
}

// StreetMoves groups the moves of a single street.
type StreetMoves struct {
	Street string `json:"street"`
	Moves  []Move `json:"moves"`
}

// Advice is a preflop recommendation for the hero.
type Advice struct {
	Scenario string  `json:"scenario"`
	Action   string  `json:"action"`
	Combo    string  `json:"combo"`
	Weight   float64 `json:"weight"`
	EV       float64 `json:"ev"`
	Source   string  `json:"source"`
	Summary  string  `json:"summary"`
}

// Table is the serialized view of one game.
type Table struct {
	WindowName        string        `json:"window_name"`
	PlayerCardsString string        `json:"player_cards_string"`
	TableCardsString  string        `json:"table_cards_string"`
	PlayerCards       []Card        `json:"player_cards"`
	TableCards        []Card        `json:"table_cards"`
	Positions         []Position    `json:"positions"`
	HeroPosition      string        `json:"hero_position,omitempty"`
	HeroHand          string        `json:"hero_hand,omitempty"`
	PreflopAdvice     *Advice       `json:"preflop_advice"`
	Moves             []StreetMoves `json:"moves"`
	MovesSummary      string        `json:"moves_summary"`
	Street            string        `json:"street"`
	SolverLink        string        `json:"solver_link,omitempty"`
}

// Payload is the aggregate state of every table. Type is only set on
// push notifications.
type Payload struct {
	Type       string     `json:"type,omitempty"`
	Tables     []Table    `json:"tables"`
	LastUpdate *time.Time `json:"last_update"`
}

// Advisor produces preflop advice for a game, or nil when it has none.
type Advisor interface {
	Advise(g *game.Game) *Advice
}

// LinkBuilder produces an external solver link for a game.
type LinkBuilder interface {
	Link(g *game.Game) (string, error)
}

// Display controls which sections of the view are populated.
type Display struct {
	TableCards bool
	Positions  bool
	Moves      bool
	SolverLink bool
}

// DefaultDisplay shows everything.
func DefaultDisplay() Display {
	return Display{TableCards: true, Positions: true, Moves: true, SolverLink: true}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAdvisor attaches a preflop advisor.
func WithAdvisor(a Advisor) Option {
	return func(r *Renderer) { r.advisor = a }
}

// WithLinks attaches a solver link builder.
func WithLinks(l LinkBuilder) Option {
	return func(r *Renderer) { r.links = l }
}

// Renderer turns games into Tables. It holds no per-call state and is safe
// for concurrent use if its collaborators are.
type Renderer struct {
	display Display
	advisor Advisor
	links   LinkBuilder
}

func NewRenderer(display Display, opts ...Option) *Renderer {
	r := &Renderer{display: display}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Payload renders every game, ordered by table ID.
func (r *Renderer) Payload(games map[string]*game.Game, lastUpdate *time.Time) Payload {
	ids := make([]string, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tables := make([]Table, 0, len(ids))
	for _, id := range ids {
		tables = append(tables, r.Table(id, games[id]))
	}
	return Payload{Tables: tables, LastUpdate: lastUpdate}
}

// Table renders one game.
func (r *Renderer) Table(tableID string, g *game.Game) Table {
	t := Table{
		WindowName:        tableID,
		PlayerCardsString: g.PlayerCardsString(),
		PlayerCards:       formatCards(g.PlayerCards),
		TableCards:        []Card{},
		Positions:         []Position{},
		HeroPosition:      g.HeroPosition(),
		HeroHand:          cards.DescribeHero(g.PlayerCards, g.TableCards),
		Moves:             []StreetMoves{},
		MovesSummary:      g.MovesSummary(),
		Street:            g.StreetDisplay(),
	}

	if r.display.TableCards {
		t.TableCardsString = g.TableCardsString()
		t.TableCards = formatCards(g.TableCards)
	}
	if r.display.Positions {
		t.Positions = formatPositions(g.Positions)
	}
	if r.display.Moves {
		t.Moves = formatMoves(g)
	}
	if r.advisor != nil {
		t.PreflopAdvice = r.advisor.Advise(g)
	}
	if r.display.SolverLink && r.links != nil && (g.HasCards() || g.HasMoves()) {
		if link, err := r.links.Link(g); err == nil {
			t.SolverLink = link
		}
	}
	return t
}

func formatCards(detections []detection.Detection) []Card {
	out := make([]Card, 0, len(detections))
	for _, d := range detections {
		if d.Label == "" {
			continue
		}
		out = append(out, Card{
			Name:    d.Label,
			Display: d.FormatUnicode(),
			Score:   math.Round(d.Confidence*1000) / 1000,
		})
	}
	return out
}

func formatPositions(positions map[int]detection.Detection) []Position {
	seats := make([]int, 0, len(positions))
	for seat := range positions {
		seats = append(seats, seat)
	}
	slices.Sort(seats)

	out := make([]Position, 0, len(seats))
	for _, seat := range seats {
		out = append(out, Position{
			Player:       seat,
			PlayerLabel:  fmt.Sprintf("Player %d", seat),
			Name:         positions[seat].PositionName(),
			IsMainPlayer: seat == game.HeroSeat,
		})
	}
	return out
}

func formatMoves(g *game.Game) []StreetMoves {
	out := []StreetMoves{}
	for _, street := range game.Streets {
		moves := g.MovesFor(street)
		if len(moves) == 0 {
			continue
		}
		sm := StreetMoves{Street: street.Title(), Moves: make([]Move, 0, len(moves))}
		for _, m := range moves {
			sm.Moves = append(sm.Moves, Move{
				PlayerNumber:      m.Seat,
				PlayerLabel:       fmt.Sprintf("P%d", m.Seat),
				Action:            m.Action.String(),
				Amount:            m.Amount,
				TotalContribution: m.TotalContribution,
			})
		}
		out = append(out, sm)
	}
	return out
}
