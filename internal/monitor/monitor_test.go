package monitor

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/readmodel"
)

func table(id, street string) readmodel.Table {
	return readmodel.Table{
		WindowName: id,
		Street:     street,
		PlayerCards: []readmodel.Card{
			{Name: "AH", Display: "A♥"},
			{Name: "KS", Display: "K♠"},
		},
		HeroPosition: "BTN",
	}
}

func TestConsolePrintsChangedTablesOnly(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithColorProfile(termenv.Ascii))

	first := table("t1", "Preflop")
	require.NoError(t, c.Handle(readmodel.Payload{Tables: []readmodel.Table{first, table("t2", "Flop")}}))

	out := buf.String()
	assert.Contains(t, out, "t1")
	assert.Contains(t, out, "t2")
	assert.Contains(t, out, "Preflop")
	assert.Contains(t, out, "as BTN")
	assert.Contains(t, out, "A♥ K♠")
	assert.NotContains(t, out, "\x1b[", "ascii profile has no escape codes")

	buf.Reset()
	changed := table("t2", "Turn")
	changed.MovesSummary = "Flop: P1:bet"
	require.NoError(t, c.Handle(readmodel.Payload{Tables: []readmodel.Table{first, changed}}))

	out = buf.String()
	assert.NotContains(t, out, "t1", "unchanged table is not reprinted")
	assert.Contains(t, out, "Turn")
	assert.Contains(t, out, "Flop: P1:bet")
}

func TestConsoleReportsClosedTables(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithColorProfile(termenv.Ascii))

	require.NoError(t, c.Handle(readmodel.Payload{Tables: []readmodel.Table{table("t1", "Flop")}}))
	buf.Reset()

	require.NoError(t, c.Handle(readmodel.Payload{Tables: []readmodel.Table{}}))
	assert.Equal(t, "t1 closed\n", buf.String())

	buf.Reset()
	require.NoError(t, c.Handle(readmodel.Payload{}))
	assert.Empty(t, buf.String())
}

func TestConsoleOptionalSections(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithColorProfile(termenv.Ascii))

	tbl := table("t1", "Flop")
	tbl.TableCards = []readmodel.Card{{Display: "2♦"}, {Display: "7♣"}, {Display: "9♥"}}
	tbl.HeroHand = "Pair of Aces"
	tbl.PreflopAdvice = &readmodel.Advice{Action: "R100", Combo: "AhKs7d2c", Summary: "R100 81.2% | EV 1.23"}
	tbl.SolverLink = "https://example.test/solve"

	require.NoError(t, c.Handle(readmodel.Payload{Tables: []readmodel.Table{tbl}}))
	out := buf.String()
	assert.Contains(t, out, "2♦ 7♣ 9♥")
	assert.Contains(t, out, "Pair of Aces")
	assert.Contains(t, out, "R100 AhKs7d2c (R100 81.2% | EV 1.23)")
	assert.Contains(t, out, "https://example.test/solve")
}
