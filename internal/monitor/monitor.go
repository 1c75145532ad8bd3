// Package monitor prints detection updates to a terminal. It is registered
// with the change notifier alongside the WebSocket broadcaster.
package monitor

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/omahareader/internal/readmodel"
)

type styles struct {
	header  lipgloss.Style
	street  lipgloss.Style
	label   lipgloss.Style
	red     lipgloss.Style
	black   lipgloss.Style
	advice  lipgloss.Style
	link    lipgloss.Style
	removed lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Bold(true).Padding(0, 1),
		street:  r.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("#626262")),
		red:     r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		black:   r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true),
		advice:  r.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		link:    r.NewStyle().Foreground(lipgloss.Color("#5DADE2")).Underline(true),
		removed: r.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
	}
}

// Option configures a Console.
type Option func(*Console)

// WithColorProfile forces a colour profile instead of detecting one from
// the writer. termenv.Ascii disables styling entirely.
func WithColorProfile(p termenv.Profile) Option {
	return func(c *Console) {
		c.renderer.SetColorProfile(p)
	}
}

// Formatter renders read-model tables as styled text blocks.
type Formatter struct {
	styles styles
}

// NewFormatter creates a formatter using r's colour profile.
func NewFormatter(r *lipgloss.Renderer) *Formatter {
	return &Formatter{styles: newStyles(r)}
}

// Console writes one block per table whose rendering changed since the
// previous update, plus a line for every table that went away.
type Console struct {
	writer    io.Writer
	renderer  *lipgloss.Renderer
	formatter *Formatter

	mu   sync.Mutex
	last map[string]string
}

// New creates a console monitor. A nil writer means stdout.
func New(writer io.Writer, opts ...Option) *Console {
	if writer == nil {
		writer = os.Stdout
	}
	c := &Console{
		writer:   writer,
		renderer: lipgloss.NewRenderer(writer),
		last:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.formatter = NewFormatter(c.renderer)
	return c
}

// Handle renders a payload. It has the signature of a notifier subscriber.
func (c *Console) Handle(p readmodel.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out strings.Builder
	seen := make(map[string]bool, len(p.Tables))
	for _, t := range p.Tables {
		seen[t.WindowName] = true
		block := c.formatter.Table(t)
		if c.last[t.WindowName] == block {
			continue
		}
		c.last[t.WindowName] = block
		out.WriteString(block)
		out.WriteString("\n")
	}

	var gone []string
	for id := range c.last {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		delete(c.last, id)
		out.WriteString(c.formatter.styles.removed.Render(fmt.Sprintf("%s closed", id)))
		out.WriteString("\n")
	}

	if out.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(c.writer, out.String())
	return err
}

// Table renders one table as a header line followed by indented fields.
func (f *Formatter) Table(t readmodel.Table) string {
	s := f.styles
	var b strings.Builder

	b.WriteString(s.header.Render(t.WindowName))
	b.WriteString(" ")
	b.WriteString(s.street.Render(t.Street))
	if t.HeroPosition != "" {
		b.WriteString(" ")
		b.WriteString(s.label.Render("as"))
		b.WriteString(" ")
		b.WriteString(t.HeroPosition)
	}
	b.WriteString("\n")

	f.field(&b, "hand", f.cards(t.PlayerCards))
	if len(t.TableCards) > 0 {
		f.field(&b, "board", f.cards(t.TableCards))
	}
	if t.HeroHand != "" {
		f.field(&b, "made", t.HeroHand)
	}
	if t.MovesSummary != "" {
		f.field(&b, "moves", t.MovesSummary)
	}
	if t.PreflopAdvice != nil {
		f.field(&b, "advice", s.advice.Render(fmt.Sprintf("%s %s (%s)", t.PreflopAdvice.Action, t.PreflopAdvice.Combo, t.PreflopAdvice.Summary)))
	}
	if t.SolverLink != "" {
		f.field(&b, "solver", s.link.Render(t.SolverLink))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) field(b *strings.Builder, name, value string) {
	b.WriteString("  ")
	b.WriteString(f.styles.label.Render(fmt.Sprintf("%-7s", name)))
	b.WriteString(value)
	b.WriteString("\n")
}

func (f *Formatter) cards(cards []readmodel.Card) string {
	if len(cards) == 0 {
		return f.styles.label.Render("-")
	}
	out := make([]string, len(cards))
	for i, card := range cards {
		style := f.styles.black
		if strings.ContainsAny(card.Display, "♥♦") {
			style = f.styles.red
		}
		out[i] = style.Render(card.Display)
	}
	return strings.Join(out, " ")
}
