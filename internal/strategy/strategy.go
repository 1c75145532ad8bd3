// Package strategy looks up preflop advice for the button open spot: the
// hero is on the button and every earlier position has folded.
package strategy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/omahareader/internal/cards"
	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
	"github.com/lox/omahareader/internal/readmodel"
)

const (
	scenario = "BTN open (folded to hero)"
	action   = "RAISE 100"
)

// Row is one combo from a strategy export.
type Row struct {
	Weight float64
	EV     float64
}

// Table maps four card combos such as "AsKd7h2c" to their strategy.
type Table map[string]Row

// ParseCSV reads a strategy export with combo, weight and ev columns. Rows
// with a blank combo or unparseable numbers are skipped.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"combo", "weight", "ev"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	field := func(record []string, name string) string {
		if i := cols[name]; i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	table := make(Table)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		combo := field(record, "combo")
		if combo == "" {
			continue
		}
		weight, err := strconv.ParseFloat(field(record, "weight"), 64)
		if err != nil {
			continue
		}
		ev, err := strconv.ParseFloat(field(record, "ev"), 64)
		if err != nil {
			continue
		}
		table[combo] = Row{Weight: weight, EV: ev}
	}
	return table, nil
}

// Service answers button open lookups from a CSV file. The file is loaded
// on first use and cached, including failures, for the life of the
// service.
type Service struct {
	path   string
	logger *log.Logger

	mu     sync.Mutex
	loaded bool
	table  Table
}

func NewService(path string, logger *log.Logger) *Service {
	return &Service{path: path, logger: logger.WithPrefix("strategy")}
}

// Advise implements readmodel.Advisor.
func (s *Service) Advise(g *game.Game) *readmodel.Advice {
	if street, ok := g.Street(); !ok || street != game.Preflop {
		return nil
	}
	if g.HeroPosition() != "BTN" || !FoldedToButton(g.Positions) {
		return nil
	}

	table := s.load()
	if len(table) == 0 {
		return nil
	}
	combo, ok := FindCombo(g.PlayerCards, table)
	if !ok {
		return nil
	}

	row := table[combo]
	return &readmodel.Advice{
		Scenario: scenario,
		Action:   action,
		Combo:    combo,
		Weight:   round(row.Weight, 4),
		EV:       round(row.EV, 3),
		Source:   filepath.Base(s.path),
		Summary:  fmt.Sprintf("R100 %.1f%% | EV %.2f", row.Weight*100, row.EV),
	}
}

// Preload reads the CSV now so that later lookups, which run while the
// table store is locked, never touch the filesystem. It returns the number
// of combos available.
func (s *Service) Preload() int {
	return len(s.load())
}

func (s *Service) load() Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.table
	}
	s.loaded = true

	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		s.logger.Warn("strategy CSV unavailable", "path", s.path, "error", err)
		return nil
	}
	defer f.Close()

	table, err := ParseCSV(f)
	if err != nil {
		s.logger.Error("failed to load strategy CSV", "path", s.path, "error", err)
		return nil
	}
	s.table = table
	s.logger.Info("loaded strategy rows", "rows", len(table), "path", s.path)
	return table
}

// FoldedToButton reports whether EP, MP and CO are all marked as folded.
func FoldedToButton(positions map[int]detection.Detection) bool {
	labels := make(map[string]bool, len(positions))
	for _, p := range positions {
		labels[strings.ToUpper(strings.TrimSpace(p.PositionName()))] = true
	}
	return labels["EP_FOLD"] && labels["MP_FOLD"] && labels["CO_FOLD"]
}

// FindCombo picks the four most confident hole cards and returns the
// ordering of them that the table knows.
func FindCombo(hole []detection.Detection, table Table) (string, bool) {
	if len(hole) < 4 {
		return "", false
	}
	best := make([]detection.Detection, len(hole))
	copy(best, hole)
	sort.SliceStable(best, func(i, j int) bool { return best[i].Confidence > best[j].Confidence })

	short := make([]string, 4)
	for i, d := range best[:4] {
		c, err := cards.Short(d.Label)
		if err != nil {
			return "", false
		}
		short[i] = c
	}

	found := ""
	permute(short, 0, func(p []string) bool {
		combo := strings.Join(p, "")
		if _, ok := table[combo]; ok {
			found = combo
			return true
		}
		return false
	})
	return found, found != ""
}

// permute calls fn with each ordering of s until fn returns true.
func permute(s []string, k int, fn func([]string) bool) bool {
	if k == len(s) {
		return fn(s)
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		if permute(s, k+1, fn) {
			return true
		}
		s[k], s[i] = s[i], s[k]
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
