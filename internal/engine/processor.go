package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/omahareader/internal/capture"
	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/fileutil"
	"github.com/lox/omahareader/internal/game"
	"github.com/lox/omahareader/internal/reconcile"
	"github.com/lox/omahareader/internal/streets"
	"github.com/lox/omahareader/internal/vision"
)

// ProcessorConfig tunes the per-table pipeline.
type ProcessorConfig struct {
	// TrackMoves segments detected actions into streets and records them
	// as the game's move history.
	TrackMoves bool
	// DumpDir, when set, receives a JSON record of every processed
	// snapshot under a per-minute folder.
	DumpDir string
}

// Processor runs detection and reconciliation for one table window.
type Processor struct {
	detector   vision.Detector
	reconciler *reconcile.Reconciler
	clock      quartz.Clock
	cfg        ProcessorConfig
	logger     *log.Logger
}

func NewProcessor(detector vision.Detector, reconciler *reconcile.Reconciler, clock quartz.Clock, cfg ProcessorConfig, logger *log.Logger) *Processor {
	return &Processor{
		detector:   detector,
		reconciler: reconciler,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.WithPrefix("processor"),
	}
}

// Process detects the window's contents and merges them into the table's
// game. Detection runs before anything touches the store, so a failed
// detection leaves the table as it was.
func (p *Processor) Process(ctx context.Context, w capture.Window) error {
	res, err := p.detector.Detect(ctx, w)
	if err != nil {
		return fmt.Errorf("detect %s: %w", w.TableID, err)
	}

	isNewGame := p.reconciler.IsNewGame(w.TableID, res.PlayerCards, res.Positions)
	snap := res.Snapshot()
	isNewStreet := p.reconciler.IsNewStreet(w.TableID, snap)

	g := p.reconciler.Merge(w.TableID, snap, isNewGame, isNewStreet)
	p.logger.Debug("merged snapshot", "table", w.TableID, "snapshot", snap, "new_game", isNewGame, "new_street", isNewStreet)

	if p.cfg.TrackMoves && snap.HasActions() {
		perSeat := streets.FromDetections(snap.Actions(), g.Positions)
		history := streets.Moves(streets.Build(perSeat), streets.SeatNumbers(g.Positions))
		if updated, ok := p.reconciler.RecordMoves(w.TableID, history); ok {
			g = updated
		}
	}

	if p.cfg.DumpDir != "" {
		if err := p.dump(w.TableID, g, snap); err != nil {
			p.logger.Warn("failed to write snapshot dump", "table", w.TableID, "error", err)
		}
	}
	return nil
}

type snapshotDump struct {
	TableID    string           `json:"table_id"`
	HandID     string           `json:"hand_id"`
	CapturedAt time.Time        `json:"captured_at"`
	Player     []string         `json:"player_cards"`
	Table      []string         `json:"table_cards"`
	Positions  map[int]string   `json:"positions"`
	Actions    map[int][]string `json:"actions"`
	Bids       map[int]string   `json:"bids"`
	PlayerMove bool             `json:"player_move"`
	Street     string           `json:"street"`
	Moves      string           `json:"moves"`
}

func (p *Processor) dump(tableID string, g *game.Game, snap game.Snapshot) error {
	now := p.clock.Now()
	d := snapshotDump{
		TableID:    tableID,
		HandID:     g.HandID,
		CapturedAt: now,
		Player:     labels(snap.PlayerCards()),
		Table:      labels(snap.TableCards()),
		Positions:  make(map[int]string),
		Actions:    make(map[int][]string),
		Bids:       make(map[int]string),
		PlayerMove: snap.IsPlayerMove(),
		Street:     g.StreetDisplay(),
		Moves:      g.MovesSummary(),
	}
	for seat, pos := range snap.Positions() {
		d.Positions[seat] = pos.PositionName()
	}
	for seat, acts := range snap.Actions() {
		d.Actions[seat] = labels(acts)
	}
	for seat, bid := range snap.Bids() {
		d.Bids[seat] = bid.AmountText
	}

	dir := filepath.Join(p.cfg.DumpDir, now.Format("2006-01-02_15-04"))
	_, err := fileutil.WriteJSON(dir, fmt.Sprintf("%s_%s", tableID, now.Format("150405.000")), d)
	return err
}

func labels(ds []detection.Detection) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Label
	}
	return out
}
