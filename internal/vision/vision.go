// Package vision turns table captures into detections.
//
// Template matching itself happens outside this program. The detector
// implemented here replays detections recorded next to each capture, which
// is how tables are fed in from the external matcher and how recorded
// sessions are replayed for debugging.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/omahareader/internal/capture"
	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
)

// ErrNoManifest is returned when a capture has no recorded detections.
var ErrNoManifest = errors.New("no detection manifest")

// Result is everything detected in one window.
type Result struct {
	PlayerCards  []detection.Detection
	TableCards   []detection.Detection
	Positions    map[int]detection.Detection
	Bids         map[int]detection.BidDetection
	Actions      map[int][]detection.Detection
	IsPlayerMove bool
}

// Snapshot builds an immutable snapshot from the result.
func (r Result) Snapshot() game.Snapshot {
	return game.NewSnapshotBuilder().
		WithPlayerCards(r.PlayerCards).
		WithTableCards(r.TableCards).
		WithPositions(r.Positions).
		WithBids(r.Bids).
		WithActions(r.Actions).
		WithPlayerMove(r.IsPlayerMove).
		Build()
}

// Detector detects cards, positions, bids and actions in a window.
type Detector interface {
	Detect(ctx context.Context, w capture.Window) (Result, error)
}

// Box is a recorded detection.
type Box struct {
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Confidence float64 `json:"confidence"`
}

func (b Box) detection() detection.Detection {
	return detection.New(b.Label, b.X, b.Y, b.W, b.H, b.Confidence)
}

// Bid is a recorded bet amount.
type Bid struct {
	Amount string `json:"amount"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
}

// Manifest is the on-disk form of a Result, stored as <capture stem>.json.
type Manifest struct {
	PlayerCards []Box         `json:"player_cards"`
	TableCards  []Box         `json:"table_cards"`
	Positions   map[int]Box   `json:"positions"`
	Bids        map[int]Bid   `json:"bids"`
	Actions     map[int][]Box `json:"actions"`
	PlayerMove  bool          `json:"player_move"`
}

// Result converts the manifest. Seats outside 1-6 are dropped.
func (m Manifest) Result() Result {
	r := Result{
		PlayerCards:  boxes(m.PlayerCards),
		TableCards:   boxes(m.TableCards),
		Positions:    make(map[int]detection.Detection, len(m.Positions)),
		Bids:         make(map[int]detection.BidDetection, len(m.Bids)),
		Actions:      make(map[int][]detection.Detection, len(m.Actions)),
		IsPlayerMove: m.PlayerMove,
	}
	for seat, box := range m.Positions {
		if validSeat(seat) {
			r.Positions[seat] = box.detection()
		}
	}
	for seat, bid := range m.Bids {
		if !validSeat(seat) {
			continue
		}
		d := detection.New("", bid.X, bid.Y, bid.W, bid.H, 0)
		r.Bids[seat] = detection.BidDetection{
			Seat:       seat,
			AmountText: bid.Amount,
			Bounds:     d.Bounds,
			Center:     d.Center,
		}
	}
	for seat, list := range m.Actions {
		if validSeat(seat) && len(list) > 0 {
			r.Actions[seat] = boxes(list)
		}
	}
	return r
}

func boxes(in []Box) []detection.Detection {
	out := make([]detection.Detection, 0, len(in))
	for _, b := range in {
		out = append(out, b.detection())
	}
	return out
}

func validSeat(seat int) bool {
	return seat >= 1 && seat <= 6
}

// ReplayDetector reads detections from a JSON manifest stored next to each
// capture.
type ReplayDetector struct{}

func NewReplayDetector() *ReplayDetector {
	return &ReplayDetector{}
}

// ManifestPath returns where the manifest for a capture lives.
func ManifestPath(capturePath string) string {
	return strings.TrimSuffix(capturePath, filepath.Ext(capturePath)) + ".json"
}

func (d *ReplayDetector) Detect(ctx context.Context, w capture.Window) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if w.Path == "" {
		return Result{}, fmt.Errorf("%w: window %q has no capture path", ErrNoManifest, w.TableID)
	}

	path := ManifestPath(w.Path)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: %s", ErrNoManifest, path)
	}
	if err != nil {
		return Result{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Result{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m.Result(), nil
}
