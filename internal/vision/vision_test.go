package vision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/capture"
)

const manifest = `{
  "player_cards": [
    {"label": "AS", "x": 10, "y": 20, "w": 30, "h": 40, "confidence": 0.97},
    {"label": "KD", "x": 40, "y": 20, "w": 30, "h": 40, "confidence": 0.95}
  ],
  "table_cards": [{"label": "2C", "x": 100, "y": 50, "w": 30, "h": 40, "confidence": 0.9}],
  "positions": {
    "1": {"label": "BTN", "x": 0, "y": 0, "w": 10, "h": 10, "confidence": 0.8},
    "9": {"label": "SB", "x": 0, "y": 0, "w": 10, "h": 10, "confidence": 0.8}
  },
  "bids": {"2": {"amount": "1.5", "x": 5, "y": 5, "w": 10, "h": 4}},
  "actions": {"3": [{"label": "raise"}, {"label": "call"}], "4": []},
  "player_move": true
}`

func TestReplayDetector(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table_1.json"), []byte(manifest), 0o644))

	res, err := NewReplayDetector().Detect(context.Background(), capture.Window{
		TableID: "table_1",
		Path:    filepath.Join(dir, "table_1.png"),
	})
	require.NoError(t, err)

	require.Len(t, res.PlayerCards, 2)
	assert.Equal(t, "AS", res.PlayerCards[0].Label)
	assert.Equal(t, 25, res.PlayerCards[0].Center.X)
	assert.Len(t, res.TableCards, 1)
	assert.Len(t, res.Positions, 1, "seat 9 dropped")
	assert.Equal(t, "BTN", res.Positions[1].Label)

	amount, err := res.Bids[2].Amount()
	require.NoError(t, err)
	assert.Equal(t, 1.5, amount)

	require.Len(t, res.Actions[3], 2)
	assert.NotContains(t, res.Actions, 4)
	assert.True(t, res.IsPlayerMove)

	snap := res.Snapshot()
	assert.True(t, snap.HasCards())
	assert.True(t, snap.HasActions())
	assert.True(t, snap.IsPlayerMove())
}

func TestReplayDetectorMissingManifest(t *testing.T) {
	d := NewReplayDetector()

	_, err := d.Detect(context.Background(), capture.Window{TableID: "x", Path: filepath.Join(t.TempDir(), "x.png")})
	assert.ErrorIs(t, err, ErrNoManifest)

	_, err = d.Detect(context.Background(), capture.Window{TableID: "x"})
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestReplayDetectorBadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t.json"), []byte("{"), 0o644))

	_, err := NewReplayDetector().Detect(context.Background(), capture.Window{TableID: "t", Path: filepath.Join(dir, "t.png")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoManifest)
}

func TestManifestPath(t *testing.T) {
	assert.Equal(t, "/tmp/a/table.json", ManifestPath("/tmp/a/table.png"))
}
