package engine

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/omahareader/internal/capture"
	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
	"github.com/lox/omahareader/internal/notify"
	"github.com/lox/omahareader/internal/readmodel"
	"github.com/lox/omahareader/internal/reconcile"
	"github.com/lox/omahareader/internal/store"
	"github.com/lox/omahareader/internal/vision"
)

type fakeSource struct {
	mu      sync.Mutex
	windows []capture.Window
	err     error
	calls   chan struct{}
}

func (f *fakeSource) set(windows ...capture.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = windows
}

func (f *fakeSource) Capture(context.Context) ([]capture.Window, error) {
	f.mu.Lock()
	windows, err := f.windows, f.err
	f.mu.Unlock()
	if f.calls != nil {
		defer func() { f.calls <- struct{}{} }()
	}
	return windows, err
}

type fakeDetector struct {
	results map[string]vision.Result
	panics  map[string]bool
}

func (f *fakeDetector) Detect(_ context.Context, w capture.Window) (vision.Result, error) {
	if f.panics[w.TableID] {
		panic("detector crashed")
	}
	res, ok := f.results[w.TableID]
	if !ok {
		return vision.Result{}, vision.ErrNoManifest
	}
	return res, nil
}

func window(id string, shade uint8) capture.Window {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return capture.Window{TableID: id, Image: img}
}

func dets(labels ...string) []detection.Detection {
	out := make([]detection.Detection, len(labels))
	for i, label := range labels {
		out[i] = detection.New(label, 0, 0, 10, 10, 0.9)
	}
	return out
}

type harness struct {
	engine   *Engine
	source   *fakeSource
	detector *fakeDetector
	store    *store.Store
	clock    *quartz.Mock
	payloads []readmodel.Payload
	mu       sync.Mutex
}

func newHarness(t *testing.T, cfg ProcessorConfig) *harness {
	t.Helper()
	logger := log.New(io.Discard)
	clock := quartz.NewMock(t)

	h := &harness{
		source:   &fakeSource{},
		detector: &fakeDetector{results: map[string]vision.Result{}, panics: map[string]bool{}},
		clock:    clock,
	}
	h.store = store.New(clock, nil)
	notifier := notify.New(logger)
	notifier.Subscribe("test", notify.SubscriberFunc(func(p readmodel.Payload) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.payloads = append(h.payloads, p)
	}))

	processor := NewProcessor(h.detector, reconcile.New(h.store, logger), clock, cfg, logger)
	h.engine = New(h.source, processor, h.store, notifier, clock, time.Second, logger)
	return h
}

func (h *harness) notifications() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

func TestRunCycleNotifiesOncePerChange(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})
	ctx := context.Background()

	h.detector.results["t1"] = vision.Result{PlayerCards: dets("AS", "KD", "2C", "3H")}
	h.detector.results["t2"] = vision.Result{PlayerCards: dets("QS", "QD", "4C", "5H")}
	h.source.set(window("t1", 10), window("t2", 20))

	changed, err := h.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, h.notifications())
	assert.Len(t, h.payloads[0].Tables, 2)
	assert.Equal(t, readmodel.UpdateType, h.payloads[0].Type)

	changed, err = h.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "unchanged capture")
	assert.Equal(t, 1, h.notifications())

	h.source.set(window("t1", 10))
	changed, err = h.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.True(t, changed, "t2 removed")
	assert.Equal(t, 2, h.notifications())
	assert.Equal(t, []string{"t1"}, h.store.TableIDs())
}

func TestRunCycleIsolatesTableFailures(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})

	h.detector.results["good"] = vision.Result{PlayerCards: dets("AS")}
	h.detector.panics["crash"] = true
	h.source.set(window("missing", 1), window("crash", 2), window("good", 3))

	changed, err := h.engine.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"good"}, h.store.TableIDs())
	assert.Equal(t, 1, h.notifications())
}

func TestRunCycleKeepsUnreadableTable(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})
	ctx := context.Background()

	h.detector.results["t1"] = vision.Result{PlayerCards: dets("AS", "KD", "2C", "3H")}
	h.detector.results["t2"] = vision.Result{PlayerCards: dets("QS", "QD", "4C", "5H")}
	h.source.set(window("t1", 10), window("t2", 20))
	_, err := h.engine.RunCycle(ctx)
	require.NoError(t, err)
	before, ok := h.store.Get("t2")
	require.True(t, ok)

	h.source.set(window("t1", 10), capture.Window{TableID: "t2", Err: errors.New("unexpected EOF")})
	changed, err := h.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, h.notifications())

	after, ok := h.store.Get("t2")
	require.True(t, ok)
	assert.Equal(t, before.HandID, after.HandID)

	// Readable again and unchanged: still nothing to do.
	h.source.set(window("t1", 10), window("t2", 20))
	changed, err = h.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRunCycleCaptureFailure(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})
	h.source.err = errors.New("no display")

	changed, err := h.engine.RunCycle(context.Background())
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Zero(t, h.notifications())
}

func TestRunCycleEmptyCaptureRemovesEverything(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})
	h.detector.results["t1"] = vision.Result{PlayerCards: dets("AS")}
	h.source.set(window("t1", 5))
	_, err := h.engine.RunCycle(context.Background())
	require.NoError(t, err)

	h.source.set()
	changed, err := h.engine.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, h.store.Len())
	assert.Empty(t, h.payloads[1].Tables)
}

func TestProcessorRecordsMoves(t *testing.T) {
	dump := t.TempDir()
	h := newHarness(t, ProcessorConfig{TrackMoves: true, DumpDir: dump})

	positions := map[int]detection.Detection{
		1: detection.New("BTN", 0, 0, 1, 1, 0.9),
		2: detection.New("SB", 0, 0, 1, 1, 0.9),
		3: detection.New("BB", 0, 0, 1, 1, 0.9),
	}
	h.detector.results["t1"] = vision.Result{
		PlayerCards: dets("AS", "KD", "2C", "3H"),
		Positions:   positions,
		Actions: map[int][]detection.Detection{
			2: dets("raise", "check"),
			3: dets("call", "bet"),
			1: dets("call", "fold"),
		},
	}
	h.source.set(window("t1", 9))

	_, err := h.engine.RunCycle(context.Background())
	require.NoError(t, err)

	g, ok := h.store.Get("t1")
	require.True(t, ok)
	require.Len(t, g.MovesFor(game.Preflop), 3)
	assert.Equal(t, game.Raise, g.MovesFor(game.Preflop)[0].Action)
	assert.Equal(t, 2, g.MovesFor(game.Preflop)[0].Seat)
	assert.Len(t, g.MovesFor(game.Flop), 3)

	var files []string
	require.NoError(t, filepath.WalkDir(dump, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	assert.Len(t, files, 1)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	h := newHarness(t, ProcessorConfig{})
	h.source.calls = make(chan struct{}, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runCtx, stop := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(runCtx) }()

	waitCall := func() {
		t.Helper()
		select {
		case <-h.source.calls:
		case <-ctx.Done():
			t.Fatal("timed out waiting for a cycle")
		}
	}

	waitCall()
	h.clock.Advance(time.Second).MustWait(ctx)
	waitCall()

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after cancellation")
	}
}
