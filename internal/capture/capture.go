// Package capture supplies table window images and filters out the ones
// that have not changed since the previous cycle.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Window is one captured table window. Err is set, and Image is nil, when
// the window was seen but could not be read this cycle.
type Window struct {
	TableID string
	Image   image.Image
	Path    string
	Err     error
}

func (w Window) String() string {
	if w.Image == nil {
		return fmt.Sprintf("window %q (unreadable) %s", w.TableID, w.Path)
	}
	b := w.Image.Bounds()
	return fmt.Sprintf("window %q (%dx%d) %s", w.TableID, b.Dx(), b.Dy(), w.Path)
}

// Source captures every currently visible table window.
type Source interface {
	Capture(ctx context.Context) ([]Window, error)
}

// DirectorySource treats each PNG in a directory as a table window, named
// after the file stem. A file that fails to decode is returned with Err set;
// Capture only fails when no file could be read. Detection result overlays and full screen grabs that
// share the directory are skipped.
type DirectorySource struct {
	Dir string
}

func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{Dir: dir}
}

func (s *DirectorySource) Capture(ctx context.Context) ([]Window, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read capture dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isWindowImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	windows := make([]Window, 0, len(names))
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.Dir, name)
		w := Window{TableID: strings.TrimSuffix(name, filepath.Ext(name)), Path: path}
		w.Image, w.Err = decodePNG(path)
		if w.Err != nil {
			errs = append(errs, w.Err)
		}
		windows = append(windows, w)
	}
	if len(errs) > 0 && len(errs) == len(windows) {
		return nil, errors.Join(errs...)
	}
	return windows, nil
}

func isWindowImage(name string) bool {
	lower := strings.ToLower(name)
	if filepath.Ext(lower) != ".png" {
		return false
	}
	return !strings.HasSuffix(lower, "_result.png") && lower != "full_screen.png"
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
