package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/draw"
	"sort"
)

const hashSize = 100

// Hash fingerprints an image: it is downsampled to 100x100 by nearest
// neighbour and the first 16 hex characters of the SHA-256 of the RGBA
// pixels are returned. Small capture noise below the sampling grid does not
// change the hash.
func Hash(img image.Image) string {
	src := image.NewRGBA(img.Bounds())
	draw.Draw(src, src.Bounds(), img, img.Bounds().Min, draw.Src)

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, hashSize, hashSize))
	if b.Dx() > 0 && b.Dy() > 0 {
		for y := 0; y < hashSize; y++ {
			sy := b.Min.Y + y*b.Dy()/hashSize
			for x := 0; x < hashSize; x++ {
				sx := b.Min.X + x*b.Dx()/hashSize
				si := src.PixOffset(sx, sy)
				di := dst.PixOffset(x, y)
				copy(dst.Pix[di:di+4], src.Pix[si:si+4])
			}
		}
	}

	sum := sha256.Sum256(dst.Pix)
	return hex.EncodeToString(sum[:])[:16]
}

// Changes is the result of comparing one capture against the previous.
type Changes struct {
	Changed []Window
	Removed []string
	// Failed windows were seen but unreadable. Their previous hash is kept
	// so they are neither changed nor removed.
	Failed []Window
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Changed) == 0 && len(c.Removed) == 0
}

// Tracker remembers the hash of every window from the previous capture.
// It is not safe for concurrent use; the poll loop owns it.
type Tracker struct {
	hashes map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{hashes: make(map[string]string)}
}

// Changes returns the windows whose hash differs from the previous capture,
// including new ones, and the table IDs that are no longer captured. An
// empty capture removes every known table. Windows with an error or no
// image are reported in Failed.
func (t *Tracker) Changes(windows []Window) Changes {
	current := make(map[string]string, len(windows))
	var changes Changes

	for _, w := range windows {
		if w.Err != nil || w.Image == nil {
			changes.Failed = append(changes.Failed, w)
			if prev, ok := t.hashes[w.TableID]; ok {
				current[w.TableID] = prev
			}
			continue
		}
		h := Hash(w.Image)
		current[w.TableID] = h
		if prev, ok := t.hashes[w.TableID]; !ok || prev != h {
			changes.Changed = append(changes.Changed, w)
		}
	}
	for id := range t.hashes {
		if _, ok := current[id]; !ok {
			changes.Removed = append(changes.Removed, id)
		}
	}
	sort.Strings(changes.Removed)

	t.hashes = current
	return changes
}
