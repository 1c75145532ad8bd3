// Package detection holds the labelled, scored, spatially-located results the
// vision layer produces for a table capture.
package detection

import (
	"image"
	"math"
	"strconv"
	"strings"
)

// confidenceTolerance is the largest confidence difference at which two
// detections with the same label still count as the same observation.
const confidenceTolerance = 0.001

// Detection is a single labelled template match.
type Detection struct {
	Label      string
	Center     image.Point
	Bounds     image.Rectangle
	Confidence float64
	Scale      float64
}

// New creates a detection from a bounding box given as x, y, width, height.
// The center is derived from the box.
func New(label string, x, y, w, h int, confidence float64) Detection {
	return Detection{
		Label:      label,
		Center:     image.Pt(x+w/2, y+h/2),
		Bounds:     image.Rect(x, y, x+w, y+h),
		Confidence: confidence,
		Scale:      1.0,
	}
}

// Equal reports whether two detections describe the same observation. Only
// the label and confidence take part; position is ignored.
func (d Detection) Equal(other Detection) bool {
	return d.Label == other.Label && math.Abs(d.Confidence-other.Confidence) < confidenceTolerance
}

// PositionName returns the label interpreted as a seat position name.
func (d Detection) PositionName() string {
	return d.Label
}

var suitSymbols = map[string]string{
	"S": "♠",
	"H": "♥",
	"D": "♦",
	"C": "♣",
}

// FormatUnicode renders a card label such as "10h" as "10♥".
func (d Detection) FormatUnicode() string {
	if d.Label == "" {
		return "UNKNOWN"
	}
	if len(d.Label) < 2 {
		return d.Label
	}

	rank := d.Label[:len(d.Label)-1]
	suit := strings.ToUpper(d.Label[len(d.Label)-1:])
	if symbol, ok := suitSymbols[suit]; ok {
		suit = symbol
	}
	return rank + suit
}

// EqualLists compares two ordered detection lists element by element.
func EqualLists(a, b []Detection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// EqualSeats compares two seat-keyed detection maps.
func EqualSeats(a, b map[int]Detection) bool {
	if len(a) != len(b) {
		return false
	}
	for seat, da := range a {
		db, ok := b[seat]
		if !ok || !da.Equal(db) {
			return false
		}
	}
	return true
}

// positionSuffixes mark folded or short-stacked variants of a base position.
var positionSuffixes = []string{"_FOLD", "_LOW"}

// NormalizePosition strips the folded/short-stack suffix from a position
// label and returns the canonical upper-case name, e.g. "btn_fold" -> "BTN".
func NormalizePosition(label string) string {
	name := strings.ToUpper(strings.TrimSpace(label))
	for _, suffix := range positionSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// BidDetection is a bet amount read next to a seat.
type BidDetection struct {
	Seat       int
	AmountText string
	Bounds     image.Rectangle
	Center     image.Point
}

// Amount parses the detected amount text.
func (b BidDetection) Amount() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(b.AmountText), 64)
}

// FormatAmount renders an amount without a trailing ".0" for whole numbers.
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return strconv.FormatInt(int64(amount), 10)
	}
	return strconv.FormatFloat(amount, 'f', 1, 64)
}
