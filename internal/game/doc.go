// Package game models the state of one observed table.
//
// A Snapshot is everything the vision layer saw on a table during a single
// polling cycle. A Game is the accumulated state of that table across cycles:
// the hero's hole cards, the community cards, the seat positions and the
// reconstructed move history keyed by Street.
//
// # Streets
//
// The street is never detected directly. It is derived from the number of
// community cards on the table:
//
//	0 -> Preflop
//	3 -> Flop
//	4 -> Turn
//	5 -> River
//
// Any other count is an invalid state. It is surfaced as a display string
// rather than an error because a half-dealt board is a transient capture
// artefact, not a failure.
//
// # Building snapshots
//
// Snapshots are immutable and built incrementally:
//
//	snap := game.NewSnapshotBuilder().
//		WithPlayerCards(cards).
//		WithTableCards(board).
//		WithPositions(positions).
//		Build()
//
// Fields that are never set read back as empty collections.
package game
