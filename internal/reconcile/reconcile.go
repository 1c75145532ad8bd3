// Package reconcile decides how each fresh snapshot of a table relates to
// the game already stored for it.
package reconcile

import (
	"github.com/charmbracelet/log"

	"github.com/lox/omahareader/internal/detection"
	"github.com/lox/omahareader/internal/game"
	"github.com/lox/omahareader/internal/store"
)

// Reconciler merges snapshots into the store.
type Reconciler struct {
	store  *store.Store
	logger *log.Logger
}

func New(s *store.Store, logger *log.Logger) *Reconciler {
	return &Reconciler{store: s, logger: logger.WithPrefix("reconcile")}
}

// IsNewGame reports whether the snapshot starts a new hand. A hand is only
// considered new when both the hero's cards and the seat positions have
// changed; either one alone is treated as detection noise within the same
// hand.
func (r *Reconciler) IsNewGame(tableID string, playerCards []detection.Detection, positions map[int]detection.Detection) bool {
	existing, ok := r.store.Get(tableID)
	if !ok {
		return true
	}

	isNew := !detection.EqualLists(playerCards, existing.PlayerCards) &&
		!detection.EqualSeats(positions, existing.Positions)

	r.logger.Info("new game check", "table", tableID, "new", isNew)
	return isNew
}

// IsNewStreet reports whether the community cards differ from the stored
// game.
func (r *Reconciler) IsNewStreet(tableID string, snap game.Snapshot) bool {
	existing, ok := r.store.Get(tableID)
	if !ok {
		return true
	}
	return !detection.EqualLists(existing.TableCards, snap.TableCards())
}

// Merge folds a snapshot into the table's game and returns a copy of the
// result.
//
// A new game, or a table with no game yet, is seeded entirely from the
// snapshot. Otherwise the table cards are replaced on a new street, the
// hero's cards are always replaced, and positions are replaced only when
// the snapshot has some. The move history is left alone.
func (r *Reconciler) Merge(tableID string, snap game.Snapshot, isNewGame, isNewStreet bool) *game.Game {
	if isNewGame {
		r.logger.Info("created new game", "table", tableID)
		return r.store.CreateFromSnapshot(tableID, snap)
	}

	updated, ok := r.store.Update(tableID, func(g *game.Game) {
		if isNewStreet {
			g.TableCards = snap.TableCards()
		}
		g.PlayerCards = snap.PlayerCards()
		if snap.HasPositions() {
			g.Positions = snap.Positions()
		}
	})
	if ok {
		if isNewStreet {
			r.logger.Info("updated table cards for new street", "table", tableID, "street", updated.StreetDisplay())
		}
		return updated
	}

	r.logger.Info("created missing game", "table", tableID)
	return r.store.CreateFromSnapshot(tableID, snap)
}

// RecordMoves replaces the move history of the table's game. It reports
// false when the table has no game.
func (r *Reconciler) RecordMoves(tableID string, history map[game.Street][]game.Move) (*game.Game, bool) {
	updated, ok := r.store.Update(tableID, func(g *game.Game) {
		g.SetMoveHistory(history)
	})
	if ok {
		r.logger.Debug("recorded moves", "table", tableID, "summary", updated.MovesSummary())
	}
	return updated, ok
}
