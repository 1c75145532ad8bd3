package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lox/omahareader/internal/streets"
)

const maxStreetsBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

// handleTables returns every tracked table with the last update time.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SnapshotAll())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		BackendCaptureInterval: int(s.opts.Interval.Seconds()),
		ShowTableCards:         s.opts.Display.TableCards,
		ShowPositions:          s.opts.Display.Positions,
		ShowMoves:              s.opts.Display.Moves,
		ShowSolverLink:         s.opts.Display.SolverLink,
	})
}

// handleStreets segments a posted map of seat -> actions. mode=simple
// selects the check-counting segmenter.
func (s *Server) handleStreets(w http.ResponseWriter, r *http.Request) {
	var perSeat map[string][]streets.Action
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStreetsBody))
	if err := dec.Decode(&perSeat); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid actions: %v", err))
		return
	}

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "full":
		writeJSON(w, http.StatusOK, streets.Segment(perSeat))
	case "simple":
		writeJSON(w, http.StatusOK, streets.SegmentSimple(perSeat))
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
