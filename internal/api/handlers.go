package api

import (
	"encoding/json"
	"net/http"
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Published())
}

// scoreEntry is one scoreboard row.
type scoreEntry struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

func (h *routerHandlers) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	players := h.engine.Scoreboard()

	rows := make([]scoreEntry, 0, len(players))
	for _, p := range players {
		rows = append(rows, scoreEntry{ID: p.ID, Color: p.Color, Score: p.Score})
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Arena())
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"players": h.engine.PlayerCount(),
	})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
