package webserver

import (
	"errors"
	"net/http"

	"github.com/nantokaworks/draw-bot/internal/draw"
)

// handleDrawNow runs a draw for the room immediately.
func handleDrawNow(w http.ResponseWriter, r *http.Request, roomID int64) {
	req := struct {
		Count int `json:"count"`
	}{Count: draw.DefaultDraws}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	result, err := deps.Engine.RunDraw(r.Context(), roomID, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, draw.ErrInvalidCount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, draw.ErrRoomNotFound):
			http.Error(w, "Room not found", http.StatusNotFound)
		case errors.Is(err, draw.ErrChannelNotConfigured):
			http.Error(w, "Room has no output channel configured", http.StatusBadRequest)
		case errors.Is(err, draw.ErrNoEntries):
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "No entries to draw from",
				"room_id": roomID,
				"winners": []draw.Winner{},
			})
		default:
			http.Error(w, "Draw failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
