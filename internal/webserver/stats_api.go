package webserver

import (
	"net/http"

	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// handleUserStats reports per-user entry and win totals for the room.
func handleUserStats(w http.ResponseWriter, r *http.Request, roomID int64) {
	stats, err := localdb.UserStatsForRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read stats", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []types.UserStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"users":   stats,
	})
}

// handleChoiceStats reports how often each choice was picked and won.
func handleChoiceStats(w http.ResponseWriter, r *http.Request, roomID int64) {
	stats, err := localdb.ChoiceStatsForRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read stats", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []types.ChoiceStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"choices": stats,
	})
}

// handleHistoryRename renames a choice across the room's history, merging
// its stats into the new name.
func handleHistoryRename(w http.ResponseWriter, r *http.Request, roomID int64) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	from := localdb.NormalizeChoice(req.From)
	to := localdb.NormalizeChoice(req.To)
	if from == "" || to == "" {
		http.Error(w, "Both from and to are required", http.StatusBadRequest)
		return
	}
	if from == to {
		http.Error(w, "from and to are the same name", http.StatusBadRequest)
		return
	}

	renamed, err := localdb.RenameHistoryChoice(roomID, from, to)
	if err != nil {
		http.Error(w, "Failed to rename history", http.StatusInternalServerError)
		return
	}

	logger.Info("History choice renamed",
		zap.Int64("room_id", roomID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("rows", renamed))
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"from":    from,
		"to":      to,
		"renamed": renamed,
	})
}
