package webserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// handleEntries accepts a user's weekly entry (POST) or lists the room's
// current entries (GET).
func handleEntries(w http.ResponseWriter, r *http.Request, roomID int64) {
	switch r.Method {
	case http.MethodPost:
		handleEntrySubmit(w, r, roomID)
	case http.MethodGet:
		handleEntryList(w, roomID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleEntrySubmit(w http.ResponseWriter, r *http.Request, roomID int64) {
	var req struct {
		UserID       int64  `json:"user_id"`
		FirstChoice  string `json:"first_choice"`
		SecondChoice string `json:"second_choice"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	first := localdb.NormalizeChoice(req.FirstChoice)
	second := localdb.NormalizeChoice(req.SecondChoice)
	if req.UserID <= 0 {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	if first == "" {
		http.Error(w, "First choice is required", http.StatusBadRequest)
		return
	}
	if second == first {
		second = ""
	}

	room, err := localdb.ReadRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read room", http.StatusInternalServerError)
		return
	}
	if room == nil || room.ChannelID == types.Unset {
		http.Error(w, "Room not configured. Set a listening channel first.", http.StatusBadRequest)
		return
	}

	if err := localdb.EnsureUser(req.UserID); err != nil {
		http.Error(w, "Failed to record user", http.StatusInternalServerError)
		return
	}
	if err := localdb.EnsureEnrollment(roomID, req.UserID); err != nil {
		http.Error(w, "Failed to record enrollment", http.StatusInternalServerError)
		return
	}
	if err := localdb.ReplaceEntries(roomID, req.UserID, first, second); err != nil {
		http.Error(w, "Failed to save entry", http.StatusInternalServerError)
		return
	}

	logger.Info("Entry recorded",
		zap.Int64("room_id", roomID),
		zap.Int64("user_id", req.UserID),
		zap.String("first", first),
		zap.String("second", second))

	message := "You're in this week's draw with \"" + first + "\""
	if second != "" {
		message += " and \"" + second + "\""
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"room_id": roomID,
		"user_id": req.UserID,
	})
}

func handleEntryList(w http.ResponseWriter, roomID int64) {
	entries, err := localdb.ReadAllEntries(roomID)
	if err != nil {
		http.Error(w, "Failed to read entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"entries": entries,
	})
}

// handleEntryDelete removes all of one user's choices for the week.
func handleEntryDelete(w http.ResponseWriter, r *http.Request, roomID int64, rawUserID string) {
	userID, err := strconv.ParseInt(strings.TrimSpace(rawUserID), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := localdb.DeleteEntriesForUser(roomID, userID); err != nil {
		http.Error(w, "Failed to delete entries", http.StatusInternalServerError)
		return
	}

	logger.Info("Entries withdrawn",
		zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Entries withdrawn",
		"room_id": roomID,
		"user_id": userID,
	})
}
