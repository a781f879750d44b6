package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nantokaworks/draw-bot/internal/env"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/scheduler"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// handleRoomJoin registers the room in the registry (with sentinel
// configuration) and marks it live.
func handleRoomJoin(w http.ResponseWriter, r *http.Request, roomID int64) {
	exists, err := localdb.RoomExists(roomID)
	if err != nil {
		http.Error(w, "Failed to check room", http.StatusInternalServerError)
		return
	}
	if !exists {
		logger.Info("Adding room to registry", zap.Int64("room_id", roomID))
		if err := localdb.CreateRoom(roomID, types.Unset, types.Unset, types.Unset); err != nil {
			http.Error(w, "Failed to create room", http.StatusInternalServerError)
			return
		}
	}

	deps.Roster.Join(roomID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Room joined",
		"room_id": roomID,
	})
}

// handleRoomLeave stops the room's autodraw, removes its configuration and
// marks it not-live.
func handleRoomLeave(w http.ResponseWriter, r *http.Request, roomID int64) {
	deps.Supervisor.Stop(roomID)
	deps.Roster.Leave(roomID)

	logger.Info("Deleting room from registry", zap.Int64("room_id", roomID))
	if err := localdb.DeleteRoom(roomID); err != nil {
		http.Error(w, "Failed to delete room", http.StatusInternalServerError)
		return
	}
	if err := localdb.DeleteAllEntries(roomID); err != nil {
		logger.Warn("Failed to clear entries for left room", zap.Int64("room_id", roomID), zap.Error(err))
	}
	if err := localdb.DeleteEnrollmentsForRoom(roomID); err != nil {
		logger.Warn("Failed to clear enrollments for left room", zap.Int64("room_id", roomID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Room left",
		"room_id": roomID,
	})
}

// handleRoomListen sets the room's output channel, creating the room
// record when needed.
func handleRoomListen(w http.ResponseWriter, r *http.Request, roomID int64) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChannelID <= 0 {
		http.Error(w, "Invalid channel_id", http.StatusBadRequest)
		return
	}

	exists, err := localdb.RoomExists(roomID)
	if err != nil {
		http.Error(w, "Failed to check room", http.StatusInternalServerError)
		return
	}

	if exists {
		if err := localdb.UpdateRoom(roomID, &req.ChannelID, nil, nil); err != nil {
			http.Error(w, "Unable to set listening channel", http.StatusInternalServerError)
			return
		}
	} else {
		if err := localdb.CreateRoom(roomID, req.ChannelID, types.Unset, types.Unset); err != nil {
			http.Error(w, "Unable to set listening channel", http.StatusInternalServerError)
			return
		}
	}

	deps.Roster.Join(roomID)

	// A newly configured channel may complete the autodraw configuration.
	if room, err := localdb.ReadRoom(roomID); err == nil && room != nil {
		deps.Supervisor.Start(*room)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Listening channel configured",
		"room_id":    roomID,
		"channel_id": req.ChannelID,
	})
}

// handleAutodraw inspects, sets or disables the room's weekly schedule.
func handleAutodraw(w http.ResponseWriter, r *http.Request, roomID int64) {
	switch r.Method {
	case http.MethodGet:
		handleAutodrawInspect(w, roomID)
	case http.MethodPut:
		handleAutodrawSet(w, r, roomID)
	case http.MethodDelete:
		handleAutodrawDisable(w, roomID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleAutodrawInspect(w http.ResponseWriter, roomID int64) {
	room, err := localdb.ReadRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read room", http.StatusInternalServerError)
		return
	}
	if room == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	payload := map[string]any{
		"room_id":          room.ID,
		"channel_id":       room.ChannelID,
		"autodraw_weekday": room.AutodrawWeekday,
		"autodraw_hour":    room.AutodrawHour,
		"enabled":          room.AutodrawEnabled(),
		"timezone":         env.Value.TimezoneName,
	}
	if room.AutodrawEnabled() {
		next := scheduler.NextFireTime(time.Now(), room.AutodrawWeekday, room.AutodrawHour, env.Value.Location)
		payload["next_fire"] = next.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, payload)
}

func handleAutodrawSet(w http.ResponseWriter, r *http.Request, roomID int64) {
	var req struct {
		Weekday int `json:"weekday"`
		Hour    int `json:"hour"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "Invalid weekday: must be 0 (Monday) to 6 (Sunday)", http.StatusBadRequest)
		return
	}
	if req.Hour < 0 || req.Hour > 23 {
		http.Error(w, "Invalid hour: must be 0 to 23", http.StatusBadRequest)
		return
	}

	room, err := localdb.ReadRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read room", http.StatusInternalServerError)
		return
	}
	if room == nil {
		http.Error(w, "Room not configured. Set a listening channel first.", http.StatusBadRequest)
		return
	}

	if err := localdb.UpdateRoom(roomID, nil, &req.Weekday, &req.Hour); err != nil {
		http.Error(w, "Unable to update schedule", http.StatusInternalServerError)
		return
	}

	room.AutodrawWeekday = req.Weekday
	room.AutodrawHour = req.Hour
	deps.Supervisor.Start(*room)

	payload := map[string]any{
		"message": fmt.Sprintf("Autodraw scheduled for weekday %d at %02d:00 (%s)",
			req.Weekday, req.Hour, env.Value.TimezoneName),
		"room_id": roomID,
		"enabled": room.AutodrawEnabled(),
	}
	if !room.AutodrawEnabled() {
		payload["message"] = "Schedule saved, but autodraw stays off until a listening channel is set."
	}
	writeJSON(w, http.StatusOK, payload)
}

func handleAutodrawDisable(w http.ResponseWriter, roomID int64) {
	room, err := localdb.ReadRoom(roomID)
	if err != nil {
		http.Error(w, "Failed to read room", http.StatusInternalServerError)
		return
	}
	if room == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	disabled := types.Unset
	if err := localdb.UpdateRoom(roomID, nil, &disabled, &disabled); err != nil {
		http.Error(w, "Unable to disable autodraw", http.StatusInternalServerError)
		return
	}

	deps.Supervisor.Stop(roomID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Autodraw disabled",
		"room_id": roomID,
	})
}
