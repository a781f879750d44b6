package localdb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// RoomExists reports whether a room record exists.
func RoomExists(id int64) (bool, error) {
	db := GetDB()
	if db == nil {
		return false, fmt.Errorf("database not initialized")
	}

	var one int
	err := db.QueryRow(`SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check room existence", zap.Error(err), zap.Int64("room_id", id))
		return false, fmt.Errorf("failed to check room existence: %w", err)
	}
	return true, nil
}

// CreateRoom inserts a room record. Unset fields use types.Unset (-1).
func CreateRoom(id, channelID int64, autodrawWeekday, autodrawHour int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(
		`INSERT INTO rooms (id, channel_id, autodraw_weekday, autodraw_hour) VALUES (?, ?, ?, ?)`,
		id, channelID, autodrawWeekday, autodrawHour)
	if err != nil {
		logger.Error("Failed to create room", zap.Error(err), zap.Int64("room_id", id))
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// ReadRoom returns one room, or nil when it does not exist.
func ReadRoom(id int64) (*types.Room, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var room types.Room
	err := db.QueryRow(
		`SELECT id, channel_id, autodraw_weekday, autodraw_hour FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.ChannelID, &room.AutodrawWeekday, &room.AutodrawHour)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read room", zap.Error(err), zap.Int64("room_id", id))
		return nil, fmt.Errorf("failed to read room: %w", err)
	}
	return &room, nil
}

// ReadAllRooms returns every room record.
func ReadAllRooms() ([]types.Room, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`SELECT id, channel_id, autodraw_weekday, autodraw_hour FROM rooms`)
	if err != nil {
		logger.Error("Failed to read rooms", zap.Error(err))
		return nil, fmt.Errorf("failed to read rooms: %w", err)
	}
	defer rows.Close()

	rooms := []types.Room{}
	for rows.Next() {
		var room types.Room
		if err := rows.Scan(&room.ID, &room.ChannelID, &room.AutodrawWeekday, &room.AutodrawHour); err != nil {
			logger.Error("Failed to scan room", zap.Error(err))
			continue
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating rooms", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// UpdateRoom updates the given fields of a room; nil fields are unchanged.
func UpdateRoom(id int64, channelID *int64, autodrawWeekday, autodrawHour *int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	sets := []string{}
	params := []any{}
	if channelID != nil {
		sets = append(sets, "channel_id = ?")
		params = append(params, *channelID)
	}
	if autodrawWeekday != nil {
		sets = append(sets, "autodraw_weekday = ?")
		params = append(params, *autodrawWeekday)
	}
	if autodrawHour != nil {
		sets = append(sets, "autodraw_hour = ?")
		params = append(params, *autodrawHour)
	}
	if len(sets) == 0 {
		return nil
	}
	params = append(params, id)

	_, err := db.Exec(`UPDATE rooms SET `+strings.Join(sets, ", ")+` WHERE id = ?`, params...)
	if err != nil {
		logger.Error("Failed to update room", zap.Error(err), zap.Int64("room_id", id))
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

// DeleteRoom removes a room record.
func DeleteRoom(id int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		logger.Error("Failed to delete room", zap.Error(err), zap.Int64("room_id", id))
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}
