package localdb

import (
	"fmt"
	"time"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// AppendHistory writes one outcome row for one entry of a completed run.
func AppendHistory(name string, won bool, roomID, userID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(
		`INSERT INTO entry_hist (name, won, room_id, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, won, roomID, userID, time.Now().UTC())
	if err != nil {
		logger.Error("Failed to append history", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ReadAllHistory returns every history record for a room, oldest first.
func ReadAllHistory(roomID int64) ([]types.HistoryRecord, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(
		`SELECT name, won, room_id, user_id, created_at FROM entry_hist WHERE room_id = ? ORDER BY created_at, rowid`,
		roomID)
	if err != nil {
		logger.Error("Failed to read history", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	records := []types.HistoryRecord{}
	for rows.Next() {
		var rec types.HistoryRecord
		if err := rows.Scan(&rec.Name, &rec.Won, &rec.RoomID, &rec.UserID, &rec.CreatedAt); err != nil {
			logger.Error("Failed to scan history record", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating history", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

// RenameHistoryChoice retroactively renames a choice across a room's
// history. Returns the number of rewritten rows.
func RenameHistoryChoice(roomID int64, from, to string) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	res, err := db.Exec(
		`UPDATE entry_hist SET name = ? WHERE room_id = ? AND name = ?`,
		NormalizeChoice(to), roomID, NormalizeChoice(from))
	if err != nil {
		logger.Error("Failed to rename history choice", zap.Error(err),
			zap.Int64("room_id", roomID), zap.String("from", from), zap.String("to", to))
		return 0, fmt.Errorf("failed to rename history choice: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count renamed history rows: %w", err)
	}
	return affected, nil
}

// UserStatsForRoom aggregates per-user entered/won counts and last win.
func UserStatsForRoom(roomID int64) ([]types.UserStats, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT user_id,
		       COUNT(*),
		       SUM(won),
		       COALESCE(MAX(CASE WHEN won THEN created_at END), '')
		FROM entry_hist
		WHERE room_id = ?
		GROUP BY user_id
		ORDER BY SUM(won) DESC, user_id
	`, roomID)
	if err != nil {
		logger.Error("Failed to read user stats", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("failed to read user stats: %w", err)
	}
	defer rows.Close()

	stats := []types.UserStats{}
	for rows.Next() {
		var s types.UserStats
		var lastWin string
		if err := rows.Scan(&s.UserID, &s.Entered, &s.Wins, &lastWin); err != nil {
			logger.Error("Failed to scan user stats", zap.Error(err))
			continue
		}
		if lastWin != "" {
			if t, err := parseStoredTime(lastWin); err == nil {
				s.LastWin = t
			}
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating user stats", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate user stats: %w", err)
	}
	return stats, nil
}

// ChoiceStatsForRoom aggregates per-choice picked/won counts.
func ChoiceStatsForRoom(roomID int64) ([]types.ChoiceStats, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT name, COUNT(*), SUM(won)
		FROM entry_hist
		WHERE room_id = ?
		GROUP BY name
		ORDER BY SUM(won) DESC, COUNT(*) DESC, name
	`, roomID)
	if err != nil {
		logger.Error("Failed to read choice stats", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("failed to read choice stats: %w", err)
	}
	defer rows.Close()

	stats := []types.ChoiceStats{}
	for rows.Next() {
		var s types.ChoiceStats
		if err := rows.Scan(&s.Name, &s.Picked, &s.Won); err != nil {
			logger.Error("Failed to scan choice stats", zap.Error(err))
			continue
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating choice stats", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate choice stats: %w", err)
	}
	return stats, nil
}

// parseStoredTime handles both formats go-sqlite3 hands back for TIMESTAMP
// columns depending on how the value was written.
func parseStoredTime(value string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999+00:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", value)
}
