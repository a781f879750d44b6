package localdb

import (
	"fmt"
	"strings"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// NormalizeChoice case-normalizes a choice name the way it is stored.
func NormalizeChoice(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateEntry inserts one entry row. The choice name is normalized.
func CreateEntry(name string, first bool, roomID, userID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(
		`INSERT INTO entries (name, first, room_id, user_id) VALUES (?, ?, ?, ?)`,
		NormalizeChoice(name), first, roomID, userID)
	if err != nil {
		logger.Error("Failed to create entry", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// ReplaceEntries swaps a user's entries in a room for the given choices.
// Deleting before inserting keeps the invariant of at most one first-choice
// and one second-choice row per (room, user).
func ReplaceEntries(roomID, userID int64, firstChoice string, secondChoice string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin entry replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		logger.Error("Failed to clear previous entries", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to clear previous entries: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO entries (name, first, room_id, user_id) VALUES (?, 1, ?, ?)`,
		NormalizeChoice(firstChoice), roomID, userID); err != nil {
		logger.Error("Failed to insert first choice", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to insert first choice: %w", err)
	}

	if secondChoice != "" {
		if _, err := tx.Exec(
			`INSERT INTO entries (name, first, room_id, user_id) VALUES (?, 0, ?, ?)`,
			NormalizeChoice(secondChoice), roomID, userID); err != nil {
			logger.Error("Failed to insert second choice", zap.Error(err),
				zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
			return fmt.Errorf("failed to insert second choice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry replace: %w", err)
	}
	return nil
}

// ReadAllEntries returns every current entry for a room.
func ReadAllEntries(roomID int64) ([]types.Entry, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(
		`SELECT name, first, room_id, user_id FROM entries WHERE room_id = ?`, roomID)
	if err != nil {
		logger.Error("Failed to read entries", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	defer rows.Close()

	entries := []types.Entry{}
	for rows.Next() {
		var entry types.Entry
		if err := rows.Scan(&entry.Name, &entry.First, &entry.RoomID, &entry.UserID); err != nil {
			logger.Error("Failed to scan entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating entries", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// DeleteAllEntries removes every entry of a room. Done at the end of a
// completed draw run.
func DeleteAllEntries(roomID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`DELETE FROM entries WHERE room_id = ?`, roomID)
	if err != nil {
		logger.Error("Failed to delete entries", zap.Error(err), zap.Int64("room_id", roomID))
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

// DeleteEntriesForUser removes a user's entries in a room ("leave the draw").
func DeleteEntriesForUser(roomID, userID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`DELETE FROM entries WHERE room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		logger.Error("Failed to delete user entries", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to delete user entries: %w", err)
	}
	return nil
}
