package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// UserExists reports whether a user record exists.
func UserExists(id int64) (bool, error) {
	db := GetDB()
	if db == nil {
		return false, fmt.Errorf("database not initialized")
	}

	var one int
	err := db.QueryRow(`SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check user existence", zap.Error(err), zap.Int64("user_id", id))
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

// EnsureUser creates the user record if it does not exist yet. Users are
// created lazily on first entry and never updated.
func EnsureUser(id int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`INSERT OR IGNORE INTO users (id) VALUES (?)`, id)
	if err != nil {
		logger.Error("Failed to ensure user", zap.Error(err), zap.Int64("user_id", id))
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// EnsureEnrollment records that a user belongs to a room.
func EnsureEnrollment(roomID, userID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`INSERT OR IGNORE INTO enrollments (room_id, user_id) VALUES (?, ?)`, roomID, userID)
	if err != nil {
		logger.Error("Failed to ensure enrollment", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return fmt.Errorf("failed to ensure enrollment: %w", err)
	}
	return nil
}

// EnrollmentExists reports whether a user is enrolled in a room.
func EnrollmentExists(roomID, userID int64) (bool, error) {
	db := GetDB()
	if db == nil {
		return false, fmt.Errorf("database not initialized")
	}

	var one int
	err := db.QueryRow(`SELECT 1 FROM enrollments WHERE room_id = ? AND user_id = ?`, roomID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check enrollment", zap.Error(err),
			zap.Int64("room_id", roomID), zap.Int64("user_id", userID))
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return true, nil
}

// DeleteEnrollmentsForRoom removes every enrollment of a room. Used when
// the room itself is deleted.
func DeleteEnrollmentsForRoom(roomID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`DELETE FROM enrollments WHERE room_id = ?`, roomID)
	if err != nil {
		logger.Error("Failed to delete enrollments", zap.Error(err), zap.Int64("room_id", roomID))
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	return nil
}
