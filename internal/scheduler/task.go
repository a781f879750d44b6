package scheduler

import (
	"context"
	"time"

	"github.com/nantokaworks/draw-bot/internal/draw"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// NextFireTime computes the next occurrence of (weekday, hour, minute 0)
// at or after now in the given location, rolling over a full week when
// that instant is not strictly in the future. Weekday follows the
// schedule convention 0=Monday .. 6=Sunday.
func NextFireTime(now time.Time, weekday, hour int, loc *time.Location) time.Time {
	now = now.In(loc)

	// time.Weekday counts from Sunday; the schedule counts from Monday.
	nowWeekday := (int(now.Weekday()) + 6) % 7

	days := (weekday - nowWeekday + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// runTask is the per-room autodraw loop: sleep until the next scheduled
// fire time, re-validate the room, run the draw, reschedule. It exits when
// ctx is cancelled or when the room is found to be gone.
func (s *Supervisor) runTask(ctx context.Context, roomID int64, t *task) {
	for {
		room, err := localdb.ReadRoom(roomID)
		if err != nil {
			logger.Error("Autodraw task failed to read room config, stopping",
				zap.Int64("room_id", roomID), zap.Error(err))
			s.release(roomID, t)
			return
		}
		if room == nil || !room.AutodrawEnabled() {
			logger.Info("Autodraw no longer configured for room, stopping task",
				zap.Int64("room_id", roomID))
			s.release(roomID, t)
			return
		}

		next := NextFireTime(s.now(), room.AutodrawWeekday, room.AutodrawHour, s.location)
		logger.Info("Autodraw scheduled",
			zap.Int64("room_id", roomID),
			zap.Time("fire_at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Autodraw task cancelled", zap.Int64("room_id", roomID))
			return
		case <-timer.C:
		}

		// The bot may have left the room while we slept; a stale room's
		// configuration is removed and its task released.
		if !s.roster.IsLive(roomID) {
			logger.Warn("Room no longer live, removing configuration and stopping autodraw",
				zap.Int64("room_id", roomID))
			if err := localdb.DeleteRoom(roomID); err != nil {
				logger.Error("Failed to delete stale room", zap.Int64("room_id", roomID), zap.Error(err))
			}
			s.release(roomID, t)
			return
		}

		// Use the configuration as of this wake-up for the run itself;
		// a reconfiguration during the sleep applies to the next cycle.
		room, err = localdb.ReadRoom(roomID)
		if err != nil || room == nil {
			logger.Error("Autodraw woke to unreadable room config, skipping cycle",
				zap.Int64("room_id", roomID), zap.Error(err))
			continue
		}
		if room.ChannelID == types.Unset {
			logger.Warn("Autodraw fired for room without output channel, skipping cycle",
				zap.Int64("room_id", roomID))
			continue
		}

		logger.Info("Autodraw firing", zap.Int64("room_id", roomID))
		if _, err := s.engine.RunDraw(ctx, roomID, draw.DefaultDraws); err != nil {
			// One bad cycle does not kill the schedule.
			logger.Error("Autodraw run failed",
				zap.Int64("room_id", roomID), zap.Error(err))
		}
	}
}
