package draw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

const (
	// MaxDraws bounds the requested winner count for one run.
	MaxDraws = 5
	// DefaultDraws is the winner count used by autodraw and by "run now"
	// when no count is given.
	DefaultDraws = 2
)

var (
	ErrInvalidCount         = errors.New("invalid winner count")
	ErrNoEntries            = errors.New("no entries")
	ErrRoomNotFound         = errors.New("room not found")
	ErrChannelNotConfigured = errors.New("output channel not configured")
	errWinnerNotResolvable  = errors.New("winner not resolvable to a live entrant")
)

// Notifier delivers human-readable draw output to a room's output channel.
type Notifier interface {
	Notify(roomID, channelID int64, text string)
}

// Winner is one winning entry of a run. Unanimous winners did not consume
// a requested winner slot.
type Winner struct {
	Entry     types.Entry `json:"entry"`
	Unanimous bool        `json:"unanimous"`
}

// Result reports one completed draw run.
type Result struct {
	RunID        string   `json:"run_id"`
	RoomID       int64    `json:"room_id"`
	Winners      []Winner `json:"winners"`
	TotalEntries int      `json:"total_entries"`
}

// Engine runs draws for rooms. Runs for the same room are mutually
// exclusive so a manual run and an autodraw firing cannot interleave
// their entry deletions.
type Engine struct {
	notifier Notifier

	// location is the zone draw announcements date themselves in, matching
	// the zone the autodraw schedule is interpreted in.
	location *time.Location

	mu        sync.Mutex
	roomLocks map[int64]*sync.Mutex
}

func NewEngine(notifier Notifier, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		notifier:  notifier,
		location:  loc,
		roomLocks: make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) roomLock(roomID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		e.roomLocks[roomID] = lock
	}
	return lock
}

// RunDraw executes one draw run for a room, selecting up to requestedCount
// winners, then records history and clears the room's entries. A run that
// produces no winners mutates nothing, so its entries survive for a retry.
func (e *Engine) RunDraw(ctx context.Context, roomID int64, requestedCount int) (*Result, error) {
	if requestedCount < 1 || requestedCount > MaxDraws {
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidCount, requestedCount, MaxDraws)
	}

	lock := e.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	runID, err := gonanoid.New(10)
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	room, err := localdb.ReadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		logger.Error("Draw requested for unknown room",
			zap.String("run_id", runID), zap.Int64("room_id", roomID))
		return nil, ErrRoomNotFound
	}
	if room.ChannelID == types.Unset {
		logger.Error("Draw requested for room without output channel",
			zap.String("run_id", runID), zap.Int64("room_id", roomID))
		return nil, ErrChannelNotConfigured
	}

	entries, err := localdb.ReadAllEntries(roomID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		e.notifier.Notify(roomID, room.ChannelID,
			"No entries to draw from. Enter some first before running the draw.")
		return nil, ErrNoEntries
	}

	logger.Info("Starting draw run",
		zap.String("run_id", runID),
		zap.Int64("room_id", roomID),
		zap.Int("requested", requestedCount),
		zap.Int("entries", len(entries)))

	e.notifier.Notify(roomID, room.ChannelID,
		fmt.Sprintf("Running the draw for %s:", time.Now().In(e.location).Format("02/01/2006")))

	winners, err := e.selectWinners(ctx, runID, room, entries, requestedCount)
	if err != nil {
		// Fail-safe: entries survive a failed run and may be retried.
		logger.Error("Draw run aborted, entries preserved",
			zap.String("run_id", runID), zap.Int64("room_id", roomID), zap.Error(err))
		return nil, err
	}

	if len(winners) == 0 {
		logger.Warn("Draw run produced no winners, treating as no-op",
			zap.String("run_id", runID), zap.Int64("room_id", roomID))
		return &Result{RunID: runID, RoomID: roomID, Winners: nil, TotalEntries: len(entries)}, nil
	}

	if err := e.recordOutcome(runID, roomID, entries, winners); err != nil {
		return nil, err
	}

	e.notifier.Notify(roomID, room.ChannelID, summaryText(winners))

	logger.Info("Draw run complete",
		zap.String("run_id", runID),
		zap.Int64("room_id", roomID),
		zap.Int("winners", len(winners)))

	return &Result{
		RunID:        runID,
		RoomID:       roomID,
		Winners:      winners,
		TotalEntries: len(entries),
	}, nil
}

// selectWinners runs the selection loop over a private copy of the entry
// set. The pool is owned by this call; every mutation builds a fresh slice.
func (e *Engine) selectWinners(ctx context.Context, runID string, room *types.Room, entries []types.Entry, requestedCount int) ([]Winner, error) {
	pool := make([]types.Entry, len(entries))
	copy(pool, entries)

	winners := []Winner{}
	hadUnanimous := false

	for slot := 0; slot < requestedCount; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(pool) == 0 {
			e.notifier.Notify(room.ID, room.ChannelID,
				fmt.Sprintf("No more entries left for draw %d of %d.", slot+1, requestedCount))
			break
		}

		// Unanimity rule: a choice picked by every entrant left in the
		// pool wins outright for all of them and does not consume a
		// winner slot. Weighting reverts to one ticket per entry for the
		// rest of the run.
		if name, ok := findUnanimousChoice(pool); ok {
			for _, entry := range pool {
				if entry.Name != name {
					continue
				}
				winners = append(winners, Winner{Entry: entry, Unanimous: true})
			}
			pool = removeChoice(pool, name)
			hadUnanimous = true

			logger.Info("Unanimous choice resolved",
				zap.String("run_id", runID),
				zap.Int64("room_id", room.ID),
				zap.String("choice", name))
			e.notifier.Notify(room.ID, room.ChannelID,
				fmt.Sprintf("%q was picked by everyone - it wins automatically for all who chose it!", name))
			continue
		}

		e.notifier.Notify(room.ID, room.ChannelID, selectionListText(pool, hadUnanimous))

		winner, err := pickWeighted(pool, hadUnanimous)
		if err != nil {
			return nil, fmt.Errorf("selection failed: %w", err)
		}

		// The chosen entry must still resolve to a live entrant of the
		// room; anything else is an internal error and aborts the run.
		enrolled, err := localdb.EnrollmentExists(room.ID, winner.UserID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			logger.Error("Selected entry does not resolve to a live entrant",
				zap.String("run_id", runID),
				zap.Int64("room_id", room.ID),
				zap.Int64("user_id", winner.UserID))
			return nil, errWinnerNotResolvable
		}

		pool = pruneAfterWin(pool, winner)
		winners = append(winners, Winner{Entry: winner})
		slot++

		e.notifier.Notify(room.ID, room.ChannelID,
			fmt.Sprintf("Winner %d is %q, entered by user %d.", slot, winner.Name, winner.UserID))
	}

	return winners, nil
}

// recordOutcome writes one history row per original entry and then clears
// the room's entry set.
func (e *Engine) recordOutcome(runID string, roomID int64, entries []types.Entry, winners []Winner) error {
	won := map[string]bool{}
	for _, winner := range winners {
		won[outcomeKey(winner.Entry.UserID, winner.Entry.Name)] = true
	}

	for _, entry := range entries {
		if err := localdb.AppendHistory(entry.Name, won[outcomeKey(entry.UserID, entry.Name)], roomID, entry.UserID); err != nil {
			// Leave the entries in place; the run can be retried once the
			// store recovers.
			logger.Error("Failed to record draw history, entries preserved",
				zap.String("run_id", runID), zap.Int64("room_id", roomID), zap.Error(err))
			return err
		}
	}

	if err := localdb.DeleteAllEntries(roomID); err != nil {
		return err
	}
	return nil
}

func outcomeKey(userID int64, name string) string {
	return fmt.Sprintf("%d|%s", userID, name)
}

func selectionListText(pool []types.Entry, hadUnanimous bool) string {
	var b strings.Builder
	b.WriteString("Selecting a winner from:\n")
	line := 1
	for _, entry := range pool {
		tickets := 1
		if entry.First && !hadUnanimous {
			tickets = 2
		}
		for i := 0; i < tickets; i++ {
			fmt.Fprintf(&b, "%d. %s (user %d)\n", line, entry.Name, entry.UserID)
			line++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func summaryText(winners []Winner) string {
	var b strings.Builder
	b.WriteString("Draw complete! Winners:\n")
	for _, winner := range winners {
		if winner.Unanimous {
			fmt.Fprintf(&b, "- %q by user %d (unanimous)\n", winner.Entry.Name, winner.Entry.UserID)
			continue
		}
		fmt.Fprintf(&b, "- %q by user %d\n", winner.Entry.Name, winner.Entry.UserID)
	}
	return strings.TrimRight(b.String(), "\n")
}
