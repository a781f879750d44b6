package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/nantokaworks/draw-bot/internal/draw"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/roster"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/types"
	"go.uber.org/zap"
)

// task is one live autodraw timer for one room.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns at most one autodraw task per room and is safe for
// concurrent use from command handlers and startup.
type Supervisor struct {
	engine   *draw.Engine
	roster   *roster.Roster
	location *time.Location

	// now is a test seam; production uses time.Now.
	now func() time.Time

	// opMu serializes whole replace sequences (cancel, wait, insert) so
	// concurrent Start/Stop calls for the same room cannot interleave and
	// orphan a task. Never held by a running task.
	opMu sync.Mutex

	mu    sync.Mutex
	tasks map[int64]*task
}

func NewSupervisor(engine *draw.Engine, liveRooms *roster.Roster, loc *time.Location) *Supervisor {
	return &Supervisor{
		engine:   engine,
		roster:   liveRooms,
		location: loc,
		now:      time.Now,
		tasks:    make(map[int64]*task),
	}
}

// Start schedules autodraw for a room, first stopping any existing task
// for the same room. Rooms without a complete autodraw configuration are
// left with no task.
func (s *Supervisor) Start(room types.Room) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stopTask(room.ID)

	if !room.AutodrawEnabled() {
		logger.Debug("Autodraw not fully configured, leaving room unscheduled",
			zap.Int64("room_id", room.ID))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.tasks[room.ID] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		s.runTask(ctx, room.ID, t)
	}()

	logger.Info("Autodraw task started",
		zap.Int64("room_id", room.ID),
		zap.Int("weekday", room.AutodrawWeekday),
		zap.Int("hour", room.AutodrawHour))
}

// Stop cancels and removes the room's task, waiting for it to exit so a
// replacement cannot overlap with it. No-op when nothing is tracked.
func (s *Supervisor) Stop(roomID int64) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.stopTask(roomID)
}

// stopTask is the replace-phase half of Stop. Caller holds opMu.
func (s *Supervisor) stopTask(roomID int64) {
	s.mu.Lock()
	t, ok := s.tasks[roomID]
	if ok {
		delete(s.tasks, roomID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	t.cancel()
	<-t.done
	logger.Info("Autodraw task stopped", zap.Int64("room_id", roomID))
}

// StartAll schedules every room in the registry that has autodraw enabled.
// Called once at startup.
func (s *Supervisor) StartAll() error {
	rooms, err := localdb.ReadAllRooms()
	if err != nil {
		return err
	}

	started := 0
	for _, room := range rooms {
		if !room.AutodrawEnabled() {
			continue
		}
		s.Start(room)
		started++
	}

	logger.Info("Autodraw supervisor initialized",
		zap.Int("rooms", len(rooms)),
		zap.Int("scheduled", started))
	return nil
}

// Shutdown stops every tracked task. Safe with zero tasks tracked.
func (s *Supervisor) Shutdown() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	tasks := make(map[int64]*task, len(s.tasks))
	for id, t := range s.tasks {
		tasks[id] = t
	}
	s.tasks = make(map[int64]*task)
	s.mu.Unlock()

	for id, t := range tasks {
		t.cancel()
		<-t.done
		logger.Info("Autodraw task stopped", zap.Int64("room_id", id))
	}
}

// TaskCount returns the number of live tasks.
func (s *Supervisor) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// release drops this task's handle, unless the handle has already been
// replaced by a newer task for the same room.
func (s *Supervisor) release(roomID int64, t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.tasks[roomID]; ok && current == t {
		delete(s.tasks, roomID)
	}
}
