package scheduler

import (
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/nantokaworks/draw-bot/internal/draw"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/roster"
	"github.com/nantokaworks/draw-bot/internal/types"
)

type silentNotifier struct{}

func (n *silentNotifier) Notify(roomID, channelID int64, text string) {}

func setupSupervisorTest(t *testing.T) *Supervisor {
	t.Helper()

	if localdb.DBClient != nil {
		_ = localdb.DBClient.Close()
		localdb.DBClient = nil
	}

	dbPath := filepath.Join(t.TempDir(), "local.db")
	db, err := localdb.SetupDB(dbPath)
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		localdb.DBClient = nil
	})

	liveRooms := roster.New()
	engine := draw.NewEngine(&silentNotifier{}, time.UTC)
	return NewSupervisor(engine, liveRooms, time.UTC)
}

func TestSupervisorStartDisabledRoomLeavesNoTask(t *testing.T) {
	s := setupSupervisorTest(t)

	s.Start(types.Room{ID: 1, ChannelID: types.Unset, AutodrawWeekday: 2, AutodrawHour: 19})
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("room without channel should not be scheduled: got=%d tasks", got)
	}

	s.Start(types.Room{ID: 1, ChannelID: 100, AutodrawWeekday: types.Unset, AutodrawHour: types.Unset})
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("room without schedule should not be scheduled: got=%d tasks", got)
	}
}

func TestSupervisorStartIsIdempotentReplace(t *testing.T) {
	s := setupSupervisorTest(t)

	room := types.Room{ID: 1, ChannelID: 100, AutodrawWeekday: 2, AutodrawHour: 19}
	if err := localdb.CreateRoom(room.ID, room.ChannelID, room.AutodrawWeekday, room.AutodrawHour); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	s.Start(room)
	if got := s.TaskCount(); got != 1 {
		t.Fatalf("unexpected task count: got=%d want=1", got)
	}

	// Starting again replaces the task, never stacks a second one.
	s.Start(room)
	if got := s.TaskCount(); got != 1 {
		t.Fatalf("restart should keep one task: got=%d want=1", got)
	}

	s.Stop(room.ID)
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("stop should remove the task: got=%d want=0", got)
	}

	// Stopping an untracked room is a no-op.
	s.Stop(room.ID)
}

func TestSupervisorStartAll(t *testing.T) {
	s := setupSupervisorTest(t)

	if err := localdb.CreateRoom(1, 100, 2, 19); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := localdb.CreateRoom(2, 200, types.Unset, types.Unset); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	if err := s.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if got := s.TaskCount(); got != 1 {
		t.Fatalf("only the configured room should be scheduled: got=%d want=1", got)
	}

	s.Shutdown()
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("shutdown should clear all tasks: got=%d want=0", got)
	}
}

func TestSupervisorShutdownWithNoTasks(t *testing.T) {
	s := setupSupervisorTest(t)
	s.Shutdown()
}

func TestSupervisorTaskStopsWhenConfigRemoved(t *testing.T) {
	s := setupSupervisorTest(t)

	// No room row exists, so the task reads nil config and releases its
	// handle on its first loop iteration.
	s.Start(types.Room{ID: 1, ChannelID: 100, AutodrawWeekday: 2, AutodrawHour: 19})

	deadline := time.After(2 * time.Second)
	for s.TaskCount() != 0 {
		select {
		case <-deadline:
			t.Fatalf("task should release itself when the room config is gone")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSupervisorConcurrentStartNeverOrphansTasks(t *testing.T) {
	s := setupSupervisorTest(t)

	room := types.Room{ID: 1, ChannelID: 100, AutodrawWeekday: 2, AutodrawHour: 19}
	if err := localdb.CreateRoom(room.ID, room.ChannelID, room.AutodrawWeekday, room.AutodrawHour); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	baseline := runtime.NumGoroutine()

	// Racing replaces for the same room must always collapse to exactly
	// one live task; a replace that overwrites a handle without cancelling
	// it would leave a goroutine no Stop can reach.
	for round := 0; round < 200; round++ {
		release := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-release
				s.Start(room)
			}()
		}
		close(release)
		wg.Wait()

		if got := s.TaskCount(); got != 1 {
			t.Fatalf("round %d: unexpected task count: got=%d want=1", round, got)
		}
	}

	s.Stop(room.ID)
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("stop should remove the last task: got=%d want=0", got)
	}

	deadline := time.After(5 * time.Second)
	for runtime.NumGoroutine() > baseline {
		select {
		case <-deadline:
			t.Fatalf("orphaned task goroutines remain: baseline=%d now=%d", baseline, runtime.NumGoroutine())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSupervisorTaskSelfHealsStaleRoom(t *testing.T) {
	s := setupSupervisorTest(t)

	room := types.Room{ID: 1, ChannelID: 100, AutodrawWeekday: 2, AutodrawHour: 19}
	if err := localdb.CreateRoom(room.ID, room.ChannelID, room.AutodrawWeekday, room.AutodrawHour); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	// The room is configured but never joined the roster, so the task's
	// wake-up check finds it gone. Pin "now" one second before the fire
	// instant; the computed fire time is in the wall-clock past, so the
	// timer fires immediately.
	s.now = func() time.Time {
		return time.Date(2025, 6, 11, 18, 59, 59, 0, time.UTC)
	}

	s.Start(room)

	deadline := time.After(5 * time.Second)
	for s.TaskCount() != 0 {
		select {
		case <-deadline:
			t.Fatalf("stale room task should stop and release its handle")
		case <-time.After(10 * time.Millisecond):
		}
	}

	got, err := localdb.ReadRoom(room.ID)
	if err != nil {
		t.Fatalf("ReadRoom failed: %v", err)
	}
	if got != nil {
		t.Fatalf("stale room configuration should be deleted: %+v", got)
	}
}
