package localdb

import (
	"path/filepath"
	"testing"
)

func setupDrawStoreTestDB(t *testing.T) {
	t.Helper()

	if DBClient != nil {
		_ = DBClient.Close()
		DBClient = nil
	}

	dbPath := filepath.Join(t.TempDir(), "local.db")
	db, err := SetupDB(dbPath)
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		DBClient = nil
	})
}

func TestReplaceEntriesKeepsSingleSet(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := ReplaceEntries(1, 10, "Pizza", "Tacos"); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}
	if err := ReplaceEntries(1, 10, "Sushi", ""); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}

	entries, err := ReadAllEntries(1)
	if err != nil {
		t.Fatalf("ReadAllEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("re-entering should replace previous entries: got=%d want=1", len(entries))
	}
	if entries[0].Name != "sushi" {
		t.Fatalf("choice should be normalized: got=%q want=%q", entries[0].Name, "sushi")
	}
	if !entries[0].First {
		t.Fatalf("sole entry should be the first choice")
	}
}

func TestReplaceEntriesFirstAndSecond(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := ReplaceEntries(1, 10, "pizza", "tacos"); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}

	entries, err := ReadAllEntries(1)
	if err != nil {
		t.Fatalf("ReadAllEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("unexpected entry count: got=%d want=2", len(entries))
	}

	firstCount := 0
	for _, entry := range entries {
		if entry.First {
			firstCount++
		}
	}
	if firstCount != 1 {
		t.Fatalf("exactly one first-choice entry expected: got=%d", firstCount)
	}
}

func TestDeleteEntriesForUserLeavesOthers(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := ReplaceEntries(1, 10, "pizza", ""); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}
	if err := ReplaceEntries(1, 20, "tacos", ""); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}

	if err := DeleteEntriesForUser(1, 10); err != nil {
		t.Fatalf("DeleteEntriesForUser failed: %v", err)
	}

	entries, err := ReadAllEntries(1)
	if err != nil {
		t.Fatalf("ReadAllEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != 20 {
		t.Fatalf("only user 20's entry should remain: %+v", entries)
	}
}

func TestRenameHistoryChoiceMergesStats(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := AppendHistory("pizza", true, 1, 10); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := AppendHistory("pitsa", false, 1, 20); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := AppendHistory("tacos", false, 1, 30); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	renamed, err := RenameHistoryChoice(1, "pitsa", "pizza")
	if err != nil {
		t.Fatalf("RenameHistoryChoice failed: %v", err)
	}
	if renamed != 1 {
		t.Fatalf("unexpected renamed count: got=%d want=1", renamed)
	}

	stats, err := ChoiceStatsForRoom(1)
	if err != nil {
		t.Fatalf("ChoiceStatsForRoom failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats should merge into two choices: got=%d", len(stats))
	}
	if stats[0].Name != "pizza" || stats[0].Picked != 2 || stats[0].Won != 1 {
		t.Fatalf("unexpected merged stats: %+v", stats[0])
	}
}

func TestUserStatsForRoom(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := AppendHistory("pizza", true, 1, 10); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := AppendHistory("tacos", false, 1, 10); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := AppendHistory("sushi", false, 1, 20); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	stats, err := UserStatsForRoom(1)
	if err != nil {
		t.Fatalf("UserStatsForRoom failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("unexpected user count: got=%d want=2", len(stats))
	}
	if stats[0].UserID != 10 || stats[0].Entered != 2 || stats[0].Wins != 1 {
		t.Fatalf("unexpected stats for user 10: %+v", stats[0])
	}
	if stats[0].LastWin.IsZero() {
		t.Fatalf("last win timestamp should be set for user 10")
	}
	if !stats[1].LastWin.IsZero() {
		t.Fatalf("last win timestamp should be empty for user 20")
	}
}

func TestUpdateRoomPartial(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := CreateRoom(1, 100, -1, -1); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	weekday := 2
	hour := 19
	if err := UpdateRoom(1, nil, &weekday, &hour); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	room, err := ReadRoom(1)
	if err != nil {
		t.Fatalf("ReadRoom failed: %v", err)
	}
	if room == nil {
		t.Fatalf("room should exist")
	}
	if room.ChannelID != 100 {
		t.Fatalf("channel should be unchanged: got=%d want=100", room.ChannelID)
	}
	if room.AutodrawWeekday != 2 || room.AutodrawHour != 19 {
		t.Fatalf("schedule should be updated: got=%d/%d want=2/19", room.AutodrawWeekday, room.AutodrawHour)
	}
	if !room.AutodrawEnabled() {
		t.Fatalf("room should report autodraw enabled")
	}
}

func TestReadRoomMissing(t *testing.T) {
	setupDrawStoreTestDB(t)

	room, err := ReadRoom(99)
	if err != nil {
		t.Fatalf("ReadRoom failed: %v", err)
	}
	if room != nil {
		t.Fatalf("missing room should read as nil: %+v", room)
	}

	exists, err := RoomExists(99)
	if err != nil {
		t.Fatalf("RoomExists failed: %v", err)
	}
	if exists {
		t.Fatalf("missing room should not exist")
	}
}

func TestEnrollmentLifecycle(t *testing.T) {
	setupDrawStoreTestDB(t)

	if err := EnsureUser(10); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := EnsureUser(10); err != nil {
		t.Fatalf("EnsureUser should be idempotent: %v", err)
	}

	if err := EnsureEnrollment(1, 10); err != nil {
		t.Fatalf("EnsureEnrollment failed: %v", err)
	}
	if err := EnsureEnrollment(1, 10); err != nil {
		t.Fatalf("EnsureEnrollment should be idempotent: %v", err)
	}

	enrolled, err := EnrollmentExists(1, 10)
	if err != nil {
		t.Fatalf("EnrollmentExists failed: %v", err)
	}
	if !enrolled {
		t.Fatalf("enrollment should exist")
	}

	if err := DeleteEnrollmentsForRoom(1); err != nil {
		t.Fatalf("DeleteEnrollmentsForRoom failed: %v", err)
	}

	enrolled, err = EnrollmentExists(1, 10)
	if err != nil {
		t.Fatalf("EnrollmentExists failed: %v", err)
	}
	if enrolled {
		t.Fatalf("enrollment should be gone")
	}
}
