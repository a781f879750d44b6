package roster

import "testing"

func TestRosterJoinLeave(t *testing.T) {
	r := New()

	if r.IsLive(1) {
		t.Fatalf("fresh roster should have no live rooms")
	}

	r.Join(1)
	if !r.IsLive(1) {
		t.Fatalf("room 1 should be live after join")
	}

	r.Leave(1)
	if r.IsLive(1) {
		t.Fatalf("room 1 should not be live after leave")
	}

	// Leaving an unknown room is a no-op.
	r.Leave(2)
}

func TestRosterSeed(t *testing.T) {
	r := New()
	r.Seed([]int64{1, 2, 3})

	for _, id := range []int64{1, 2, 3} {
		if !r.IsLive(id) {
			t.Fatalf("room %d should be live after seed", id)
		}
	}
	if r.IsLive(4) {
		t.Fatalf("room 4 was never seeded")
	}
}
