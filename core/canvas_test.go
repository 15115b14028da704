package core

import (
	"reflect"
	"testing"
)

func TestAppend_KeepsLogOrder(t *testing.T) {
	c := NewCanvas("alice", "alice")

	points := []Point{
		{X: 1, Y: 1, Color: "red"},
		{X: 2, Y: 2, Color: "blue"},
		{X: 1, Y: 1, Color: "green"}, // same coordinate, independent entry
	}
	for _, p := range points {
		if err := c.Append("alice", p, nil); err != nil {
			t.Fatalf("Append(%v) failed: %v", p, err)
		}
	}

	got := c.Snapshot().Points
	if !reflect.DeepEqual(got, points) {
		t.Errorf("points = %v, want %v", got, points)
	}
}

func TestAppend_Unauthorized(t *testing.T) {
	c := NewCanvas("alice", "alice")

	applied := false
	err := c.Append("mallory", Point{X: 1, Y: 1, Color: "red"}, func(Record) { applied = true })
	if err != ErrUnauthorized {
		t.Fatalf("Append() error = %v, want ErrUnauthorized", err)
	}
	if applied {
		t.Error("applied callback ran for a rejected append")
	}
	if n := len(c.Snapshot().Points); n != 0 {
		t.Errorf("rejected append changed state: %d points", n)
	}
}

func TestAppend_RunsAppliedWithUpdatedRecord(t *testing.T) {
	c := NewCanvas("alice", "alice")

	var rec Record
	p := Point{X: 3, Y: 4, Color: "black"}
	if err := c.Append("alice", p, func(r Record) { rec = r }); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	if len(rec.Points) != 1 || rec.Points[0] != p {
		t.Errorf("applied record points = %v, want [%v]", rec.Points, p)
	}
	if rec.ID != "alice" || rec.Owner != "alice" {
		t.Errorf("applied record identity = %q/%q, want alice/alice", rec.ID, rec.Owner)
	}
}

func TestOwnerAlwaysAuthorized(t *testing.T) {
	c := NewCanvas("alice", "alice")

	if err := c.AddUser("alice", "bob", nil); err != nil {
		t.Fatalf("AddUser() failed: %v", err)
	}
	if err := c.RemoveUser("bob", "alice", nil); err != ErrCannotRemoveOwner {
		t.Fatalf("RemoveUser(owner) error = %v, want ErrCannotRemoveOwner", err)
	}
	if !c.Authorized("alice") {
		t.Error("owner lost authorization")
	}

	if err := c.RemoveUser("alice", "bob", nil); err != nil {
		t.Fatalf("RemoveUser(bob) failed: %v", err)
	}
	if !c.Authorized("alice") {
		t.Error("owner not in authorized set after removals")
	}
}

func TestAddUser_NoopWhenPresent(t *testing.T) {
	c := NewCanvas("alice", "alice")
	if err := c.AddUser("alice", "bob", nil); err != nil {
		t.Fatalf("AddUser() failed: %v", err)
	}

	applied := false
	if err := c.AddUser("alice", "bob", func(Record) { applied = true }); err != nil {
		t.Fatalf("repeated AddUser() failed: %v", err)
	}
	if applied {
		t.Error("applied callback ran for a no-op add")
	}
}

func TestRemoveUser_NoopWhenAbsent(t *testing.T) {
	c := NewCanvas("alice", "alice")

	applied := false
	if err := c.RemoveUser("alice", "nobody", func(Record) { applied = true }); err != nil {
		t.Fatalf("RemoveUser(absent) failed: %v", err)
	}
	if applied {
		t.Error("applied callback ran for a no-op remove")
	}
}

func TestUserMutation_Unauthorized(t *testing.T) {
	c := NewCanvas("alice", "alice")

	if err := c.AddUser("mallory", "mallory", nil); err != ErrUnauthorized {
		t.Errorf("AddUser() error = %v, want ErrUnauthorized", err)
	}
	if err := c.RemoveUser("mallory", "alice", nil); err != ErrUnauthorized {
		t.Errorf("RemoveUser() error = %v, want ErrUnauthorized", err)
	}
	if c.Authorized("mallory") {
		t.Error("unauthorized caller ended up in authorized set")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := NewCanvas("alice", "alice")
	if err := c.Append("alice", Point{X: 1, Y: 2, Color: "red"}, nil); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	snap := c.Snapshot()
	snap.Points[0] = Point{X: 9, Y: 9, Color: "tampered"}
	snap.Users[0] = "tampered"

	fresh := c.Snapshot()
	if fresh.Points[0].Color != "red" {
		t.Error("mutating a snapshot leaked into canvas points")
	}
	if fresh.Users[0] != "alice" {
		t.Error("mutating a snapshot leaked into canvas users")
	}
}

func TestCanvasFromRecord_RoundTrip(t *testing.T) {
	c := NewCanvas("alice", "alice")
	c.AddUser("alice", "bob", nil)
	c.Append("bob", Point{X: 5, Y: 6, Color: "#000000"}, nil)

	restored := CanvasFromRecord(c.Record())

	if restored.ID() != "alice" || restored.Owner() != "alice" {
		t.Errorf("restored identity = %q/%q, want alice/alice", restored.ID(), restored.Owner())
	}
	if !reflect.DeepEqual(restored.Snapshot(), c.Snapshot()) {
		t.Errorf("restored snapshot = %+v, want %+v", restored.Snapshot(), c.Snapshot())
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{Width: 500, Height: 500}

	cases := []struct {
		p    Point
		want bool
	}{
		{Point{X: 0, Y: 0}, true},
		{Point{X: 499, Y: 499}, true},
		{Point{X: 500, Y: 0}, false},
		{Point{X: 0, Y: 500}, false},
		{Point{X: -1, Y: 0}, false},
		{Point{X: 0, Y: -1}, false},
	}
	for _, tc := range cases {
		if got := b.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}
