package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"canvas-collab/core"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "canvas.db"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := core.Record{
		ID:     "alice",
		Owner:  "alice",
		Users:  []core.User{"alice", "bob"},
		Points: []core.Point{{X: 1, Y: 2, Color: "red"}},
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	recs, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(recs) != 1 || !reflect.DeepEqual(recs[0], rec) {
		t.Errorf("LoadAll() = %+v, want [%+v]", recs, rec)
	}
}

func TestSave_UpsertKeepsSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := core.Record{ID: "alice", Owner: "alice", Users: []core.User{"alice"}, Points: []core.Point{}}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	rec.Users = append(rec.Users, "bob")
	rec.Points = append(rec.Points, core.Point{X: 1, Y: 1, Color: "red"})
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("re-Save() failed: %v", err)
	}

	recs, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("LoadAll() returned %d records, want 1", len(recs))
	}
	if !reflect.DeepEqual(recs[0], rec) {
		t.Errorf("LoadAll() = %+v, want the latest version %+v", recs[0], rec)
	}
}

func TestLoadAll_CreationOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids := []string{"carol", "alice", "bob"}
	for _, id := range ids {
		rec := core.Record{ID: id, Owner: core.User(id), Users: []core.User{core.User(id)}, Points: []core.Point{}}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
	}
	// Updating the first row must not move it to the end.
	first := core.Record{ID: "carol", Owner: "carol", Users: []core.User{"carol"}, Points: []core.Point{{X: 1, Y: 1, Color: "red"}}}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("re-Save() failed: %v", err)
	}

	recs, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, r.ID)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("load order = %v, want first-insert order %v", got, ids)
	}
}
