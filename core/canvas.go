package core

import (
	"context"
	"sort"
	"sync"
)

type (
	// User is an opaque caller identity. Equality is exact string match.
	User string

	// Point is a single drawn pixel. Immutable once created; two points at
	// the same coordinates are independent log entries and the later one
	// wins visually on replay.
	Point struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Color string `json:"color"`
	}

	// Bounds is the fixed integer grid a canvas accepts points on.
	Bounds struct {
		Width  int
		Height int
	}

	// Snapshot is the full current state of a canvas as returned by a read.
	Snapshot struct {
		Users  []User  `json:"users"`
		Points []Point `json:"points"`
	}

	// Record is the serialized form of a canvas handed to the durable store.
	Record struct {
		ID     string  `json:"id"`
		Owner  User    `json:"owner"`
		Users  []User  `json:"users"`
		Points []Point `json:"points"`
	}

	// CanvasStore is the durable save/load boundary. The in-memory registry
	// is authoritative; stores only reload state across restarts.
	CanvasStore interface {
		// LoadAll returns every persisted canvas record, in the order the
		// canvases were first created where the backend can provide it.
		LoadAll(ctx context.Context) ([]Record, error)

		// Save writes the full record for one canvas, replacing any
		// previous version.
		Save(ctx context.Context, rec Record) error
	}
)

// DefaultBounds matches the 500x500 grid the reference client draws on.
var DefaultBounds = Bounds{Width: 500, Height: 500}

// Contains reports whether p lies on the grid.
func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Width && p.Y < b.Height
}

// Canvas is the aggregate root: an owned, append-only log of drawn points
// plus the set of users allowed to mutate it. All mutations on one canvas
// are serialized by its own lock; canvases never block each other.
//
// The owner is always a member of the authorized set and cannot be removed.
type Canvas struct {
	id    string
	owner User

	mu     sync.RWMutex
	users  map[User]struct{}
	points []Point
}

// NewCanvas creates an empty canvas owned (and authorized) by owner.
func NewCanvas(id string, owner User) *Canvas {
	return &Canvas{
		id:    id,
		owner: owner,
		users: map[User]struct{}{owner: {}},
	}
}

// CanvasFromRecord rebuilds a canvas from its persisted record.
func CanvasFromRecord(rec Record) *Canvas {
	c := NewCanvas(rec.ID, rec.Owner)
	for _, u := range rec.Users {
		c.users[u] = struct{}{}
	}
	c.points = append(c.points, rec.Points...)
	return c
}

func (c *Canvas) ID() string  { return c.id }
func (c *Canvas) Owner() User { return c.owner }

// Authorized reports whether u may mutate this canvas.
func (c *Canvas) Authorized(u User) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[u]
	return ok
}

// Append adds p to the point log. Fails with ErrUnauthorized if requester
// is not in the authorized set, leaving the log untouched.
//
// If applied is non-nil it runs with the updated record before the canvas
// lock is released, so callers can publish and persist in exact log order:
// no reader can observe a published event before a snapshot that contains
// its point.
func (c *Canvas) Append(requester User, p Point, applied func(Record)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[requester]; !ok {
		return ErrUnauthorized
	}
	c.points = append(c.points, p)
	if applied != nil {
		applied(c.record())
	}
	return nil
}

// AddUser inserts target into the authorized set. No-op if already present.
func (c *Canvas) AddUser(requester, target User, applied func(Record)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[requester]; !ok {
		return ErrUnauthorized
	}
	if _, ok := c.users[target]; ok {
		return nil
	}
	c.users[target] = struct{}{}
	if applied != nil {
		applied(c.record())
	}
	return nil
}

// RemoveUser removes target from the authorized set. Removing the owner
// always fails; removing an absent user is a no-op.
func (c *Canvas) RemoveUser(requester, target User, applied func(Record)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[requester]; !ok {
		return ErrUnauthorized
	}
	if target == c.owner {
		return ErrCannotRemoveOwner
	}
	if _, ok := c.users[target]; !ok {
		return nil
	}
	delete(c.users, target)
	if applied != nil {
		applied(c.record())
	}
	return nil
}

// Snapshot returns a consistent copy of the canvas state. Users are sorted
// so reads are deterministic; points keep log order.
func (c *Canvas) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec := c.record()
	return Snapshot{Users: rec.Users, Points: rec.Points}
}

// Record returns the persisted form of the canvas.
func (c *Canvas) Record() Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record()
}

// record builds a Record copy; callers must hold at least the read lock.
func (c *Canvas) record() Record {
	users := make([]User, 0, len(c.users))
	for u := range c.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	points := make([]Point, len(c.points))
	copy(points, c.points)

	return Record{ID: c.id, Owner: c.owner, Users: users, Points: points}
}
