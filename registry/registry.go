// Package registry holds the authoritative in-memory canvas state. A
// canvas is addressable only through the registry; no two Canvas values
// ever exist for the same id within a process.
package registry

import (
	"sync"

	"canvas-collab/core"

	"github.com/sirupsen/logrus"
)

type Registry struct {
	mu       sync.RWMutex
	canvases map[string]*core.Canvas
	order    []string // insertion order, for stable List results
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		canvases: make(map[string]*core.Canvas),
	}
}

// Restore seeds the registry from persisted records, preserving the given
// order. Meant to run once at startup, before the registry is shared.
func (r *Registry) Restore(recs []core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range recs {
		if _, ok := r.canvases[rec.ID]; ok {
			continue
		}
		r.canvases[rec.ID] = core.CanvasFromRecord(rec)
		r.order = append(r.order, rec.ID)
	}
	logrus.WithField("canvases", len(r.order)).Info("Registry restored from store")
}

// Get returns the canvas for id, if known.
func (r *Registry) Get(id string) (*core.Canvas, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.canvases[id]
	return c, ok
}

// GetOrCreate returns the canvas for id, creating it with the given owner
// if absent. The second return reports whether a canvas was created.
// Idempotent: repeated calls for the same id return the same instance and
// never change its owner.
func (r *Registry) GetOrCreate(id string, owner core.User) (*core.Canvas, bool) {
	r.mu.RLock()
	c, ok := r.canvases[id]
	r.mu.RUnlock()
	if ok {
		return c, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.canvases[id]; ok {
		return c, false
	}
	c = core.NewCanvas(id, owner)
	r.canvases[id] = c
	r.order = append(r.order, id)
	logrus.WithFields(logrus.Fields{
		"canvas_id": id,
		"owner":     owner,
	}).Info("Canvas created")
	return c, true
}

// List enumerates all known canvas ids in insertion order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}
