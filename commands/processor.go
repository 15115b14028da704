package commands

import (
	"context"
	"fmt"

	"canvas-collab/core"
	"canvas-collab/hub"
	"canvas-collab/registry"

	"github.com/sirupsen/logrus"
)

// Processor validates and applies commands. Mutations are atomic per
// canvas: the authorization check, the state change, the write-through
// save, and the publish all happen under that canvas's lock, so a
// subscriber can never see an event for a point that a subsequent
// snapshot would not contain.
type Processor struct {
	registry *registry.Registry
	hub      *hub.Hub
	store    core.CanvasStore
	bounds   core.Bounds
}

// NewProcessor wires the processor. store may be nil to run without
// durability.
func NewProcessor(reg *registry.Registry, h *hub.Hub, store core.CanvasStore, bounds core.Bounds) *Processor {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		bounds = core.DefaultBounds
	}
	return &Processor{registry: reg, hub: h, store: store, bounds: bounds}
}

// Execute applies one command on behalf of caller. The result is nil for
// mutations, []string for GetCanvasList, and core.Snapshot for GetCanvas.
func (p *Processor) Execute(ctx context.Context, caller core.User, cmd Command) (any, error) {
	switch cmd.Kind {
	case KindGetCanvasList:
		return p.registry.List(), nil

	case KindGetCanvas:
		c, err := p.lookup(ctx, cmd.CanvasID, caller)
		if err != nil {
			return nil, err
		}
		return c.Snapshot(), nil

	case KindAddUser:
		// User-list commands always target the caller's home canvas,
		// creating it on first use.
		c, err := p.lookup(ctx, string(caller), caller)
		if err != nil {
			return nil, err
		}
		return nil, c.AddUser(caller, cmd.User, func(rec core.Record) {
			p.save(ctx, rec)
		})

	case KindRemoveUser:
		c, err := p.lookup(ctx, string(caller), caller)
		if err != nil {
			return nil, err
		}
		return nil, c.RemoveUser(caller, cmd.User, func(rec core.Record) {
			p.save(ctx, rec)
		})

	case KindDraw:
		if !p.bounds.Contains(cmd.Draw.Point) {
			return nil, core.ErrOutOfBounds
		}
		c, err := p.lookup(ctx, cmd.Draw.CanvasID, caller)
		if err != nil {
			return nil, err
		}
		return nil, c.Append(caller, cmd.Draw.Point, func(rec core.Record) {
			p.save(ctx, rec)
			p.hub.Publish(cmd.Draw.CanvasID, cmd.Draw.Point)
		})

	default:
		return nil, fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}

// lookup resolves id to a canvas. An unknown id is created only when it
// equals the caller identity (the home canvas convention); any other
// unknown id is NotFound. The registry itself never fails.
func (p *Processor) lookup(ctx context.Context, id string, caller core.User) (*core.Canvas, error) {
	if c, ok := p.registry.Get(id); ok {
		return c, nil
	}
	if id != string(caller) {
		return nil, core.ErrNotFound
	}
	c, created := p.registry.GetOrCreate(id, caller)
	if created {
		p.save(ctx, c.Record())
	}
	return c, nil
}

// save writes the record through to the durable store. The in-memory
// state is authoritative and already updated, so a failed save is logged
// rather than surfaced: rolling back would violate the append-only log.
func (p *Processor) save(ctx context.Context, rec core.Record) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, rec); err != nil {
		logrus.WithFields(logrus.Fields{
			"canvas_id": rec.ID,
		}).WithError(err).Error("Failed to persist canvas")
	}
}
