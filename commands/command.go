// Package commands implements the canvas command protocol: decoding the
// tagged wire form and applying commands against the registry, the
// durable store, and the hub.
package commands

import (
	"encoding/json"
	"fmt"

	"canvas-collab/core"
)

// Kind names a command variant. The wire tags match the reference client.
type Kind string

const (
	KindGetCanvasList Kind = "GetCanvasList"
	KindGetCanvas     Kind = "GetCanvas"
	KindAddUser       Kind = "AddUser"
	KindRemoveUser    Kind = "RemoveUser"
	KindDraw          Kind = "Draw"
)

// DrawArgs is the Draw payload, encoded on the wire as a
// ["canvasID", point] pair.
type DrawArgs struct {
	CanvasID string
	Point    core.Point
}

func (a DrawArgs) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.CanvasID, a.Point})
}

func (a *DrawArgs) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("draw payload must be a [canvasID, point] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &a.CanvasID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &a.Point)
}

// Command is one decoded request. Exactly the field matching Kind is
// meaningful.
type Command struct {
	Kind     Kind
	CanvasID string   // GetCanvas
	User     core.User // AddUser / RemoveUser target
	Draw     DrawArgs
}

// UnmarshalJSON accepts the two wire shapes: a bare string tag for
// commands without arguments ("GetCanvasList"), or a single-key object
// whose key names the variant, e.g. {"Draw": ["alice", {...}]}.
func (c *Command) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if Kind(tag) != KindGetCanvasList {
			return fmt.Errorf("unknown command tag %q", tag)
		}
		c.Kind = KindGetCanvasList
		return nil
	}

	var variants map[string]json.RawMessage
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("command must be a string tag or a single-key object: %w", err)
	}
	if len(variants) != 1 {
		return fmt.Errorf("command object must have exactly one key, got %d", len(variants))
	}

	for key, payload := range variants {
		switch Kind(key) {
		case KindGetCanvas:
			c.Kind = KindGetCanvas
			return json.Unmarshal(payload, &c.CanvasID)
		case KindAddUser:
			c.Kind = KindAddUser
			return json.Unmarshal(payload, &c.User)
		case KindRemoveUser:
			c.Kind = KindRemoveUser
			return json.Unmarshal(payload, &c.User)
		case KindDraw:
			c.Kind = KindDraw
			return json.Unmarshal(payload, &c.Draw)
		default:
			return fmt.Errorf("unknown command %q", key)
		}
	}
	return nil
}

func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindGetCanvasList:
		return json.Marshal(string(c.Kind))
	case KindGetCanvas:
		return json.Marshal(map[string]string{string(c.Kind): c.CanvasID})
	case KindAddUser, KindRemoveUser:
		return json.Marshal(map[string]core.User{string(c.Kind): c.User})
	case KindDraw:
		return json.Marshal(map[string]DrawArgs{string(c.Kind): c.Draw})
	default:
		return nil, fmt.Errorf("unknown command kind %q", c.Kind)
	}
}
