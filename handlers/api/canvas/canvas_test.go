package canvas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"canvas-collab/commands"
	"canvas-collab/core"
	"canvas-collab/hub"
	"canvas-collab/middleware"
	"canvas-collab/registry"
	"canvas-collab/stores/memory"
)

func newTestHandler() http.HandlerFunc {
	proc := commands.NewProcessor(registry.New(), hub.New(8), memory.NewStore(), core.DefaultBounds)
	return HandleCommand(proc)
}

func post(handler http.HandlerFunc, caller core.User, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(body))
	if caller != "" {
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, caller)
		req = req.WithContext(ctx)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func errorTag(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q is not JSON: %v", rr.Body.String(), err)
	}
	return body["error"]
}

func TestHandleCommand_SnapshotAndAck(t *testing.T) {
	handler := newTestHandler()

	// Mutations acknowledge with a bodiless 200.
	rr := post(handler, "alice", `{"AddUser":"bob"}`)
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Fatalf("AddUser response = %d %q, want bodiless 200", rr.Code, rr.Body.String())
	}

	rr = post(handler, "bob", `{"Draw":["alice",{"x":10,"y":20,"color":"#000000"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Draw status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	rr = post(handler, "alice", `{"GetCanvas":"alice"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("GetCanvas status = %d; body: %s", rr.Code, rr.Body.String())
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("snapshot body %q: %v", rr.Body.String(), err)
	}
	if len(snap.Points) != 1 || snap.Points[0] != (core.Point{X: 10, Y: 20, Color: "#000000"}) {
		t.Errorf("snapshot points = %v", snap.Points)
	}

	rr = post(handler, "alice", `"GetCanvasList"`)
	var ids []string
	if err := json.Unmarshal(rr.Body.Bytes(), &ids); err != nil {
		t.Fatalf("list body %q: %v", rr.Body.String(), err)
	}
	if len(ids) != 1 || ids[0] != "alice" {
		t.Errorf("canvas list = %v, want [alice]", ids)
	}
}

func TestHandleCommand_ErrorTags(t *testing.T) {
	cases := []struct {
		name       string
		caller     core.User
		setup      []string // commands run as alice first
		body       string
		wantStatus int
		wantTag    string
	}{
		{
			name:       "unauthorized draw",
			caller:     "mallory",
			setup:      []string{`{"GetCanvas":"alice"}`},
			body:       `{"Draw":["alice",{"x":1,"y":1,"color":"red"}]}`,
			wantStatus: http.StatusForbidden,
			wantTag:    "Unauthorized",
		},
		{
			name:       "remove owner",
			caller:     "alice",
			setup:      []string{`{"GetCanvas":"alice"}`},
			body:       `{"RemoveUser":"alice"}`,
			wantStatus: http.StatusConflict,
			wantTag:    "CannotRemoveOwner",
		},
		{
			name:       "unknown canvas",
			caller:     "bob",
			body:       `{"GetCanvas":"nobody"}`,
			wantStatus: http.StatusNotFound,
			wantTag:    "NotFound",
		},
		{
			name:       "out of bounds",
			caller:     "alice",
			body:       `{"Draw":["alice",{"x":500,"y":0,"color":"red"}]}`,
			wantStatus: http.StatusBadRequest,
			wantTag:    "OutOfBounds",
		},
		{
			name:       "malformed command",
			caller:     "alice",
			body:       `{"Explode":"now"}`,
			wantStatus: http.StatusBadRequest,
			wantTag:    "BadRequest",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler()
			for _, cmd := range tc.setup {
				if rr := post(handler, "alice", cmd); rr.Code != http.StatusOK {
					t.Fatalf("setup command %s failed: %d %s", cmd, rr.Code, rr.Body.String())
				}
			}

			rr := post(handler, tc.caller, tc.body)
			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if tag := errorTag(t, rr); tag != tc.wantTag {
				t.Errorf("error tag = %q, want %q", tag, tc.wantTag)
			}
		})
	}
}

func TestHandleCommand_NoCaller(t *testing.T) {
	handler := newTestHandler()

	rr := post(handler, "", `"GetCanvasList"`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
