// Package canvas exposes the command protocol over HTTP: one POST
// endpoint accepting the tagged command forms and returning either a
// value, an empty acknowledgment, or an error tag.
package canvas

import (
	"errors"
	"net/http"

	"canvas-collab/commands"
	"canvas-collab/core"
	"canvas-collab/middleware"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleCommand decodes one command from the request body and applies it
// as the authenticated caller.
func HandleCommand(proc *commands.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.CallerFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Unauthorized"})
			return
		}

		var cmd commands.Command
		if err := render.DecodeJSON(r.Body, &cmd); err != nil {
			logrus.WithError(err).Warn("Failed to decode command")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "BadRequest"})
			return
		}

		result, err := proc.Execute(r.Context(), caller, cmd)
		if err != nil {
			status, tag := classify(err)
			logrus.WithFields(logrus.Fields{
				"command": cmd.Kind,
				"caller":  caller,
				"tag":     tag,
			}).Warn("Command rejected")
			render.Status(r, status)
			render.JSON(w, r, map[string]string{"error": tag})
			return
		}

		if result == nil {
			// Empty acknowledgment; the client treats a bodiless 200 as
			// success.
			w.WriteHeader(http.StatusOK)
			return
		}
		render.JSON(w, r, result)
	}
}

// classify maps a command error to its HTTP status and wire tag.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden, "Unauthorized"
	case errors.Is(err, core.ErrCannotRemoveOwner):
		return http.StatusConflict, "CannotRemoveOwner"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, core.ErrOutOfBounds):
		return http.StatusBadRequest, "OutOfBounds"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}
