package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"ttsloader/internal/manager"
	"ttsloader/internal/modelerr"
	"ttsloader/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeErrorResponse(w, types.ErrorResponse{Error: msg, Code: status})
}

func writeErrorResponse(w http.ResponseWriter, resp types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorResponse maps service errors to a status code and payload.
// Model-loading failures carry their kind and, after chain exhaustion, the
// attempted loader names.
func errorResponse(err error) types.ErrorResponse {
	resp := types.ErrorResponse{Error: err.Error(), Code: http.StatusInternalServerError}
	var me *modelerr.Error
	switch {
	case manager.IsInvalidRequest(err):
		resp.Code = http.StatusBadRequest
	case manager.IsEngineNotRegistered(err), manager.IsNotLoaded(err):
		resp.Code = http.StatusNotFound
	case errors.As(err, &me):
		resp.Code = me.StatusCode()
		resp.Kind = me.Kind.String()
		resp.Attempts = append([]string(nil), me.Attempts...)
	default:
		var he HTTPError
		if errors.As(err, &he) {
			resp.Code = he.StatusCode()
		}
	}
	return resp
}
