// Package httputil provides JSON response helpers and a small HTTP client
// used to fetch external exports.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/webatelier/platform/internal/errors"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteErrorResponse writes a structured error response.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	body := ErrorBody{Code: code, Message: message, Details: details}
	if r != nil {
		body.TraceID = w.Header().Get("X-Trace-ID")
	}
	WriteJSON(w, status, struct {
		Error ErrorBody `json:"error"`
	}{Error: body})
}

// WriteError maps err onto the standard error response. Unknown errors are
// reported as internal without leaking the cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Internal("", err)
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// Unauthorized writes a 401 response with an optional message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Authentication required"
	}
	WriteErrorResponse(w, nil, http.StatusUnauthorized, string(errors.CodeUnauthorized), message, nil)
}

// DecodeJSONBody decodes a request body into target with a size cap.
func DecodeJSONBody(r *http.Request, target interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return errors.InvalidInput("invalid JSON body").WithDetails("cause", err.Error())
	}
	return nil
}
