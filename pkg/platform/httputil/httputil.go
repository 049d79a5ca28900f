// Package httputil writes JSON responses and coded error envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "tokenscope/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into an HTTP status and error envelope.
// Internal errors never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	description := ""
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		description = de.Message
	}
	if code == dErrors.CodeInternal {
		description = ""
	}
	WriteJSON(w, dErrors.HTTPStatus(code), errorResponse{
		Error:            string(code),
		ErrorDescription: description,
	})
}
