// Package handler contains HTTP handlers for the Lettersmith API.
//
// All handlers speak JSON. Error responses go through ErrorResponse so the
// envelope and status mapping stay consistent across endpoints.
package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code.
//
// Encoding errors are ignored deliberately: by the time Encode fails the
// status line is already on the wire and there is nothing useful to send.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a JSON request body into dst.
//
// The body is capped at 1 MB. Unknown fields are tolerated so clients can
// send extra metadata without breaking.
func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}
