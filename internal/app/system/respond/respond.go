// Package respond writes the JSON envelope every API endpoint returns:
//
//	{ "success": true,  "data": … }
//	{ "success": false, "error": "…" }
package respond

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/system/limits"
)

// Envelope is the body of every JSON API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 success envelope carrying data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope carrying data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Error: msg})
}

// FailDetail writes a failure envelope with provider or debug detail.
func FailDetail(w http.ResponseWriter, status int, msg, detail string) {
	JSON(w, status, Envelope{Success: false, Error: msg, Detail: detail})
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
// Bodies past limits.MaxJSONBody fail to decode.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
