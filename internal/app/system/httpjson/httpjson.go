// internal/app/system/httpjson/httpjson.go
//
// Package httpjson is the single place handlers encode responses and
// decode request bodies. Every API response goes through Respond or one
// of the error helpers so the wire shape stays uniform.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openblood/donorhub/internal/app/system/inputval"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is
// a camp description.
const maxBodyBytes = 1 << 20

// Respond writes v as JSON with the given status.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with a 200.
func OK(w http.ResponseWriter, v any) { Respond(w, http.StatusOK, v) }

// Created writes v with a 201.
func Created(w http.ResponseWriter, v any) { Respond(w, http.StatusCreated, v) }

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Respond(w, status, map[string]string{"error": msg})
}

// FieldErrors writes a 400 carrying per-field validation failures.
func FieldErrors(w http.ResponseWriter, errs []inputval.FieldError) {
	Respond(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": errs,
	})
}

// Decode reads the request body into dst, rejecting unknown fields and
// oversized bodies.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// DecodeValid decodes the body into dst and runs its validate tags.
// On failure it writes the error response itself and returns false.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := Decode(r, dst); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		FieldErrors(w, res.Errors)
		return false
	}
	return true
}
