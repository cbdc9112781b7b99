package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/readymix/internal/geocode"
	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/store"
	"github.com/Simplici0/readymix/internal/supplier"
	"github.com/Simplici0/readymix/internal/volume"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest          = errors.New("bad request")
	errGeocoderUnavailable = errors.New("address lookup is not configured")
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// fail maps domain errors onto HTTP responses. Unexpected errors are logged
// and reported without detail.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, pricing.ErrUnknownPSIClass):
		return http.StatusBadRequest, "unknown_psi_class"
	case errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, volume.ErrInvalidDimension),
		errors.Is(err, store.ErrInvalid),
		errors.Is(err, geocode.ErrEmptyAddress),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, geocode.ErrAddressNotFound):
		return http.StatusNotFound, "address_not_found"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, supplier.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, supplier.ErrNoSuppliersAvailable):
		return http.StatusServiceUnavailable, "no_suppliers"
	case errors.Is(err, errGeocoderUnavailable):
		return http.StatusServiceUnavailable, "geocoder_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode request body: %v", errBadRequest, err)
	}
	return nil
}
