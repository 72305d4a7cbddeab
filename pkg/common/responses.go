package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "learnboard/pkg/errors"
)

// MaxBodyBytes bounds decoded request bodies.
const MaxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// RespondJSON sends data wrapped in the success envelope.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta: &MetaInfo{
			RequestID: middleware.GetReqID(r.Context()),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// RespondNoContent sends an empty 204.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON reads a size-limited JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is required")
		}
		return apperrors.NewValidationError("invalid JSON body").WithCause(err)
	}
	return nil
}

// QueryBool reads a boolean query parameter, returning def when absent.
func QueryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(name + " must be a boolean")
	}
	return v, nil
}

// QueryInt reads an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be an integer")
	}
	return v, nil
}
