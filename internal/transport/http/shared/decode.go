package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"manpower/internal/transport/http/api"
)

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding worked.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil && decoder.Decode(&struct{}{}) != io.EOF {
		err = errors.New("body must contain a single JSON object")
	}
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return false
	}
	api.Fail(w, http.StatusBadRequest, "invalid_json", err.Error(), requestID)
	return false
}
