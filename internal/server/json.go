package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/playperu/spottheball/internal/apperr"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Status  string              `json:"status"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Code    string              `json:"code,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Status: statusSuccess, Data: data})
}

// writeError maps err to its HTTP status. Client errors carry the code and
// field errors; server errors only a generic message.
func writeError(w http.ResponseWriter, err error) {
	e := apperr.Convert(err)
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError {
		writeJSON(w, status, Envelope{Status: statusError, Message: "internal error"})
		return
	}
	writeJSON(w, status, Envelope{
		Status:  statusFail,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("body", "TooLarge", "request body exceeds %d bytes", tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "Required", "request body is required")
		}
		return apperr.Validation("body", "InvalidBody", "invalid request body")
	}
	return nil
}
