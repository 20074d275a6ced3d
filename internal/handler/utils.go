package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"managerconsole/internal/errdefs"

	"github.com/go-chi/chi/v5"
)

var ErrBadRequest = errors.New("bad request")

func mapErr(err error) (int, errdefs.Severity) {
	var verr *errdefs.ValidationError
	if errors.As(err, &verr) {
		if verr.Severity == errdefs.SeverityWarning {
			return http.StatusUnprocessableEntity, errdefs.SeverityWarning
		}
		return http.StatusBadRequest, errdefs.SeverityError
	}

	var rerr *errdefs.RemoteError
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, errdefs.ErrInvalidArgument):
		return http.StatusBadRequest, errdefs.SeverityError
	case errors.Is(err, errdefs.ErrInFlight), errors.Is(err, errdefs.ErrAlreadyApproved):
		return http.StatusConflict, errdefs.SeverityError
	case errors.Is(err, errdefs.ErrNotFound):
		return http.StatusNotFound, errdefs.SeverityError
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return http.StatusForbidden, errdefs.SeverityError
	case errors.Is(err, errdefs.ErrClosed), errors.Is(err, errdefs.ErrUnavailable):
		return http.StatusServiceUnavailable, errdefs.SeverityError
	case errors.As(err, &rerr):
		return http.StatusBadGateway, errdefs.SeverityError
	}
	return http.StatusInternalServerError, errdefs.SeverityError
}

func writeErr(w http.ResponseWriter, err error) {
	status, level := mapErr(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeErrorJSON(w, status, msg, level)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string, level errdefs.Severity) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message, "level": string(level)})
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response", errdefs.SeverityError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func parsePathParam(r *http.Request, key string) (string, error) {
	val := strings.TrimSpace(chi.URLParam(r, key))
	if val == "" {
		return "", fmt.Errorf("%w: missing path param: %s", ErrBadRequest, key)
	}
	return val, nil
}

// parseIntQuery returns 0 when the parameter is absent.
func parseIntQuery(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrBadRequest, key)
	}
	return v, nil
}
