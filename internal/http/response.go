package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"walletbook/internal/core"
)

// envelope is the uniform response shape: data on success, msg on
// failure.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Msg: msg})
}

// writeError maps a service error to a status code and failure envelope.
// Business-rule failures surface their own message; everything else gets
// a generic one so internals stay out of responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeFailure(w, status, "internal error")
		return
	}
	writeFailure(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrWalletNotFound),
		errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingWallet),
		errors.Is(err, core.ErrMissingKind),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrEmptyWalletName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
