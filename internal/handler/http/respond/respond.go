// Package respond writes JSON responses and maps errors to messages that are
// safe to show to API callers.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as JSON with the given status code. A nil v writes no body.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": err.Error()} without any filtering.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeFragments mark messages written for callers (validation and state errors).
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too large",
	"too long",
	"empty",
	"no summarized text",
}

// SafeError returns err's message for 4xx errors that look user-facing and a
// generic message otherwise. Anything not returned verbatim is logged with
// secrets masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	safe := false
	if code < 500 {
		lower := strings.ToLower(msg)
		for _, f := range safeFragments {
			if strings.Contains(lower, f) {
				safe = true
				break
			}
		}
	}

	if safe {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	generic := "internal server error"
	if code < 500 {
		generic = strings.ToLower(http.StatusText(code))
	}
	JSON(w, code, map[string]string{"error": generic})
}

// AppError pairs an internal error with the message and status callers see.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// SafeErrorV2 writes an AppError's own status and message, logging the
// wrapped error. Other errors fall back to SafeError with code.
func SafeErrorV2(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			level := slog.LevelWarn
			if appErr.Code >= 500 {
				level = slog.LevelError
			}
			slog.Default().Log(context.Background(), level, "application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, map[string]string{"error": appErr.UserMsg})
		return
	}

	SafeError(w, code, err)
}

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields, trailing data and oversized bodies are rejected with an
// *AppError carrying the right status.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return NewAppError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body too large (limit %d bytes)", maxErr.Limit), err)
		case errors.Is(err, io.EOF):
			return NewAppError(http.StatusBadRequest, "request body is required", err)
		default:
			return NewAppError(http.StatusBadRequest, "invalid JSON body", err)
		}
	}
	if dec.More() {
		return NewAppError(http.StatusBadRequest, "invalid JSON body: unexpected data after object", nil)
	}
	return nil
}
