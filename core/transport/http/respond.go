package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mongopad/mongopad/core/shared/errors"
	"github.com/mongopad/mongopad/core/transport/http/dto"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its HTTP status and a single user-visible
// message; no internal details beyond the message are exposed
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
	}
	writeJSON(w, status, dto.ErrorResponse{Message: apperrors.Message(err)})
}

// validationMessage renders the first validation failure the way the API
// surfaces it: a single 400 message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		switch first.Tag() {
		case "required":
			return first.Field() + " is required"
		case "oneof":
			return first.Field() + " must be one of: " + first.Param()
		default:
			return first.Field() + " is invalid"
		}
	}
	return err.Error()
}

// clampLimit parses ?limit, clamping to [1,100] with default 10.
// Non-numeric input falls back to the default.
func clampLimit(raw string) int {
	if raw == "" {
		return 10
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 10
	}
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

// clampOffset parses ?offset, clamping to >= 0 with default 0
func clampOffset(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
