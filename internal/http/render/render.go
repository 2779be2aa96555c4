// Package render decodes request bodies and writes JSON responses for the API.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}

		return tag
	})

	return v
}

// ValidationError lists the offending request fields.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+" "+msg)
	}

	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Decode reads a JSON body into dest and validates its struct tags.
func Decode(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &ValidationError{Err: fmt.Errorf("%w: malformed body: %w", reward.ErrValidation, err)}
	}

	if err := validate.Struct(dest); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return &ValidationError{Err: fmt.Errorf("%w: %w", reward.ErrValidation, err)}
		}

		fields := make(map[string]string, len(errs))
		for _, fe := range errs {
			fields[fe.Field()] = message(fe)
		}

		return &ValidationError{Fields: fields, Err: reward.ErrValidation}
	}

	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	}

	return "is invalid"
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type failure struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusFor maps a service error onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, reward.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fulfillment.ErrFulfillmentInProgress):
		return http.StatusConflict
	}

	if _, ok := reward.AsDispatchError(err); ok {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// Error writes err as a {"success": false} document. Storage faults are not
// echoed to the client.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := failure{Error: err.Error()}

	var ve *ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}

	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	if status == http.StatusUnauthorized {
		body.Error = "unauthorized"
	}

	JSON(w, status, body)
}
