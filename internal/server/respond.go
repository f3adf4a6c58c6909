package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/saldo-labs/akuntansid/internal/apperror"
)

// validate is the shared request-DTO validator. Field names in error
// messages come from json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}

// WriteError classifies err via the apperror taxonomy and writes the
// matching status and error envelope. INTERNAL failures are logged with the
// request correlation id; their details never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("server.respond", err)
	}

	if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindUnknown {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("internal error")
	}

	body := errorBody{
		Kind:    appErr.Kind.String(),
		Message: appErr.Message,
		Field:   appErr.Field,
		Details: appErr.Details,
	}
	if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindUnknown {
		body.Message = "internal error"
		body.Details = nil
	}

	WriteJSON(w, appErr.Kind.HTTPStatus(), errorEnvelope{Error: body})
}

// DecodeJSON decodes a request body into dst, capping the body at 1 MiB.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("server.decode", "malformed JSON body")
	}
	return nil
}

// DecodeValid decodes a request body and applies struct validation,
// surfacing the first offending field as a VALIDATION error.
func DecodeValid(r *http.Request, dst interface{}) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return Validate(dst)
}

// Validate applies struct validation to a DTO.
func Validate(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperror.Validationf("server.validate", "field %s failed %s validation", fe.Field(), fe.Tag()).
			WithField(fe.Field())
	}
	return apperror.Validation("server.validate", "invalid request body")
}

// ParseDate parses a YYYY-MM-DD value from a query or body field.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperror.Validationf("server.parse_date", "field %s must be a YYYY-MM-DD date", field).
			WithField(field)
	}
	return t, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter, returning fallback
// when absent.
func QueryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return ParseDate(name, raw)
}

// QueryInt reads an optional integer query parameter.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, apperror.Validationf("server.parse_query", "field %s must be an integer", name).WithField(name)
	}
	return n, nil
}
