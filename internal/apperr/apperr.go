// Package apperr defines the error codes shared by services and handlers and
// their mapping to HTTP status codes.
package apperr

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeGateway         = "GATEWAY_FAILURE"
	CodeValidation      = "VALIDATION"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeWrongPurpose    = "WRONG_PURPOSE"
)

// Unauthenticated is the generic credential failure. The message is shown to
// the client as is.
func Unauthenticated(format string, args ...any) error {
	return oops.Code(CodeUnauthenticated).Errorf(format, args...)
}

func Forbidden(format string, args ...any) error {
	return oops.Code(CodeForbidden).Errorf(format, args...)
}

func Conflict(format string, args ...any) error {
	return oops.Code(CodeConflict).Errorf(format, args...)
}

func NotFound(format string, args ...any) error {
	return oops.Code(CodeNotFound).Errorf(format, args...)
}

func BadRequest(format string, args ...any) error {
	return oops.Code(CodeBadRequest).Errorf(format, args...)
}

func Validation(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

// Gateway reports a failure of an outbound provider. cause is kept for logs.
func Gateway(cause error, format string, args ...any) error {
	return oops.Code(CodeGateway).With("cause", errString(cause)).Errorf(format, args...)
}

// Code returns the oops code carried by err, or "" for plain errors.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := any(oopsErr.Code()).(string)
	return code
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// HTTPStatus maps an error to the status the transport layer answers with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeUnauthenticated, CodeInvalidToken, CodeWrongPurpose:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGateway:
		return http.StatusBadGateway
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client. Errors without a
// known code never leak their details.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

// Log logs an error with structured context if it's an oops error.
func Log(logger *slog.Logger, msg string, err error, attrs ...any) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "error", oopsErr.Error())
		if code := Code(err); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
		return
	}
	logger.Error(msg, append(attrs, "error", err)...)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
