package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/observability"
)

// apiError is the handler layer's own error type: every handler returns one
// instead of writing the response body itself, so status-code translation
// lives in a single place, mirroring original_source/src/routes/mod.rs's
// ApiError enum.
type apiError struct {
	status int
	msg    string
	cause  error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func badRequest(msg string, cause error) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: msg, cause: cause}
}

func unauthorized(msg string) *apiError {
	return &apiError{status: http.StatusUnauthorized, msg: msg}
}

func notFound(msg string) *apiError {
	return &apiError{status: http.StatusNotFound, msg: msg}
}

func internalError(msg string, cause error) *apiError {
	return &apiError{status: http.StatusInternalServerError, msg: msg, cause: cause}
}

// fromDomainError translates an addition.Error into the handler's apiError,
// preserving the Kind -> HTTP status mapping of spec.md §7.
func fromDomainError(context string, err error) *apiError {
	var domainErr *addition.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case addition.KindNotFound:
			return notFound(context)
		case addition.KindWrongState:
			return badRequest(context, err)
		case addition.KindUnauthorized:
			return unauthorized(context)
		case addition.KindInvariantViolation:
			return internalError(context, err)
		}
	}
	return internalError(context, err)
}

// writeError writes apiErr as the HTTP response, logging InvariantViolation
// class failures (internal server errors) at error level and reporting them
// to Sentry, matching the teacher's CaptureError convention.
func writeError(w http.ResponseWriter, logger *zap.Logger, obs *observability.Manager, apiErr *apiError) {
	if apiErr.status == http.StatusInternalServerError {
		if obs != nil {
			obs.CaptureError(apiErr, zap.String("msg", apiErr.msg))
		} else {
			logger.Error(apiErr.Error())
		}
	} else if apiErr.status == http.StatusUnauthorized {
		logger.Warn("unauthorized request", zap.String("reason", apiErr.msg))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": apiErr.msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
