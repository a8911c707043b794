package handlers

import (
	"errors"
	"net/http"

	"github.com/foodloop/donation-engine/services"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	message := errorMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)

	case services.IsCapacityExceededError(err):
		writeErr = utils.WriteConflictType(w, string(services.ErrorTypeCapacityExceeded), message, details)

	case services.IsInvalidTransitionError(err):
		writeErr = utils.WriteConflictType(w, string(services.ErrorTypeInvalidTransition), message, details)

	case services.IsExternalError(err):
		// Upstream details stay in the logs
		logger.Warn("external provider error", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, message)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var writeErr error
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		writeErr = utils.WriteBadRequest(w, ve.Message, ve.Details())
	} else {
		writeErr = utils.WriteBadRequest(w, err.Error(), nil)
	}
	if writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

// errorMessage returns the client-facing message of a domain error, without wrapped causes
func errorMessage(err error) string {
	var de *services.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
