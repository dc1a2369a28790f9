package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/lending-edge/services"
	"github.com/upb/lending-edge/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Client-facing
// messages come from the domain error's Message, never from the wrapped cause.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	message := publicMessage(err)

	var writeErr error
	switch {
	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsMalformedPayloadError(err):
		writeErr = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Error:   string(services.ErrorTypeMalformedPayload),
			Message: message,
			Details: details,
		})

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsPayloadTooLargeError(err):
		writeErr = utils.WritePayloadTooLarge(w, message)

	case services.IsDownstreamError(err):
		logger.Error("downstream error", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, message)

	case services.IsConfigurationError(err), services.IsInternalError(err):
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

func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
