package handlers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/upb/lending-edge/internal/webhook"
	"github.com/upb/lending-edge/middleware"
	"github.com/upb/lending-edge/models"
	"github.com/upb/lending-edge/services"
	"github.com/upb/lending-edge/utils"
	"go.uber.org/zap"
)

// ReceiptRecorder accepts delivery receipts
type ReceiptRecorder interface {
	Record(d *models.WebhookDelivery) error
}

// WebhookOptions configures a WebhookHandler
type WebhookOptions struct {
	SignatureParam string
	MaxBodyBytes   int64
}

// WebhookHandler receives signed event batches from the document-signing provider
type WebhookHandler struct {
	verifier   *webhook.Verifier
	dispatcher *webhook.Dispatcher
	receipts   ReceiptRecorder
	opts       WebhookOptions
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler. A nil verifier rejects
// every delivery.
func NewWebhookHandler(
	verifier *webhook.Verifier,
	dispatcher *webhook.Dispatcher,
	receipts ReceiptRecorder,
	opts WebhookOptions,
	logger *zap.Logger,
) *WebhookHandler {
	if opts.SignatureParam == "" {
		opts.SignatureParam = "signature"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		receipts:   receipts,
		opts:       opts,
		logger:     logger,
	}
}

// HandleSigningWebhook handles POST /api/webhooks/signing?signature=...
func (h *WebhookHandler) HandleSigningWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		if err := utils.WriteMethodNotAllowed(w, http.MethodPost); err != nil {
			h.logger.Error("failed to write response", zap.Error(err))
		}
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))
	receipt := func(outcome models.DeliveryOutcome, status, bodyBytes int) *models.WebhookDelivery {
		return models.NewWebhookDelivery(outcome, status).
			WithRequest(requestID, remoteIP(r), bodyBytes).
			WithDuration(time.Since(start))
	}

	// The raw bytes are what the provider signed; they are never re-encoded.
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("webhook payload too large", zap.Int64("limit", tooLarge.Limit))
			h.record(logger, receipt(models.DeliveryOutcomeRejected, http.StatusRequestEntityTooLarge, len(rawBody)).
				WithReason("payload_too_large"))
			HandleServiceError(w, services.ErrPayloadTooLarge.Wrap(err), logger)
			return
		}
		logger.Warn("failed to read webhook body", zap.Error(err))
		h.record(logger, receipt(models.DeliveryOutcomeMalformed, http.StatusBadRequest, len(rawBody)).
			WithReason("body_unreadable"))
		HandleServiceError(w, services.ErrMalformedPayload.Wrap(err), logger)
		return
	}

	events, err := h.verifier.Verify(rawBody, r.URL.Query().Get(h.opts.SignatureParam))
	switch {
	case err == nil:
	case webhook.IsAuthenticationError(err):
		reason := rejectionReason(err)
		logger.Warn("webhook signature rejected",
			zap.String("reason", reason),
			zap.String("remote_ip", remoteIP(r)))
		h.record(logger, receipt(models.DeliveryOutcomeRejected, http.StatusUnauthorized, len(rawBody)).WithReason(reason))
		// Same client-facing body for every signature failure
		HandleServiceError(w, services.ErrInvalidSignature.Wrap(err), logger)
		return
	case errors.Is(err, webhook.ErrMalformedPayload):
		logger.Warn("webhook payload malformed", zap.Error(err))
		h.record(logger, receipt(models.DeliveryOutcomeMalformed, http.StatusBadRequest, len(rawBody)).WithReason("malformed_payload"))
		HandleServiceError(w, services.ErrMalformedPayload.Wrap(err), logger)
		return
	default:
		logger.Error("webhook verification failed", zap.Error(err))
		h.record(logger, receipt(models.DeliveryOutcomeRejected, http.StatusInternalServerError, len(rawBody)).
			WithReason("internal_error"))
		HandleServiceError(w, services.ErrInternal.Wrap(err), logger)
		return
	}

	// A provider that hangs up early must not cut the remaining actions short.
	report := h.dispatcher.Dispatch(context.WithoutCancel(r.Context()), events)
	for _, failure := range report.Failures() {
		fields := []zap.Field{zap.Error(failure)}
		var dispatchErr *webhook.DispatchError
		if errors.As(failure, &dispatchErr) {
			fields = append(fields,
				zap.Int("index", dispatchErr.Index),
				zap.String("event_type", dispatchErr.Kind),
				zap.String("document_id", dispatchErr.DocumentID),
				zap.Bool("timeout", errors.Is(failure, webhook.ErrDispatchTimeout)))
		}
		logger.Error("webhook event dispatch failed", fields...)
	}

	logger.Info("webhook processed",
		zap.Int("events", report.Total),
		zap.Int("dispatched", report.Dispatched),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	h.record(logger, receipt(models.DeliveryOutcomeVerified, http.StatusOK, len(rawBody)).
		WithCounts(report.Total, report.Skipped, report.Failed))
	utils.WriteEmptyOK(w)
}

func (h *WebhookHandler) record(logger *zap.Logger, d *models.WebhookDelivery) {
	if h.receipts == nil {
		return
	}
	if err := h.receipts.Record(d); err != nil {
		logger.Debug("delivery receipt not recorded", zap.Error(err))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, webhook.ErrMissingSharedKey):
		return "verifier_unconfigured"
	case errors.Is(err, webhook.ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, webhook.ErrMalformedSignature):
		return "malformed_signature"
	default:
		return "signature_mismatch"
	}
}

// remoteIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare address
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
