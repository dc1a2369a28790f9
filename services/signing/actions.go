package signing

import (
	"context"

	"github.com/upb/lending-edge/internal/webhook"
	"go.uber.org/zap"
)

// Backend is the subset of Client the webhook actions use
type Backend interface {
	CreateSigningSession(ctx context.Context, req SigningSessionRequest) error
	FinalizeDocument(ctx context.Context, documentID string, req FinalizeDocumentRequest) error
}

// Actions adapts backend calls to webhook event kinds
type Actions struct {
	backend Backend
	logger  *zap.Logger
}

// NewActions creates the webhook actions
func NewActions(backend Backend, logger *zap.Logger) *Actions {
	return &Actions{backend: backend, logger: logger}
}

// Register binds every supported event kind on the dispatcher
func (a *Actions) Register(d *webhook.Dispatcher) {
	d.Register(webhook.KindDocumentStateChanged, a.DocumentStateChanged)
	d.Register(webhook.KindDocumentCompletedPDFReady, a.DocumentCompletedPDFReady)
}

// DocumentStateChanged forwards a status change to the signing-session endpoint
func (a *Actions) DocumentStateChanged(ctx context.Context, event webhook.Event) error {
	payload, err := event.DocumentStateChanged()
	if err != nil {
		return err
	}
	a.logger.Debug("document state changed",
		zap.String("document_id", payload.DocumentID),
		zap.String("status", payload.Status))

	return a.backend.CreateSigningSession(ctx, SigningSessionRequest{
		DocumentID: payload.DocumentID,
		Status:     payload.Status,
	})
}

// DocumentCompletedPDFReady asks the backend to fetch the finished document
func (a *Actions) DocumentCompletedPDFReady(ctx context.Context, event webhook.Event) error {
	payload, err := event.DocumentCompletedPDFReady()
	if err != nil {
		return err
	}
	a.logger.Debug("document pdf ready", zap.String("document_id", payload.DocumentID))

	return a.backend.FinalizeDocument(ctx, payload.DocumentID, FinalizeDocumentRequest{
		DownloadURL: payload.DownloadURL,
	})
}
