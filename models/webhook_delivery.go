package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryOutcome is how the gateway answered a webhook request
type DeliveryOutcome string

const (
	DeliveryOutcomeVerified  DeliveryOutcome = "verified"
	DeliveryOutcomeRejected  DeliveryOutcome = "rejected"
	DeliveryOutcomeMalformed DeliveryOutcome = "malformed"
)

// WebhookDelivery is a receipt for one webhook request. Event contents are
// never stored, only counts.
type WebhookDelivery struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Outcome      DeliveryOutcome `json:"outcome" db:"outcome"`
	Reason       *string         `json:"reason,omitempty" db:"reason"` // rejection or parse failure category
	EventCount   int             `json:"event_count" db:"event_count"`
	SkippedCount int             `json:"skipped_count" db:"skipped_count"`
	FailureCount int             `json:"failure_count" db:"failure_count"`
	StatusCode   int             `json:"status_code" db:"status_code"`
	RequestID    string          `json:"request_id" db:"request_id"`
	RemoteIP     string          `json:"remote_ip" db:"remote_ip"`
	BodyBytes    int             `json:"body_bytes" db:"body_bytes"`
	DurationMs   int             `json:"duration_ms" db:"duration_ms"`
	ReceivedAt   time.Time       `json:"received_at" db:"received_at"`
}

// TableName returns the table name for the WebhookDelivery model
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}

// NewWebhookDelivery creates a receipt stamped with a fresh ID
func NewWebhookDelivery(outcome DeliveryOutcome, statusCode int) *WebhookDelivery {
	return &WebhookDelivery{
		ID:         uuid.New(),
		Outcome:    outcome,
		StatusCode: statusCode,
		ReceivedAt: time.Now().UTC(),
	}
}

// WithReason records why the request was not verified
func (d *WebhookDelivery) WithReason(reason string) *WebhookDelivery {
	d.Reason = &reason
	return d
}

// WithRequest sets request correlation fields
func (d *WebhookDelivery) WithRequest(requestID, remoteIP string, bodyBytes int) *WebhookDelivery {
	d.RequestID = requestID
	d.RemoteIP = remoteIP
	d.BodyBytes = bodyBytes
	return d
}

// WithCounts sets the dispatch counters
func (d *WebhookDelivery) WithCounts(events, skipped, failed int) *WebhookDelivery {
	d.EventCount = events
	d.SkippedCount = skipped
	d.FailureCount = failed
	return d
}

// WithDuration sets how long the request took
func (d *WebhookDelivery) WithDuration(elapsed time.Duration) *WebhookDelivery {
	d.DurationMs = int(elapsed.Milliseconds())
	return d
}

// Validate validates the delivery receipt
func (d *WebhookDelivery) Validate() error {
	if d.ID == uuid.Nil {
		return ErrInvalidID
	}
	switch d.Outcome {
	case DeliveryOutcomeVerified, DeliveryOutcomeRejected, DeliveryOutcomeMalformed:
	default:
		return ErrInvalidOutcome
	}
	if d.EventCount < 0 || d.SkippedCount < 0 || d.FailureCount < 0 {
		return ErrInvalidCount
	}
	return nil
}
