package models

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookDelivery(t *testing.T) {
	d := NewWebhookDelivery(DeliveryOutcomeVerified, http.StatusOK).
		WithRequest("req-1", "10.0.0.7", 128).
		WithCounts(3, 1, 1).
		WithDuration(42 * time.Millisecond)

	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, DeliveryOutcomeVerified, d.Outcome)
	assert.Equal(t, http.StatusOK, d.StatusCode)
	assert.Equal(t, "req-1", d.RequestID)
	assert.Equal(t, "10.0.0.7", d.RemoteIP)
	assert.Equal(t, 128, d.BodyBytes)
	assert.Equal(t, 3, d.EventCount)
	assert.Equal(t, 1, d.SkippedCount)
	assert.Equal(t, 1, d.FailureCount)
	assert.Equal(t, 42, d.DurationMs)
	assert.Nil(t, d.Reason)
	assert.False(t, d.ReceivedAt.IsZero())
	assert.NoError(t, d.Validate())
}

func TestWebhookDelivery_TableName(t *testing.T) {
	assert.Equal(t, "webhook_deliveries", WebhookDelivery{}.TableName())
}

func TestWebhookDelivery_WithReason(t *testing.T) {
	d := NewWebhookDelivery(DeliveryOutcomeRejected, http.StatusUnauthorized).WithReason("signature_mismatch")

	require.NotNil(t, d.Reason)
	assert.Equal(t, "signature_mismatch", *d.Reason)
}

func TestWebhookDelivery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WebhookDelivery)
		wantErr error
	}{
		{"valid", func(*WebhookDelivery) {}, nil},
		{"nil id", func(d *WebhookDelivery) { d.ID = uuid.Nil }, ErrInvalidID},
		{"unknown outcome", func(d *WebhookDelivery) { d.Outcome = "accepted" }, ErrInvalidOutcome},
		{"negative count", func(d *WebhookDelivery) { d.FailureCount = -1 }, ErrInvalidCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewWebhookDelivery(DeliveryOutcomeMalformed, http.StatusBadRequest)
			tt.mutate(d)
			if tt.wantErr == nil {
				assert.NoError(t, d.Validate())
				return
			}
			assert.ErrorIs(t, d.Validate(), tt.wantErr)
		})
	}
}

func TestWebhookDelivery_JSONOmitsEmptyReason(t *testing.T) {
	d := NewWebhookDelivery(DeliveryOutcomeVerified, http.StatusOK)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "reason")
	assert.Contains(t, string(data), `"outcome":"verified"`)
}
