package repositories

import (
	"context"

	"github.com/upb/lending-edge/models"
)

// DeliveryRepository stores webhook delivery receipts
type DeliveryRepository interface {
	// Insert inserts a new delivery receipt
	Insert(ctx context.Context, delivery *models.WebhookDelivery) error
}
