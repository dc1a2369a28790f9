package postgres

import (
	"context"
	"fmt"

	"github.com/upb/lending-edge/models"
	"github.com/upb/lending-edge/repositories"
	"github.com/upb/lending-edge/services"
	"go.uber.org/zap"
)

// DeliveryRepository implements the repositories.DeliveryRepository interface
type DeliveryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDeliveryRepository creates a new delivery receipt repository
func NewDeliveryRepository(db *DB, logger *zap.Logger) repositories.DeliveryRepository {
	return &DeliveryRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new delivery receipt
func (r *DeliveryRepository) Insert(ctx context.Context, d *models.WebhookDelivery) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid delivery receipt: %w", err)
	}

	query := `
		INSERT INTO webhook_deliveries (
			id, outcome, reason, event_count, skipped_count, failure_count,
			status_code, request_id, remote_ip, body_bytes, duration_ms, received_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Outcome,
		d.Reason,
		d.EventCount,
		d.SkippedCount,
		d.FailureCount,
		d.StatusCode,
		d.RequestID,
		d.RemoteIP,
		d.BodyBytes,
		d.DurationMs,
		d.ReceivedAt,
	)
	if err != nil {
		return services.ErrDatabaseError.Wrap(fmt.Errorf("failed to insert delivery receipt: %w", err))
	}

	r.logger.Debug("delivery receipt inserted",
		zap.String("id", d.ID.String()),
		zap.String("outcome", string(d.Outcome)))
	return nil
}
