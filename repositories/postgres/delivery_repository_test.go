package postgres

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lending-edge/models"
	"github.com/upb/lending-edge/services"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

func TestDeliveryRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db, zap.NewNop())

	d := models.NewWebhookDelivery(models.DeliveryOutcomeVerified, http.StatusOK).
		WithRequest("req-1", "10.0.0.7", 64).
		WithCounts(2, 0, 1)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_deliveries")).
		WithArgs(d.ID, d.Outcome, d.Reason, 2, 0, 1, http.StatusOK, "req-1", "10.0.0.7", 64, 0, d.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepository_InsertStoresReason(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db, zap.NewNop())

	d := models.NewWebhookDelivery(models.DeliveryOutcomeRejected, http.StatusUnauthorized).
		WithReason("signature_mismatch")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_deliveries")).
		WithArgs(d.ID, d.Outcome, d.Reason, 0, 0, 0, http.StatusUnauthorized, "", "", 0, 0, d.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepository_InsertRejectsInvalid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db, zap.NewNop())

	d := models.NewWebhookDelivery("accepted", http.StatusOK)

	err := repo.Insert(context.Background(), d)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidOutcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepository_InsertError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_deliveries")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), models.NewWebhookDelivery(models.DeliveryOutcomeMalformed, http.StatusBadRequest))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert delivery receipt")
	assert.True(t, services.IsInternalError(err))
	assert.Equal(t, "database error", services.ErrDatabaseError.Message)
	assert.Nil(t, services.ErrDatabaseError.Err, "sentinel stays untouched")
}

func TestDB_HealthCheck(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	require.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_HealthCheckPingFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	err := db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database health check failed")
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS webhook_deliveries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
