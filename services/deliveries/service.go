// Package deliveries records webhook delivery receipts in the background so
// the webhook response never waits on the database.
package deliveries

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/lending-edge/models"
	"github.com/upb/lending-edge/repositories"
	"go.uber.org/zap"
)

// Config holds configuration for the Service
type Config struct {
	BufferSize    int // Size of the receipt channel
	WorkerCount   int
	InsertTimeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		WorkerCount:   2,
		InsertTimeout: 5 * time.Second,
	}
}

// Service persists receipts through a bounded queue drained by workers.
// With a nil repository every method is a no-op.
type Service struct {
	repo     repositories.DeliveryRepository
	logger   *zap.Logger
	cfg      Config
	receipts chan *models.WebhookDelivery
	wg       sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewService creates a new Service
func NewService(repo repositories.DeliveryRepository, logger *zap.Logger, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = def.InsertTimeout
	}

	return &Service{
		repo:     repo,
		logger:   logger,
		cfg:      cfg,
		receipts: make(chan *models.WebhookDelivery, cfg.BufferSize),
	}
}

// Enabled reports whether receipts are persisted
func (s *Service) Enabled() bool {
	return s != nil && s.repo != nil
}

// Start starts the background workers
func (s *Service) Start() error {
	if s == nil {
		return nil
	}
	if s.repo == nil {
		s.logger.Info("delivery receipts disabled (no database configured)")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("delivery receipt service already started")
	}

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started delivery receipt service",
		zap.Int("worker_count", s.cfg.WorkerCount),
		zap.Int("buffer_size", s.cfg.BufferSize))

	return nil
}

// Stop stops accepting receipts and waits for queued ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("delivery receipt service not running")
	}
	s.stopped = true
	close(s.receipts)
	s.mu.Unlock()

	s.logger.Info("stopping delivery receipt service", zap.Int("pending", len(s.receipts)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("delivery receipt service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("delivery receipt service stop timeout after %v", timeout)
	}
}

// Record queues a receipt without blocking. A full queue drops the receipt.
func (s *Service) Record(d *models.WebhookDelivery) error {
	if !s.Enabled() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("delivery receipt service not running")
	}

	select {
	case s.receipts <- d:
		return nil
	default:
		s.logger.Warn("delivery receipt queue full, dropping receipt",
			zap.String("outcome", string(d.Outcome)),
			zap.String("request_id", d.RequestID))
		return fmt.Errorf("delivery receipt buffer full")
	}
}

// Stats returns queue statistics
func (s *Service) Stats() Stats {
	if !s.Enabled() {
		return Stats{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Enabled:     true,
		Started:     s.started && !s.stopped,
		BufferSize:  s.cfg.BufferSize,
		Pending:     len(s.receipts),
		WorkerCount: s.cfg.WorkerCount,
	}
}

// Stats represents delivery receipt service statistics
type Stats struct {
	Enabled     bool
	Started     bool
	BufferSize  int
	Pending     int
	WorkerCount int
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for d := range s.receipts {
		if err := s.insert(d); err != nil {
			s.logger.Error("failed to store delivery receipt",
				zap.Int("worker_id", id),
				zap.String("request_id", d.RequestID),
				zap.Error(err))
		}
	}
}

func (s *Service) insert(d *models.WebhookDelivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.InsertTimeout)
	defer cancel()

	return s.repo.Insert(ctx, d)
}
