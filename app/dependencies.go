package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/lending-edge/config"
	"github.com/upb/lending-edge/internal/gate"
	"github.com/upb/lending-edge/internal/webhook"
	"github.com/upb/lending-edge/middleware"
	"github.com/upb/lending-edge/repositories"
	"github.com/upb/lending-edge/repositories/postgres"
	"github.com/upb/lending-edge/services"
	"github.com/upb/lending-edge/services/deliveries"
	"github.com/upb/lending-edge/services/proxy"
	"github.com/upb/lending-edge/services/signing"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// BackendProxyPrefix is stripped before requests reach the REST backend
const BackendProxyPrefix = "/api/proxy"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when DATABASE_URL is unset
	Logger *zap.Logger

	// Delivery receipts
	Deliveries repositories.DeliveryRepository
	Receipts   *deliveries.Service

	// Webhook
	Verifier   *webhook.Verifier
	Dispatcher *webhook.Dispatcher
	Backend    *signing.Client

	// Session gate
	Gate        *gate.Gate
	SessionGate *middleware.SessionGate

	// Upstreams
	BackendProxy  *proxy.Upstream
	FrontendProxy *proxy.Upstream
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initVerifier(cfg); err != nil {
		return nil, err
	}

	if err := deps.initGate(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize session gate: %w", err)
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initReceipts(cfg); err != nil {
		deps.closeDB()
		return nil, fmt.Errorf("failed to initialize delivery receipts: %w", err)
	}

	deps.initDispatcher(cfg)

	if err := deps.initProxies(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize proxies: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initVerifier fails closed: no key, no process
func (d *Dependencies) initVerifier(cfg *config.Config) error {
	verifier, err := webhook.NewVerifier([]byte(cfg.Webhook.SharedKey))
	if err != nil {
		return services.ErrMissingWebhookKey.Wrap(err)
	}
	d.Verifier = verifier
	return nil
}

func (d *Dependencies) initGate(cfg *config.Config) error {
	rules := gate.DefaultRules()
	for _, prefix := range cfg.Gate.PublicPrefixes {
		rules = append(rules, gate.PublicPrefix(prefix))
	}

	allow, err := gate.NewAllowList(rules...)
	if err != nil {
		return services.ErrInvalidAllowList.Wrap(err)
	}

	g, err := gate.New(allow, cfg.Gate.RootPath, cfg.Gate.ProtectedEntry)
	if err != nil {
		return services.ErrInvalidAllowList.Wrap(err)
	}

	d.Gate = g
	d.SessionGate = middleware.NewSessionGate(g, cfg.Gate.CookieNames, d.Logger)
	d.Logger.Info("session gate initialized",
		zap.Int("rules", len(rules)),
		zap.String("root", g.RootPath()),
		zap.String("protected_entry", g.ProtectedEntry()))
	return nil
}

func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Warn("DATABASE_URL not set, delivery receipts will not be stored")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	d.Deliveries = postgres.NewDeliveryRepository(db, d.Logger)
	return nil
}

func (d *Dependencies) initReceipts(cfg *config.Config) error {
	d.Receipts = deliveries.NewService(d.Deliveries, d.Logger, deliveries.Config{
		BufferSize:  cfg.Webhook.ReceiptBuffer,
		WorkerCount: cfg.Webhook.ReceiptWorkers,
	})
	return d.Receipts.Start()
}

func (d *Dependencies) initDispatcher(cfg *config.Config) {
	tokens := signing.NewTokenSource(cfg.Backend.ServiceSecret, cfg.Backend.ServiceIssuer, signing.DefaultTokenTTL)
	if tokens == nil {
		d.Logger.Warn("BACKEND_SERVICE_SECRET not set, backend calls are unauthenticated")
	}

	d.Backend = signing.NewClient(signing.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, tokens, d.Logger)

	d.Dispatcher = webhook.NewDispatcher(cfg.Webhook.EventTimeout, d.Logger)
	signing.NewActions(d.Backend, d.Logger).Register(d.Dispatcher)

	d.Logger.Info("webhook dispatcher initialized",
		zap.Int("kinds", d.Dispatcher.Kinds()),
		zap.Duration("event_timeout", cfg.Webhook.EventTimeout))
}

func (d *Dependencies) initProxies(cfg *config.Config) error {
	backend, err := proxy.New(proxy.Options{
		Name:        "backend",
		Target:      cfg.Backend.BaseURL,
		StripPrefix: BackendProxyPrefix,
		Timeout:     cfg.Backend.Timeout,
	}, d.Logger)
	if err != nil {
		return err
	}

	frontend, err := proxy.New(proxy.Options{
		Name:   "frontend",
		Target: cfg.Frontend.UpstreamURL,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.BackendProxy = backend
	d.FrontendProxy = frontend
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs error

	if d.Receipts != nil && d.Receipts.Enabled() {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Receipts.Stop(timeout); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to stop delivery receipts: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	_ = d.Logger.Sync()

	return errs
}

func (d *Dependencies) closeDB() {
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
