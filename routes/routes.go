package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/lending-edge/app"
	"github.com/upb/lending-edge/handlers"
	"github.com/upb/lending-edge/middleware"
	"github.com/upb/lending-edge/utils"
)

// WebhookPath is where the document-signing provider delivers events
const WebhookPath = "/api/webhooks/signing"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware. The gate runs on every request; allow-listed paths
	// (assets, auth pages, /api/, probes) pass straight through it.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(deps.SessionGate.Handler)

	health := handlers.NewHealthHandler(healthChecker(deps), deps.Verifier != nil, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	webhooks := handlers.NewWebhookHandler(deps.Verifier, deps.Dispatcher, deps.Receipts, handlers.WebhookOptions{
		SignatureParam: cfg.Webhook.SignatureParam,
		MaxBodyBytes:   cfg.Webhook.MaxBodyBytes,
	}, deps.Logger)
	// Every method reaches the handler so it can answer 405 with Allow: POST
	r.HandleFunc(WebhookPath, webhooks.HandleSigningWebhook)

	r.Route(app.BackendProxyPrefix, func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Frontend.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Handle("/", deps.BackendProxy)
		r.Handle("/*", deps.BackendProxy)
	})

	// Anything else under /api/ is not ours to forward
	r.HandleFunc("/api/*", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	if cfg.Frontend.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Frontend.StaticDir))))
	} else {
		r.Handle("/static/*", deps.FrontendProxy)
	}

	// Page routes belong to the dashboard UI
	r.NotFound(deps.FrontendProxy.ServeHTTP)
	r.MethodNotAllowed(deps.FrontendProxy.ServeHTTP)

	return r
}

// healthChecker avoids handing the handler a typed nil
func healthChecker(deps *app.Dependencies) handlers.HealthChecker {
	if deps.DB == nil {
		return nil
	}
	return deps.DB
}
