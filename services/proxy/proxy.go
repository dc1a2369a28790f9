// Package proxy forwards requests to the REST backend and the dashboard UI.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/upb/lending-edge/middleware"
	"github.com/upb/lending-edge/utils"
	"go.uber.org/zap"
)

// Upstream is a reverse proxy to a single origin
type Upstream struct {
	name        string
	target      *url.URL
	stripPrefix string
	proxy       *httputil.ReverseProxy
	logger      *zap.Logger
}

// Options configures an Upstream
type Options struct {
	Name        string
	Target      string
	StripPrefix string // removed from the request path before forwarding
	Timeout     time.Duration
}

// New creates an Upstream for the given options
func New(opts Options, logger *zap.Logger) (*Upstream, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("parse %s upstream: %w", opts.Name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s upstream must be an absolute URL: %q", opts.Name, opts.Target)
	}

	u := &Upstream{
		name:        opts.Name,
		target:      target,
		stripPrefix: strings.TrimSuffix(opts.StripPrefix, "/"),
		logger:      logger,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Timeout > 0 {
		transport.ResponseHeaderTimeout = opts.Timeout
	}

	u.proxy = &httputil.ReverseProxy{
		Rewrite:      u.rewrite,
		Transport:    transport,
		ErrorHandler: u.handleError,
	}
	return u, nil
}

// ServeHTTP implements http.Handler
func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.proxy.ServeHTTP(w, r)
}

func (u *Upstream) rewrite(pr *httputil.ProxyRequest) {
	if u.stripPrefix != "" {
		pr.Out.URL.Path = trimPathPrefix(pr.In.URL.Path, u.stripPrefix)
		if pr.In.URL.RawPath != "" {
			pr.Out.URL.RawPath = trimPathPrefix(pr.In.URL.RawPath, u.stripPrefix)
		}
	}
	pr.SetURL(u.target)
	pr.SetXForwarded()

	if requestID := middleware.GetRequestIDFromContext(pr.In.Context()); requestID != "" {
		pr.Out.Header.Set("X-Request-ID", requestID)
	}
}

func (u *Upstream) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		// client went away
		return
	}
	u.logger.Error("upstream request failed",
		zap.String("upstream", u.name),
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	_ = utils.WriteBadGateway(w, u.name+" unavailable")
}

func trimPathPrefix(p, prefix string) string {
	if p == prefix {
		return "/"
	}
	if strings.HasPrefix(p, prefix+"/") {
		return p[len(prefix):]
	}
	return p
}
