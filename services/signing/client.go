package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/lending-edge/services"
	"go.uber.org/zap"
)

// Scopes carried by service tokens
const (
	ScopeSigningSessions = "signing_sessions:write"
	ScopeDocuments       = "documents:write"
)

// maxErrorBody bounds how much of a failed response is kept for logging
const maxErrorBody = 4 << 10

// Config holds backend client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the lending backend on behalf of webhook events. It never
// retries; a failed call is reported to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenSource
	logger     *zap.Logger
}

// NewClient creates a new backend client
func NewClient(cfg Config, tokens *TokenSource, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// SigningSessionRequest is the body of POST /signing-sessions
type SigningSessionRequest struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// FinalizeDocumentRequest is the body of POST /documents/{id}/finalize
type FinalizeDocumentRequest struct {
	DownloadURL string `json:"download_url,omitempty"`
}

// CreateSigningSession asks the backend to open or advance the signing
// session for a document whose state changed
func (c *Client) CreateSigningSession(ctx context.Context, req SigningSessionRequest) error {
	return c.post(ctx, "/signing-sessions", ScopeSigningSessions, req)
}

// FinalizeDocument asks the backend to fetch and store a completed document
func (c *Client) FinalizeDocument(ctx context.Context, documentID string, req FinalizeDocumentRequest) error {
	return c.post(ctx, "/documents/"+url.PathEscape(documentID)+"/finalize", ScopeDocuments, req)
}

func (c *Client) post(ctx context.Context, path, scope string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return services.ErrInternal.Wrap(fmt.Errorf("marshal backend request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return services.WrapInternal("build backend request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(scope)
		if err != nil {
			return services.WrapInternal("mint service token", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.ErrDownstreamUnavailable.Wrap(err).
			WithDetail("path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("backend rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return services.ErrDownstreamRejected.Wrap(fmt.Errorf("POST %s: status %d", path, resp.StatusCode)).
			WithDetail("path", path).
			WithDetail("status", resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
