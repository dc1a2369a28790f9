package signing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lending-edge/internal/webhook"
	"github.com/upb/lending-edge/services"
	"go.uber.org/zap"
)

const testSecret = "service-secret"

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]interface{}
}

func newBackend(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.EscapedPath(),
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL + "/", Timeout: 2 * time.Second},
		NewTokenSource(testSecret, "lending-edge", time.Minute), zap.NewNop())
}

func TestClient_CreateSigningSession(t *testing.T) {
	server, requests := newBackend(t, http.StatusCreated)
	client := newTestClient(server.URL)

	err := client.CreateSigningSession(context.Background(), SigningSessionRequest{DocumentID: "doc-1", Status: "signed"})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/signing-sessions", reqs[0].Path)
	assert.Equal(t, "doc-1", reqs[0].Body["document_id"])
	assert.Equal(t, "signed", reqs[0].Body["status"])

	require.True(t, strings.HasPrefix(reqs[0].Authorization, "Bearer "))
	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(reqs[0].Authorization, "Bearer "), claims,
		func(token *jwt.Token) (interface{}, error) { return []byte(testSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "lending-edge", claims.Issuer)
	assert.Equal(t, ScopeSigningSessions, claims.Scope)
	assert.NotEmpty(t, claims.ID)
}

func TestClient_FinalizeDocumentEscapesID(t *testing.T) {
	server, requests := newBackend(t, http.StatusOK)
	client := newTestClient(server.URL)

	err := client.FinalizeDocument(context.Background(), "doc/2", FinalizeDocumentRequest{})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/documents/doc%2F2/finalize", reqs[0].Path)
	assert.NotContains(t, reqs[0].Body, "download_url")
}

func TestClient_NonSuccessIsDownstreamError(t *testing.T) {
	server, requests := newBackend(t, http.StatusConflict)
	client := newTestClient(server.URL)

	err := client.CreateSigningSession(context.Background(), SigningSessionRequest{DocumentID: "doc-1", Status: "signed"})
	require.Error(t, err)
	assert.True(t, services.IsDownstreamError(err))
	assert.Equal(t, http.StatusConflict, services.GetErrorDetails(err)["status"])
	assert.Contains(t, err.Error(), "backend rejected request")
	assert.Empty(t, services.ErrDownstreamRejected.Details, "sentinel stays untouched")
	assert.Len(t, requests(), 1, "no retries")
}

func TestClient_UnreachableBackend(t *testing.T) {
	server, _ := newBackend(t, http.StatusOK)
	url := server.URL
	server.Close()

	err := newTestClient(url).FinalizeDocument(context.Background(), "doc-1", FinalizeDocumentRequest{})
	require.Error(t, err)
	assert.True(t, services.IsDownstreamError(err))
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestClient_WithoutSecretSendsNoAuthorization(t *testing.T) {
	server, requests := newBackend(t, http.StatusOK)
	client := NewClient(Config{BaseURL: server.URL}, NewTokenSource("", "lending-edge", 0), zap.NewNop())

	require.NoError(t, client.FinalizeDocument(context.Background(), "doc-1", FinalizeDocumentRequest{}))
	assert.Empty(t, requests()[0].Authorization)
}

func TestTokenSource_Expiry(t *testing.T) {
	source := NewTokenSource(testSecret, "lending-edge", time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return issued }

	signed, err := source.Token(ScopeDocuments)
	require.NoError(t, err)

	claims := &ServiceClaims{}
	_, err = jwt.ParseWithClaims(signed, claims,
		func(token *jwt.Token) (interface{}, error) { return []byte(testSecret), nil },
		jwt.WithTimeFunc(func() time.Time { return issued.Add(30 * time.Second) }))
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Minute), claims.ExpiresAt.Time)

	_, err = jwt.ParseWithClaims(signed, &ServiceClaims{},
		func(token *jwt.Token) (interface{}, error) { return []byte(testSecret), nil },
		jwt.WithTimeFunc(func() time.Time { return issued.Add(2 * time.Minute) }))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CreateSigningSession(ctx context.Context, req SigningSessionRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockBackend) FinalizeDocument(ctx context.Context, documentID string, req FinalizeDocumentRequest) error {
	return m.Called(ctx, documentID, req).Error(0)
}

func event(t *testing.T, kind string, data interface{}) webhook.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return webhook.Event{Type: kind, Data: raw}
}

func TestActions_RegisteredOnDispatcher(t *testing.T) {
	backend := new(mockBackend)
	backend.On("CreateSigningSession", mock.Anything, SigningSessionRequest{DocumentID: "doc-1", Status: "signed"}).Return(nil)
	backend.On("FinalizeDocument", mock.Anything, "doc-2", FinalizeDocumentRequest{DownloadURL: "https://files.example.com/doc-2.pdf"}).Return(nil)

	dispatcher := webhook.NewDispatcher(time.Second, zap.NewNop())
	NewActions(backend, zap.NewNop()).Register(dispatcher)

	report := dispatcher.Dispatch(context.Background(), []webhook.Event{
		event(t, webhook.KindDocumentStateChanged, map[string]string{"document_id": "doc-1", "status": "signed"}),
		event(t, "document_viewed", map[string]string{"document_id": "doc-1"}),
		event(t, webhook.KindDocumentCompletedPDFReady, map[string]string{
			"document_id":  "doc-2",
			"download_url": "https://files.example.com/doc-2.pdf",
		}),
	})

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Dispatched)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	backend.AssertExpectations(t)
}

func TestActions_BackendFailureReported(t *testing.T) {
	backend := new(mockBackend)
	backend.On("CreateSigningSession", mock.Anything, mock.Anything).
		Return(services.WrapDownstream("backend rejected request", assert.AnError))
	backend.On("FinalizeDocument", mock.Anything, "doc-2", mock.Anything).Return(nil)

	dispatcher := webhook.NewDispatcher(time.Second, zap.NewNop())
	NewActions(backend, zap.NewNop()).Register(dispatcher)

	report := dispatcher.Dispatch(context.Background(), []webhook.Event{
		event(t, webhook.KindDocumentStateChanged, map[string]string{"document_id": "doc-1", "status": "declined"}),
		event(t, webhook.KindDocumentCompletedPDFReady, map[string]string{"document_id": "doc-2"}),
	})

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Dispatched)
	require.Len(t, report.Failures(), 1)
	assert.True(t, services.IsDownstreamError(report.Failures()[0]))
	backend.AssertExpectations(t)
}
