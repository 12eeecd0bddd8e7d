package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoptalk/backend/config"
	"github.com/shoptalk/backend/internal/domain"
)

type stubChat struct {
	lastReq *domain.ChatRequest
}

func (s *stubChat) Process(_ context.Context, req *domain.ChatRequest) *domain.ChatResponse {
	s.lastReq = req
	return &domain.ChatResponse{
		Response:  "Happy to help!",
		SessionID: req.SessionID,
	}
}

type stubCatalog struct {
	snap *domain.CatalogSnapshot
	err  error
}

func (s *stubCatalog) FetchCatalog(context.Context) (*domain.CatalogSnapshot, error) {
	return s.snap, s.err
}

func (s *stubCatalog) FetchProductDetails(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (s *stubCatalog) SearchProducts(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

func newTestRouter(chat *stubChat, catalog *stubCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.Environment = "test"
	cfg.Server.AllowedOrigins = []string{"https://shop.example.com", "https://*.preview.example.com"}
	return SetupRouter(cfg, NewHandler(chat, catalog))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&stubChat{}, &stubCatalog{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "shoptalk-backend", body["service"])
}

func TestChatEndpoint(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		chat := &stubChat{}
		router := newTestRouter(chat, &stubCatalog{})

		payload, _ := json.Marshal(map[string]string{
			"message":   "is there a sale?",
			"sessionId": "s1",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, chat.lastReq)
		assert.Equal(t, "is there a sale?", chat.lastReq.Message)
		assert.Equal(t, "s1", chat.lastReq.SessionID)

		var resp domain.ChatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Happy to help!", resp.Response)
		assert.Equal(t, "s1", resp.SessionID)
	})

	t.Run("missing message is a client error", func(t *testing.T) {
		router := newTestRouter(&stubChat{}, &stubCatalog{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"sessionId":"s1"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("whitespace-only message is a client error", func(t *testing.T) {
		router := newTestRouter(&stubChat{}, &stubCatalog{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"message":"   \n\t"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is a client error", func(t *testing.T) {
		router := newTestRouter(&stubChat{}, &stubCatalog{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCatalogEndpoint(t *testing.T) {
	t.Run("summarizes the snapshot", func(t *testing.T) {
		snap := domain.BuildSnapshot([]domain.Product{
			{Name: "AeroDry 2100", Price: "£49.99", OriginalPrice: "£79.99", Category: "hair care"},
		}, []string{"hair care"}, nil, true, false, false)
		router := newTestRouter(&stubChat{}, &stubCatalog{snap: snap})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["products"])
		assert.Equal(t, true, body["hasSales"])
	})

	t.Run("degrades when the catalog is unavailable", func(t *testing.T) {
		router := newTestRouter(&stubChat{}, &stubCatalog{err: domain.ErrSiteUnavailable})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(0), body["products"])
	})
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(&stubChat{}, &stubCatalog{})

	t.Run("allowed origin gets headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard prefix matches", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://pr-42.preview.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://pr-42.preview.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.net")
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is short-circuited", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(&stubChat{}, &stubCatalog{})

	t.Run("assigns an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("preserves a supplied id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		router.ServeHTTP(w, req)

		assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
	})
}
