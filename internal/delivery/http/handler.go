package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shoptalk/backend/internal/domain"
)

// ChatService is the orchestrator contract the HTTP layer depends on.
type ChatService interface {
	Process(ctx context.Context, req *domain.ChatRequest) *domain.ChatResponse
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	chat    ChatService
	catalog domain.CatalogProvider
}

// NewHandler creates a new HTTP handler
func NewHandler(chat ChatService, catalog domain.CatalogProvider) *Handler {
	return &Handler{chat: chat, catalog: catalog}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shoptalk-backend",
		"version": "1.0.0",
	})
}

// Chat handles one conversational turn. A missing or empty message is a
// client error; everything past validation degrades inside the orchestrator
// and always yields a renderable response.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  domain.ErrInvalidRequest.Error(),
			"detail": "message is required and must be a non-empty string",
		})
		return
	}

	resp := h.chat.Process(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// Catalog returns a summary of the current catalog snapshot.
func (h *Handler) Catalog(c *gin.Context) {
	snap, err := h.catalog.FetchCatalog(c.Request.Context())
	if err != nil || snap == nil {
		c.JSON(http.StatusOK, gin.H{
			"products":   0,
			"categories": []string{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":       len(snap.Products),
		"categories":     snap.Categories,
		"hasSales":       snap.HasSales,
		"hasBlackFriday": snap.HasBlackFriday,
		"saleItems":      len(snap.Sales),
		"fetchedAt":      snap.FetchedAt,
	})
}
