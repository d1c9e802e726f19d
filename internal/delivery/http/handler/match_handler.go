package handler

import (
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/chat"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	swipes *swipe.Processor
	chat   *chat.ChatUseCase
}

func NewMatchHandler(swipes *swipe.Processor, chatUseCase *chat.ChatUseCase) *MatchHandler {
	return &MatchHandler{
		swipes: swipes,
		chat:   chatUseCase,
	}
}

type OpenerRequest struct {
	Body string `json:"body" binding:"required"`
}

// ListMatches handles GET /matches
func (h *MatchHandler) ListMatches(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	matches, err := h.swipes.ListMatches(c.Request.Context(), viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// SendOpener handles POST /matches/:id/opener
func (h *MatchHandler) SendOpener(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req OpenerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	opener, err := h.chat.SendOpener(c.Request.Context(), viewerID, c.Param("id"), req.Body, middleware.Day(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, opener)
}
