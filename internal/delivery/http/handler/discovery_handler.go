package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/chat"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/discovery"
	"github.com/gin-gonic/gin"
)

type DiscoveryHandler struct {
	discovery *discovery.Service
	chat      *chat.ChatUseCase
}

func NewDiscoveryHandler(discoveryService *discovery.Service, chatUseCase *chat.ChatUseCase) *DiscoveryHandler {
	return &DiscoveryHandler{
		discovery: discoveryService,
		chat:      chatUseCase,
	}
}

// StartSessionRequest carries the optional one-shot device position.
type StartSessionRequest struct {
	Position *geo.Position `json:"position"`
}

type SwipeRequest struct {
	CandidateID string           `json:"candidate_id" binding:"required"`
	Direction   domain.Direction `json:"direction" binding:"required,direction"`
}

type IcebreakerRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// CurrentResponse wraps the current card; Exhausted is set when the queue has no more cards.
type CurrentResponse struct {
	Card      *discovery.Card `json:"card"`
	Exhausted bool            `json:"exhausted"`
}

// StartSession handles POST /discovery/session
func (h *DiscoveryHandler) StartSession(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	info, err := h.discovery.StartSession(c.Request.Context(), viewerID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Current handles GET /discovery/current
func (h *DiscoveryHandler) Current(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	card, err := h.discovery.Current(c.Request.Context(), viewerID, middleware.Day(c))
	if errors.Is(err, domain.ErrQueueExhausted) {
		c.JSON(http.StatusOK, CurrentResponse{Exhausted: true})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CurrentResponse{Card: card})
}

// Swipe handles POST /discovery/swipe
func (h *DiscoveryHandler) Swipe(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.discovery.Swipe(c.Request.Context(), viewerID, req.CandidateID, req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Icebreaker handles POST /discovery/icebreaker
func (h *DiscoveryHandler) Icebreaker(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req IcebreakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	suggestion, err := h.chat.SuggestIcebreaker(c.Request.Context(), viewerID, req.CandidateID, middleware.Day(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestion)
}
