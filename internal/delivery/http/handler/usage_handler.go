package handler

import (
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	gate *entitlement.Gate
}

func NewUsageHandler(gate *entitlement.Gate) *UsageHandler {
	return &UsageHandler{gate: gate}
}

type CommunityQuery struct {
	Joined int `form:"joined" binding:"min=0"`
}

// GetUsage handles GET /usage
func (h *UsageHandler) GetUsage(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	status, err := h.gate.Status(c.Request.Context(), viewerID, middleware.Day(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CanJoinCommunity handles GET /usage/communities?joined=N
func (h *UsageHandler) CanJoinCommunity(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var q CommunityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	decision, err := h.gate.CanJoinCommunity(c.Request.Context(), viewerID, q.Joined)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}
