package handler

import (
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/iris"
	"github.com/gin-gonic/gin"
)

type IrisHandler struct {
	iris *iris.IrisUseCase
}

func NewIrisHandler(irisUseCase *iris.IrisUseCase) *IrisHandler {
	return &IrisHandler{iris: irisUseCase}
}

type IrisSearchRequest struct {
	Query string `json:"query" binding:"required,max=1000"`
}

// Search handles POST /iris/search
func (h *IrisHandler) Search(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req IrisSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.iris.Search(c.Request.Context(), viewerID, req.Query, middleware.Day(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
