package handler

import (
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/profile"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase *profile.ProfileUseCase
}

func NewProfileHandler(profileUseCase *profile.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

// GetMyProfile handles GET /profile/me
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	resp, err := h.profileUseCase.GetMyProfile(c.Request.Context(), viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProfile handles GET /profile/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	resp, err := h.profileUseCase.GetProfile(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateLocation handles PUT /profile/me/location
func (h *ProfileHandler) UpdateLocation(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}

	var req profile.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.profileUseCase.UpdateLocation(c.Request.Context(), viewerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
