package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeUpgradeRequired = "upgrade_required"
	CodeRetryable       = "retryable"
	CodeNoSession       = "no_session"
	CodeStaleCard       = "stale_card"
	CodeAIUnavailable   = "ai_unavailable"
	CodeInvalidRequest  = "invalid_request"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// checked in order; the first errors.Is match wins
var errorMappings = []errorMapping{
	{domain.ErrEntitlementExceeded, http.StatusPaymentRequired, CodeUpgradeRequired},
	{domain.ErrPoolFetchFailed, http.StatusServiceUnavailable, CodeRetryable},
	{domain.ErrSwipePersistFailed, http.StatusServiceUnavailable, CodeRetryable},
	{domain.ErrScoringUnavailable, http.StatusServiceUnavailable, CodeAIUnavailable},
	{domain.ErrInvalidToken, http.StatusUnauthorized, ""},
	{domain.ErrNoSession, http.StatusNotFound, CodeNoSession},
	{domain.ErrNotCurrentCandidate, http.StatusConflict, CodeStaleCard},
	{domain.ErrNotMatchParticipant, http.StatusForbidden, ""},
	{domain.ErrProfileNotFound, http.StatusNotFound, ""},
	{domain.ErrMatchNotFound, http.StatusNotFound, ""},
	{domain.ErrCannotSwipeSelf, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrInvalidDirection, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrInvalidUsageKind, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrEmptyQuery, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrEmptyMessage, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrGeolocationUnavailable, http.StatusBadRequest, CodeInvalidRequest},
}

// respondError writes the status and body for a usecase error. Unknown
// errors become 500 without leaking the message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeInvalidRequest})
}

// viewer returns the authenticated profile id or writes 401.
func viewer(c *gin.Context) (string, bool) {
	id, ok := middleware.ProfileID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return id, ok
}
