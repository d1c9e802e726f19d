package http

import (
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	discoveryHandler *handler.DiscoveryHandler
	matchHandler     *handler.MatchHandler
	irisHandler      *handler.IrisHandler
	usageHandler     *handler.UsageHandler
	profileHandler   *handler.ProfileHandler
	authMiddleware   *middleware.AuthMiddleware
	log              logging.Logger
	now              func() time.Time
}

func NewRouter(
	discoveryHandler *handler.DiscoveryHandler,
	matchHandler *handler.MatchHandler,
	irisHandler *handler.IrisHandler,
	usageHandler *handler.UsageHandler,
	profileHandler *handler.ProfileHandler,
	authMiddleware *middleware.AuthMiddleware,
	log logging.Logger,
) *Router {
	return &Router{
		discoveryHandler: discoveryHandler,
		matchHandler:     matchHandler,
		irisHandler:      irisHandler,
		usageHandler:     usageHandler,
		profileHandler:   profileHandler,
		authMiddleware:   authMiddleware,
		log:              log,
		now:              time.Now,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Observe(r.log))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth(), middleware.UsageDay(r.now))
	{
		discovery := v1.Group("/discovery")
		{
			discovery.POST("/session", r.discoveryHandler.StartSession)
			discovery.GET("/current", r.discoveryHandler.Current)
			discovery.POST("/swipe", r.discoveryHandler.Swipe)
			discovery.POST("/icebreaker", r.discoveryHandler.Icebreaker)
		}

		matches := v1.Group("/matches")
		{
			matches.GET("", r.matchHandler.ListMatches)
			matches.POST("/:id/opener", r.matchHandler.SendOpener)
		}

		v1.POST("/iris/search", r.irisHandler.Search)

		usage := v1.Group("/usage")
		{
			usage.GET("", r.usageHandler.GetUsage)
			usage.GET("/communities", r.usageHandler.CanJoinCommunity)
		}

		profile := v1.Group("/profile")
		{
			profile.GET("/me", r.profileHandler.GetMyProfile)
			profile.PUT("/me/location", r.profileHandler.UpdateLocation)
			profile.GET("/:id", r.profileHandler.GetProfile)
		}
	}

	return router, nil
}
