package main

import (
	"log/slog"
	"net/http"

	"phone_auth/internal/handler"
	"phone_auth/internal/metrics"
	"phone_auth/internal/middleware"
	"phone_auth/internal/service"
	"phone_auth/internal/utils"

	"github.com/gin-gonic/gin"
)

type routerDeps struct {
	logger        *slog.Logger
	authService   service.AuthService
	jwtUtil       *utils.JWTUtil
	metrics       *metrics.Metrics
	db            handler.Pinger
	corsOrigins   []string
	exposeDetails bool
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(d.logger),
		middleware.AccessLogMiddleware(d.logger, d.metrics),
		middleware.RecoveryMiddleware(d.logger),
		middleware.CORSMiddleware(d.corsOrigins),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	jwtAuthMW := middleware.JWTAuthMiddleware(d.jwtUtil)

	authHandler := handler.NewAuthHandler(d.authService, d.metrics, d.logger, d.exposeDetails)
	healthHandler := handler.NewHealthHandler(d.db)

	apiGroup := router.Group("/api")
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	healthHandler.RegisterHealthRoutes(router)
	router.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	return router
}
