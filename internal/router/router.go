package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docwatch/internal/auth"
	"docwatch/internal/handler"
	"docwatch/internal/middleware"
)

// Options carries the optional pieces of the gateway.
type Options struct {
	// Validator guards /api/v1; nil disables authentication.
	Validator      auth.TokenValidator
	AllowedOrigins []string
	Metrics        http.Handler
	Observer       middleware.RequestObserver
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(runH *handler.RunHandler, healthH *handler.HealthHandler, opts Options) *gin.Engine {
	r := gin.New()
	// Object keys contain slashes and are sent path-escaped as :key.
	r.UseRawPath = true
	r.UnescapePathValues = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(opts.Validator))

	runs := v1.Group("/runs")
	runs.POST("", runH.Start)
	runs.GET("/:key", runH.Get)
	runs.DELETE("/:key", runH.Cancel)
	runs.GET("/:key/report", runH.Report)
	runs.GET("/:key/snapshots", runH.History)

	v1.POST("/uploads", runH.Upload)
	v1.POST("/links", runH.Links)
	v1.POST("/evaluate", runH.Evaluate)

	return r
}
