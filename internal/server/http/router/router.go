package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/server/http/handlers"
	"github.com/polkiloo/paperdesk/internal/server/http/middleware"
)

// formFieldBytes is the allowance for non-file multipart fields on top of
// the largest accepted upload.
const formFieldBytes = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DeskFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 20

	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(cfg.ServiceName))
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics())
	engine.Use(middleware.DecompressRequest(cfg.MaxUploadBytes + formFieldBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/attachments/"})))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade, cfg.MaxUploadBytes)
	checkoutHandler := handlers.NewCheckoutHandler(facade, cfg.FrontendURL, cfg.MaxUploadBytes)
	adminHandler := handlers.NewAdminHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/metrics", middleware.PrometheusHandler())

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)
	api.GET("/catalog", orderHandler.Catalog)
	api.POST("/quote", orderHandler.Quote)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/password/forgot", authHandler.RequestPasswordReset)
	auth.POST("/password/reset", authHandler.ResetPassword)

	// The gateway redirects the buyer's browser here without our token.
	api.GET("/checkout/return", checkoutHandler.Return)
	api.GET("/checkout/cancel", checkoutHandler.Cancel)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/profile", authHandler.Profile)
	authed.PATCH("/profile", authHandler.UpdateProfile)
	authed.POST("/checkout", checkoutHandler.Start)
	authed.GET("/checkout/:id", checkoutHandler.Status)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/attachments", orderHandler.AddAttachment)
	authed.GET("/attachments/:id", orderHandler.DownloadAttachment)

	writer := authed.Group("/writer")
	writer.Use(middleware.WriterRequired(facade))
	writer.GET("/orders", orderHandler.WriterList)

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired(facade))
	admin.GET("/orders", adminHandler.Orders)
	admin.GET("/clients", adminHandler.Clients)
	admin.GET("/writers", adminHandler.Writers)
	admin.GET("/stats", adminHandler.Stats)
	admin.PATCH("/orders/:id/status", adminHandler.ChangeStatus)
	admin.PUT("/orders/:id/writer", adminHandler.AssignWriter)

	return engine
}
