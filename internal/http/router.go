package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/oauth2"

	"github.com/inboxtriage/backend/internal/config"
	"github.com/inboxtriage/backend/internal/db"
	"github.com/inboxtriage/backend/internal/http/handlers"
	"github.com/inboxtriage/backend/internal/http/middleware"
	"github.com/inboxtriage/backend/internal/service"

	_ "github.com/inboxtriage/backend/docs"
)

type Deps struct {
	Store      *db.Store
	Pipeline   *service.Pipeline
	Aggregator *service.Aggregator
	Seeder     *service.Seeder
	Syncer     *service.Syncer
	OAuth      *oauth2.Config
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:      deps.Store,
		Pipeline:   deps.Pipeline,
		Aggregator: deps.Aggregator,
		Seeder:     deps.Seeder,
		Syncer:     deps.Syncer,
		OAuth:      deps.OAuth,
		Validator:  validator.New(),
		Logger:     logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/emails", h.EmailsList)
		api.GET("/emails/:id", h.EmailDetails)
		api.GET("/emails/:id/responses", h.ResponsesList)
		api.POST("/emails/:id/responses", h.ResponseRegenerate)
		api.POST("/emails/:id/resolve", h.EmailResolve)
		api.POST("/responses/:id/send", h.ResponseSend)

		api.POST("/sync", h.Sync)
		api.POST("/process-urgent", h.ProcessUrgent)
		api.POST("/seed", h.Seed)

		api.GET("/analytics/today", h.AnalyticsToday)
		api.GET("/analytics/range", h.AnalyticsRange)

		api.GET("/auth/gmail", h.GmailAuthURL)
		api.POST("/auth/gmail/callback", h.GmailAuthCallback)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
