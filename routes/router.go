package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cppla/agp/config"
	"github.com/cppla/agp/controllers"
	"github.com/cppla/agp/middleware"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/repository"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Engine  *services.Engine
	Store   repository.Store
	Clock   services.Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AccessLogger receives one line per request; nil uses Logger.
	AccessLogger *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	access := deps.AccessLogger
	if access == nil {
		access = logger
	}

	r := gin.New()
	r.Use(utils.Ginzap(access, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(access, false))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	userController := controllers.NewUserController(deps.Engine.Users, cfg.DefaultUserID, logger, deps.Metrics)
	pointsController := controllers.NewPointsController(deps.Engine.Points, logger, deps.Metrics)
	agentController := controllers.NewAgentController(deps.Engine.Agents, cfg.DefaultUserID, logger, deps.Metrics)
	statsController := controllers.NewStatsController(deps.Store, deps.Clock, logger, deps.Metrics)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))

	api.POST("/users", userController.EnsureUser)
	api.GET("/users/:id", userController.GetUser)
	api.GET("/users/:id/achievements", userController.ListAchievements)
	api.GET("/users/:id/points", pointsController.GetBalance)
	api.POST("/users/:id/points", pointsController.AddPoints)
	api.GET("/users/:id/transactions", pointsController.ListTransactions)

	api.POST("/agents", agentController.CreateAgent)
	api.GET("/agents", agentController.ListAgents)
	api.GET("/agents/:id", agentController.GetAgent)
	api.PATCH("/agents/:id", agentController.UpdateAgent)
	api.DELETE("/agents/:id", agentController.DeleteAgent)
	api.POST("/agents/:id/xp", agentController.AddXP)
	api.POST("/agents/:id/traits", agentController.AddTrait)

	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "api route not found")
	})

	return r
}
