package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/app"
	"github.com/blueberry-insights/talentflow/internal/handlers"
	"github.com/blueberry-insights/talentflow/internal/middleware"
	"github.com/blueberry-insights/talentflow/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	invites, err := services.NewInviteService(db, cfg.InviteServiceOptions()...)
	if err != nil {
		return nil, err
	}
	catalog, err := services.NewCatalogService(db)
	if err != nil {
		return nil, err
	}
	submissions, err := services.NewSubmissionService(db)
	if err != nil {
		return nil, err
	}
	candidates, err := services.NewCandidateService(db)
	if err != nil {
		return nil, err
	}
	flows, err := services.NewFlowService(db, catalog, submissions, candidates)
	if err != nil {
		return nil, err
	}
	assessments, err := services.NewAssessmentService(db, invites, catalog, submissions, candidates, flows)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	api := r.Group("/api")

	if err := registerAssessmentRoutes(api, assessments); err != nil {
		return nil, err
	}
	if err := registerInviteRoutes(api, invites); err != nil {
		return nil, err
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
