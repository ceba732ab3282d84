package api

import (
	"github.com/gin-gonic/gin"

	"github.com/blueberry-insights/talentflow/internal/handlers"
	"github.com/blueberry-insights/talentflow/internal/services"
)

// registerAssessmentRoutes mounts the candidate-facing routes. They carry no
// session auth: the invite token in the URL or body is the sole credential.
func registerAssessmentRoutes(api *gin.RouterGroup, assessments *services.AssessmentService) error {
	handler, err := handlers.NewAssessmentHandler(assessments)
	if err != nil {
		return err
	}

	api.GET("/assessments/:token", handler.Start)
	api.POST("/submissions/:id/answers", handler.Submit)
	return nil
}
