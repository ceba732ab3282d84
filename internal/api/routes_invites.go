package api

import (
	"github.com/gin-gonic/gin"

	"github.com/blueberry-insights/talentflow/internal/handlers"
	"github.com/blueberry-insights/talentflow/internal/services"
)

// registerInviteRoutes mounts the staff-facing invite lifecycle routes.
func registerInviteRoutes(api *gin.RouterGroup, invites *services.InviteService) error {
	handler, err := handlers.NewInviteHandler(invites)
	if err != nil {
		return err
	}

	group := api.Group("/invites")
	{
		group.POST("", handler.Create)
		group.GET("", handler.List)
		group.DELETE("/:id", handler.Revoke)
		group.POST("/:id/link", handler.Link)
	}
	return nil
}
