package handlers

import (
	"fleet-coordinator/internal/services"

	"github.com/gin-gonic/gin"
)

// viewerFromContext rebuilds the role-scoped viewer from the claims the
// auth middleware placed on the request context.
func viewerFromContext(c *gin.Context) services.Viewer {
	viewer := services.Viewer{}
	if userID, exists := c.Get("user_id"); exists {
		viewer.UserID, _ = userID.(string)
	}
	if role, exists := c.Get("role"); exists {
		viewer.Role, _ = role.(string)
	}
	if company, exists := c.Get("company"); exists {
		viewer.Company, _ = company.(string)
	}
	return viewer
}
