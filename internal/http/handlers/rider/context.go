package rider

import (
	"strings"

	"github.com/dispatch-next/internal/constants"

	"github.com/gin-gonic/gin"
)

func currentRiderID(c *gin.Context) string {
	value, ok := c.Get("user_id")
	if !ok {
		return ""
	}
	if id, ok := value.(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

func isManagerRole(c *gin.Context) bool {
	value, ok := c.Get("user_role")
	if !ok {
		return false
	}
	role, ok := value.(string)
	return ok && strings.TrimSpace(role) == constants.RoleManager
}
