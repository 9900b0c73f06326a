package ops

import (
	"strconv"
	"strings"

	"github.com/dispatch-next/internal/constants"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) string {
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

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
