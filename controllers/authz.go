package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avdeevm/blogapi/config"
	"github.com/avdeevm/blogapi/middleware"
	"github.com/avdeevm/blogapi/models"
)

// authorize is the single ownership rule shared by every article and comment
// mutation: the acting user must be the resource's author. Violations always
// surface as 403, never as a silent no-op.
func authorize(actingUserID uint, resource models.Owned) bool {
	return actingUserID == resource.OwnerID()
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	uname, _ := value.(string)
	return uname
}

// isAdmin reports whether the authenticated user is listed in AdminUsernames.
// Admins may delete any article or comment but never edit foreign records.
func isAdmin(ctx *gin.Context) bool {
	uname := getUsername(ctx)
	if uname == "" {
		return false
	}
	cfg := config.Get()
	for _, u := range cfg.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
