package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/utils"
)

// AdminController exposes the administrative surface. Access is limited to
// usernames listed in the AdminUsernames configuration.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// RequireAdmin aborts with 403 for authenticated non-admin users.
func (a *AdminController) RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !isAdmin(ctx) {
			userID, _ := getUserID(ctx)
			utils.AuditCRUD("access", "admin", 0, userID, utils.OutcomeDenied, "not_admin")
			utils.Error(ctx, http.StatusForbidden, 40305, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// ListUsers returns paginated registered users.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count users")
		return
	}

	var users []models.User
	if err := a.db.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list users")
		return
	}

	utils.Success(ctx, gin.H{
		"items": users,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}
