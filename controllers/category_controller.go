package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/utils"
)

// CategoryController manages the flat category catalog.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// ListCategories returns all categories in name order. No authentication required.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// CreateCategory adds a new category. Requires authentication but carries no
// ownership; the name must be unique.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Description string `json:"description"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "name cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var existing models.Category
	if err := c.db.Where("name = ?", name).First(&existing).Error; err == nil {
		utils.AuditCRUD("create", "category", existing.ID, userID, utils.OutcomeFailure, "name_exists")
		utils.Error(ctx, http.StatusConflict, 40902, "category already exists")
		return
	}

	category := models.Category{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	if err := c.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.AuditCRUD("create", "category", 0, userID, utils.OutcomeFailure, "name_exists")
			utils.Error(ctx, http.StatusConflict, 40902, "category already exists")
			return
		}
		utils.AuditCRUD("create", "category", 0, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create category")
		return
	}

	utils.AuditCRUD("create", "category", category.ID, userID, utils.OutcomeSuccess, "")
	utils.Created(ctx, gin.H{"category": category})
}
