package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/utils"
)

// ArticleController manages CRUD operations for articles.
type ArticleController struct {
	db *gorm.DB
}

// NewArticleController creates a new ArticleController instance.
func NewArticleController(db *gorm.DB) *ArticleController {
	return &ArticleController{db: db}
}

// ListArticles returns published articles, newest first, with optional
// category and search filters. No authentication required.
func (c *ArticleController) ListArticles(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Cache unsearched lists only, to avoid cache key explosion.
	cacheKey := fmt.Sprintf("cache:articles:list:cat=%s:page=%d:size=%d", category, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := c.db.Model(&models.Article{}).Where("articles.published = ?", true)
	if search != "" {
		query = query.Where("articles.title LIKE ? OR articles.content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if category != "" {
		query = query.
			Joins("JOIN article_categories ON article_categories.article_id = articles.id").
			Where("article_categories.category_id = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count articles")
		return
	}

	var articles []models.Article
	if err := query.
		Preload("User").
		Preload("Categories").
		Order("articles.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&articles).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list articles")
		return
	}

	payload := gin.H{
		"items": articles,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetArticle returns a single published article with author, categories and comments.
func (c *ArticleController) GetArticle(ctx *gin.Context) {
	articleID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:articles:detail:" + articleID); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var article models.Article
	err := c.db.
		Preload("User").
		Preload("Categories").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.created_at DESC") }).
		Preload("Comments.User").
		Where("published = ?", true).
		First(&article, "articles.id = ?", articleID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load article")
		return
	}

	payload := gin.H{"article": article}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:articles:detail:"+articleID, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// CreateArticle persists a new article owned by the authenticated user.
func (c *ArticleController) CreateArticle(ctx *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required,min=1"`
		Content    string `json:"content" binding:"required"`
		Published  *bool  `json:"published"`
		Categories []uint `json:"categories"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	categories, err := c.resolveCategories(req.Categories)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "unknown category")
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	article := models.Article{
		UserID:     userID,
		Title:      title,
		Content:    content,
		Published:  published,
		Categories: categories,
	}

	if err := c.db.Create(&article).Error; err != nil {
		utils.AuditCRUD("create", "article", 0, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to create article")
		return
	}

	if err := c.db.Preload("User").Preload("Categories").First(&article, article.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load article")
		return
	}

	utils.AuditCRUD("create", "article", article.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:list:")

	utils.Created(ctx, gin.H{"article": article})
}

// UpdateArticle applies a partial update. Only the author may update.
func (c *ArticleController) UpdateArticle(ctx *gin.Context) {
	var req struct {
		Title      *string `json:"title"`
		Content    *string `json:"content"`
		Published  *bool   `json:"published"`
		Categories *[]uint `json:"categories"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	articleID := ctx.Param("id")
	var article models.Article
	if err := c.db.First(&article, "id = ?", articleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load article")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if !authorize(userID, &article) {
		utils.AuditCRUD("update", "article", article.ID, userID, utils.OutcomeDenied, "not_owner")
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own articles")
		return
	}

	// Validate the whole request before touching the record; a rejected
	// update must leave the article exactly as it was.
	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
			return
		}
		article.Title = title
	}
	if req.Content != nil {
		article.Content = utils.Sanitize(*req.Content)
	}
	if req.Published != nil {
		article.Published = *req.Published
	}

	var categories []models.Category
	if req.Categories != nil {
		var err error
		categories, err = c.resolveCategories(*req.Categories)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40022, "unknown category")
			return
		}
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&article).Error; err != nil {
			return err
		}
		if req.Categories == nil {
			return nil
		}
		assoc := tx.Model(&article).Association("Categories")
		if len(categories) > 0 {
			return assoc.Replace(categories)
		}
		return assoc.Clear()
	})
	if err != nil {
		utils.AuditCRUD("update", "article", article.ID, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update article")
		return
	}

	if err := c.db.Preload("User").Preload("Categories").First(&article, article.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load article")
		return
	}

	utils.AuditCRUD("update", "article", article.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:list:")
	utils.InvalidateByPrefix("cache:articles:detail:" + articleID)

	utils.Success(ctx, gin.H{"article": article})
}

// DeleteArticle removes an article and all of its comments. Only the author
// (or an admin) may delete.
func (c *ArticleController) DeleteArticle(ctx *gin.Context) {
	articleID := ctx.Param("id")
	var article models.Article
	if err := c.db.First(&article, "id = ?", articleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load article")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if !authorize(userID, &article) && !isAdmin(ctx) {
		utils.AuditCRUD("delete", "article", article.ID, userID, utils.OutcomeDenied, "not_owner")
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own articles")
		return
	}

	// Hard delete with cascading comment removal; join rows go in the same
	// transaction so no orphans survive a partial failure.
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&article).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&article).Error
	})
	if err != nil {
		utils.AuditCRUD("delete", "article", article.ID, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete article")
		return
	}

	utils.AuditCRUD("delete", "article", article.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:list:")
	utils.InvalidateByPrefix("cache:articles:detail:" + articleID)

	ctx.Status(http.StatusNoContent)
}

// resolveCategories loads the referenced categories, failing when any ID is unknown.
func (c *ArticleController) resolveCategories(ids []uint) ([]models.Category, error) {
	ids = utils.UniqueUint(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := c.db.Find(&categories, ids).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, gorm.ErrRecordNotFound
	}
	return categories, nil
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
