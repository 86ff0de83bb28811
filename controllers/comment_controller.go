package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/utils"
)

// CommentController manages CRUD operations for article comments.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// ListComments returns the comments of an article, newest first.
// No authentication required; 404 when the article does not exist.
func (c *CommentController) ListComments(ctx *gin.Context) {
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

	var comments []models.Comment
	if err := c.db.
		Preload("User").
		Where("article_id = ?", article.ID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list comments")
		return
	}

	utils.Success(ctx, gin.H{"items": comments})
}

// CreateComment adds a comment to an article on behalf of the authenticated user.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		ArticleID uint   `json:"article_id" binding:"required"`
		Content   string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content cannot be empty")
		return
	}

	var article models.Article
	if err := c.db.First(&article, req.ArticleID).Error; err != nil {
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

	comment := models.Comment{
		ArticleID: article.ID,
		UserID:    userID,
		Content:   content,
	}

	if err := c.db.Create(&comment).Error; err != nil {
		utils.AuditCRUD("create", "comment", 0, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create comment")
		return
	}

	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load comment")
		return
	}

	utils.AuditCRUD("create", "comment", comment.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:detail:" + strconv.Itoa(int(article.ID)))

	utils.Created(ctx, gin.H{"comment": comment})
}

// UpdateComment replaces a comment's content. Only the author may update.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content cannot be empty")
		return
	}

	commentID := ctx.Param("id")
	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if !authorize(userID, &comment) {
		utils.AuditCRUD("update", "comment", comment.ID, userID, utils.OutcomeDenied, "not_owner")
		utils.Error(ctx, http.StatusForbidden, 40303, "you can only update your own comments")
		return
	}

	comment.Content = content
	if err := c.db.Save(&comment).Error; err != nil {
		utils.AuditCRUD("update", "comment", comment.ID, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to update comment")
		return
	}

	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load comment")
		return
	}

	utils.AuditCRUD("update", "comment", comment.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:detail:" + strconv.Itoa(int(comment.ArticleID)))

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment. Only the author (or an admin) may delete.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	commentID := ctx.Param("id")
	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if !authorize(userID, &comment) && !isAdmin(ctx) {
		utils.AuditCRUD("delete", "comment", comment.ID, userID, utils.OutcomeDenied, "not_owner")
		utils.Error(ctx, http.StatusForbidden, 40304, "you can only delete your own comments")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.AuditCRUD("delete", "comment", comment.ID, userID, utils.OutcomeFailure, "db_error")
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to delete comment")
		return
	}

	utils.AuditCRUD("delete", "comment", comment.ID, userID, utils.OutcomeSuccess, "")
	utils.InvalidateByPrefix("cache:articles:detail:" + strconv.Itoa(int(comment.ArticleID)))

	ctx.Status(http.StatusNoContent)
}
