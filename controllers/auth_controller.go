package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/config"
	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/utils"
)

// AuthController handles registration, login and token lifecycle endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a local account with a bcrypt-hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username may only contain letters, digits, '-' and '_'")
		return
	}

	if len(req.Password) < config.Get().PasswordMinLength {
		utils.AuditAuth("register", req.Username, 0, utils.OutcomeFailure, "weak_password")
		utils.Error(ctx, http.StatusBadRequest, 40003, "password does not meet the minimum length policy")
		return
	}

	var existing models.User
	if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.AuditAuth("register", req.Username, 0, utils.OutcomeFailure, "username_exists")
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		// Lost the race against a concurrent register with the same username.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.AuditAuth("register", req.Username, 0, utils.OutcomeFailure, "username_exists")
			utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	utils.AuditAuth("register", user.Username, user.ID, utils.OutcomeSuccess, "")
	utils.Created(ctx, gin.H{"user": user})
}

// Login verifies user credentials and issues an access/refresh token pair.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.AuditAuth("login", req.Username, 0, utils.OutcomeFailure, "user_not_found")
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.AuditAuth("login", req.Username, user.ID, utils.OutcomeFailure, "invalid_password")
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.AuditAuth("login", user.Username, user.ID, utils.OutcomeSuccess, "")
	utils.Success(ctx, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

// Refresh validates a refresh token and issues a new access token.
func (a *AuthController) Refresh(ctx *gin.Context) {
	type request struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	claims, err := utils.ParseToken(strings.TrimSpace(req.Refresh))
	if err != nil {
		utils.AuditAuth("refresh", "", 0, utils.OutcomeFailure, "invalid_token")
		utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid or expired refresh token")
		return
	}
	if claims.TokenType != utils.TokenTypeRefresh {
		utils.AuditAuth("refresh", claims.Username, claims.UserID, utils.OutcomeFailure, "wrong_token_type")
		utils.Error(ctx, http.StatusUnauthorized, 40112, "token is not a refresh token")
		return
	}
	if utils.IsTokenBlacklisted(claims.ID) {
		utils.AuditAuth("refresh", claims.Username, claims.UserID, utils.OutcomeFailure, "token_revoked")
		utils.Error(ctx, http.StatusUnauthorized, 40113, "refresh token revoked")
		return
	}

	accessToken, err := utils.GenerateAccessToken(claims.UserID, claims.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.AuditAuth("refresh", claims.Username, claims.UserID, utils.OutcomeSuccess, "")
	utils.Success(ctx, gin.H{"access_token": accessToken})
}

// Logout invalidates the presented token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header")
		return
	}

	claims, err := utils.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "invalid token")
		return
	}

	expiresAt := time.Now().Add(time.Duration(config.Get().AccessTokenTTLMinutes) * time.Minute)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(claims.ID, expiresAt)

	utils.AuditAuth("logout", claims.Username, claims.UserID, utils.OutcomeSuccess, "")
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's record.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// ChangePassword verifies the current password and applies a new one under the
// same strength policy as registration.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	type request struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		utils.AuditAuth("change_password", user.Username, user.ID, utils.OutcomeFailure, "invalid_old_password")
		utils.Error(ctx, http.StatusUnauthorized, 40115, "current password is incorrect")
		return
	}

	if len(req.NewPassword) < config.Get().PasswordMinLength {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password does not meet the minimum length policy")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	if err := a.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to update password")
		return
	}

	utils.AuditAuth("change_password", user.Username, user.ID, utils.OutcomeSuccess, "")
	utils.Success(ctx, gin.H{"message": "password changed"})
}

// validUsername allows letters, digits, '-' and '_'.
func validUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
