package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/middleware"
	"customerapp/internal/models"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Name, email, and password are required")
		return
	}
	email := normalizeEmail(req.Email)

	var count int64
	if err := h.DB.WithContext(ctx.Request.Context()).
		Model(&models.Customer{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		fail(ctx, apperr.Storage("check email", err))
		return
	}
	if count > 0 {
		badRequest(ctx, "Email already registered")
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		fail(ctx, err)
		return
	}
	c := models.Customer{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: hash}
	if err := h.DB.WithContext(ctx.Request.Context()).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			badRequest(ctx, "Email already registered")
			return
		}
		fail(ctx, apperr.Storage("create customer", err))
		return
	}

	zap.L().Info("customer registered", zap.Uint("customer_id", c.ID))
	ctx.JSON(http.StatusCreated, gin.H{"message": "Customer registered successfully", "customer": c})
}

func (h *Handler) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Email and password are required")
		return
	}

	var c models.Customer
	err := h.DB.WithContext(ctx.Request.Context()).
		Where("email = ?", normalizeEmail(req.Email)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		fail(ctx, apperr.Storage("find customer", err))
		return
	}
	if !models.CheckPassword(c.PasswordHash, req.Password) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Issuer.Issue(c.ID, c.Email)
	if err != nil {
		fail(ctx, err)
		return
	}
	sess := sessions.Default(ctx)
	sess.Set(middleware.SessionTokenKey, token)
	if err := sess.Save(); err != nil {
		zap.L().Warn("save session", zap.Error(err))
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

func (h *Handler) Logout(ctx *gin.Context) {
	sess := sessions.Default(ctx)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPassword mails a reset link to a registered address.
func (h *Handler) ForgotPassword(ctx *gin.Context) {
	var req forgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Email is required")
		return
	}
	email := normalizeEmail(req.Email)

	var c models.Customer
	err := h.DB.WithContext(ctx.Request.Context()).Where("email = ?", email).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		fail(ctx, apperr.Storage("find customer", err))
		return
	}

	token, err := h.Issuer.IssueReset(c.Email)
	if err != nil {
		fail(ctx, err)
		return
	}
	link := h.ResetPasswordURL + "?token=" + url.QueryEscape(token)
	if err := h.Mailer.SendResetPassword(ctx.Request.Context(), c.Email, link); err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Reset password email sent"})
}

func (h *Handler) ResetPassword(ctx *gin.Context) {
	var req resetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Token and new password are required")
		return
	}
	email, err := h.Issuer.VerifyReset(req.Token)
	if err != nil {
		badRequest(ctx, "Invalid token")
		return
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		fail(ctx, err)
		return
	}
	res := h.DB.WithContext(ctx.Request.Context()).
		Model(&models.Customer{}).
		Where("email = ?", email).
		Update("password_hash", hash)
	if res.Error != nil {
		fail(ctx, apperr.Storage("reset password", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
