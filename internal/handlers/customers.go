package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/middleware"
	"customerapp/internal/models"
)

type updateCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Me returns the caller together with their dashboard, creating the default
// dashboard on first visit when there are products to project.
func (h *Handler) Me(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	c, err := h.loadCustomer(ctx, customerID)
	if err != nil {
		fail(ctx, err)
		return
	}

	body := gin.H{"customer": toCustomer(c), "dashboard": nil}
	d, created, err := h.Dashboards.EnsureDefault(ctx.Request.Context(), customerID)
	switch {
	case err == nil:
		items, err := h.Products.List(ctx.Request.Context(), customerID)
		if err != nil {
			fail(ctx, err)
			return
		}
		body["dashboard"] = toDashboard(d, h.toProducts(ctx, items))
		if created {
			zap.L().Info("default dashboard created", zap.Uint("customer_id", customerID))
		}
	case errors.Is(err, apperr.ErrNoProducts):
	default:
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, body)
}

func (h *Handler) GetCustomer(ctx *gin.Context) {
	customerID, ok := h.ownCustomerID(ctx)
	if !ok {
		return
	}
	c, err := h.loadCustomer(ctx, customerID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toCustomer(c))
}

func (h *Handler) UpdateCustomer(ctx *gin.Context) {
	customerID, ok := h.ownCustomerID(ctx)
	if !ok {
		return
	}
	var req updateCustomerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Name, email, and password are required")
		return
	}
	hash, err := models.HashPassword(req.Password)
	if err != nil {
		fail(ctx, err)
		return
	}

	res := h.DB.WithContext(ctx.Request.Context()).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"name":          strings.TrimSpace(req.Name),
			"email":         normalizeEmail(req.Email),
			"password_hash": hash,
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		badRequest(ctx, "Email already registered")
		return
	}
	if res.Error != nil {
		fail(ctx, apperr.Storage("update customer", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		fail(ctx, apperr.ErrNotFound)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Customer updated successfully"})
}

// DeleteCustomer removes the caller. Products, images and the dashboard go
// with the row through the foreign keys; image files are removed here.
func (h *Handler) DeleteCustomer(ctx *gin.Context) {
	customerID, ok := h.ownCustomerID(ctx)
	if !ok {
		return
	}
	var images []models.Image
	if err := h.DB.WithContext(ctx.Request.Context()).
		Where("customer_id = ?", customerID).
		Find(&images).Error; err != nil {
		fail(ctx, apperr.Storage("list images", err))
		return
	}

	res := h.DB.WithContext(ctx.Request.Context()).Delete(&models.Customer{}, customerID)
	if res.Error != nil {
		fail(ctx, apperr.Storage("delete customer", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		fail(ctx, apperr.ErrNotFound)
		return
	}
	for _, img := range images {
		if err := h.Uploads.Remove(img.Path); err != nil {
			zap.L().Warn("remove image file", zap.String("path", img.Path), zap.Error(err))
		}
	}

	sess := sessions.Default(ctx)
	sess.Clear()
	_ = sess.Save()
	ctx.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// ownCustomerID accepts only the caller's own id; any other id is reported
// as missing so the existence of other customers is not revealed.
func (h *Handler) ownCustomerID(ctx *gin.Context) (uint, bool) {
	callerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return 0, false
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return 0, false
	}
	if id != callerID {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return 0, false
	}
	return id, true
}

func (h *Handler) loadCustomer(ctx *gin.Context, id uint) (models.Customer, error) {
	var c models.Customer
	err := h.DB.WithContext(ctx.Request.Context()).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Customer{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Customer{}, apperr.Storage("find customer", err)
	}
	return c, nil
}
