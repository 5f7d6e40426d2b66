package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"customerapp/internal/apperr"
	"customerapp/internal/middleware"
)

type createDashboardRequest struct {
	Name string `json:"name"`
}

// GetDashboard returns the caller's dashboard merged with their current products.
func (h *Handler) GetDashboard(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	d, err := h.Dashboards.Get(ctx.Request.Context(), customerID)
	if errors.Is(err, apperr.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No dashboard found for this user"})
		return
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	items, err := h.Products.List(ctx.Request.Context(), customerID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toDashboard(d, h.toProducts(ctx, items)))
}

// CreateDashboard seeds the caller's dashboard from their products.
func (h *Handler) CreateDashboard(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	var req createDashboardRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "Invalid request")
			return
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		badRequest(ctx, "Name is required")
		return
	}

	id, err := h.Dashboards.Create(ctx.Request.Context(), customerID, name)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Dashboard created successfully", "id": id})
}
