package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"customerapp/internal/middleware"
)

// UploadImage stores a picture that can later be attached to a product by id.
func (h *Handler) UploadImage(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		badRequest(ctx, "Image file is required")
		return
	}
	img, err := h.storeImage(ctx, customerID, fh)
	if err != nil {
		h.uploadError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, h.toImage(ctx, img))
}
