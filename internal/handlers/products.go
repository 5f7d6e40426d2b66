package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"customerapp/internal/apperr"
	"customerapp/internal/middleware"
	"customerapp/internal/models"
	"customerapp/internal/products"
	"customerapp/internal/uploads"
)

const imageField = "image_data"

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageID     *uint            `json:"image_id"`
}

const productFieldsMessage = "Name and a non-negative price are required"

// maxPrice is the largest value the decimal(10,2) price column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

func (h *Handler) ListProducts(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	items, err := h.Products.List(ctx.Request.Context(), customerID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, h.toProducts(ctx, items))
}

func (h *Handler) GetProduct(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	p, err := h.Products.Get(ctx.Request.Context(), customerID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, h.toProduct(ctx, p))
}

// CreateProduct accepts JSON or a multipart form with an optional image_data
// file. The dashboard is brought up to date before the response is written.
func (h *Handler) CreateProduct(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	in, img, ok := h.bindProduct(ctx, customerID)
	if !ok {
		return
	}
	p, err := h.Products.Create(ctx.Request.Context(), customerID, in)
	if err != nil {
		h.discardImage(ctx, img)
		h.productError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": h.toProduct(ctx, p)})
}

func (h *Handler) UpdateProduct(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	in, img, ok := h.bindProduct(ctx, customerID)
	if !ok {
		return
	}
	p, err := h.Products.Update(ctx.Request.Context(), customerID, id, in)
	if err != nil {
		h.discardImage(ctx, img)
		h.productError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": h.toProduct(ctx, p)})
}

func (h *Handler) DeleteProduct(ctx *gin.Context) {
	customerID, ok := middleware.MustCustomerID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	released, err := h.Products.Delete(ctx.Request.Context(), customerID, id)
	if err != nil {
		h.productError(ctx, err)
		return
	}
	if released != nil {
		if err := h.Uploads.Remove(released.Path); err != nil {
			zap.L().Warn("remove product image", zap.String("path", released.Path), zap.Error(err))
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *Handler) productError(ctx *gin.Context, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Product or image not found"})
		return
	}
	fail(ctx, err)
}

// bindProduct reads the product fields from the body. A multipart image is
// stored and recorded before the product row is written; the returned image
// is nil otherwise.
func (h *Handler) bindProduct(ctx *gin.Context, customerID uint) (products.Input, *models.Image, bool) {
	var req productRequest
	var file *multipart.FileHeader

	if strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		req.Name = ctx.PostForm("name")
		req.Description = ctx.PostForm("description")
		if raw := strings.TrimSpace(ctx.PostForm("price")); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				badRequest(ctx, productFieldsMessage)
				return products.Input{}, nil, false
			}
			req.Price = &price
		}
		if raw := strings.TrimSpace(ctx.PostForm("image_id")); raw != "" {
			imageID, err := cast.ToUintE(raw)
			if err != nil {
				badRequest(ctx, "invalid image_id")
				return products.Input{}, nil, false
			}
			req.ImageID = &imageID
		}
		fh, err := ctx.FormFile(imageField)
		switch {
		case err == nil:
			file = fh
		case errors.Is(err, http.ErrMissingFile):
		default:
			badRequest(ctx, "invalid "+imageField)
			return products.Input{}, nil, false
		}
	} else if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request")
		return products.Input{}, nil, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price == nil || req.Price.IsNegative() || req.Price.Round(2).GreaterThan(maxPrice) {
		badRequest(ctx, productFieldsMessage)
		return products.Input{}, nil, false
	}
	in := products.Input{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(2),
		ImageID:     req.ImageID,
	}
	if file == nil {
		return in, nil, true
	}

	img, err := h.storeImage(ctx, customerID, file)
	if err != nil {
		h.uploadError(ctx, err)
		return products.Input{}, nil, false
	}
	in.ImageID = &img.ID
	return in, &img, true
}

// storeImage saves fh to disk and records it for customerID.
func (h *Handler) storeImage(ctx *gin.Context, customerID uint, fh *multipart.FileHeader) (models.Image, error) {
	saved, err := h.Uploads.Save(ctx, fh)
	if err != nil {
		return models.Image{}, err
	}
	img := models.Image{
		CustomerID: customerID,
		Filename:   saved.Filename,
		Path:       saved.Path,
		Size:       saved.Size,
	}
	if err := h.DB.WithContext(ctx.Request.Context()).Create(&img).Error; err != nil {
		_ = h.Uploads.Remove(saved.Path)
		return models.Image{}, apperr.Storage("create image", err)
	}
	return img, nil
}

func (h *Handler) discardImage(ctx *gin.Context, img *models.Image) {
	if img == nil {
		return
	}
	if err := h.DB.WithContext(ctx.Request.Context()).Delete(&models.Image{}, img.ID).Error; err != nil {
		zap.L().Warn("discard image row", zap.Uint("image_id", img.ID), zap.Error(err))
	}
	if err := h.Uploads.Remove(img.Path); err != nil {
		zap.L().Warn("discard image file", zap.String("path", img.Path), zap.Error(err))
	}
}

func (h *Handler) uploadError(ctx *gin.Context, err error) {
	if errors.Is(err, uploads.ErrUnsupportedFormat) {
		badRequest(ctx, err.Error())
		return
	}
	fail(ctx, err)
}
