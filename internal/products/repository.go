// Package products stores customer-owned products and announces every
// committed mutation on the event bus.
package products

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/events"
	"customerapp/internal/models"
)

// Input carries the writable product fields.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageID     *uint
}

// Repository scopes every read and write to the owning customer.
type Repository struct {
	db  *gorm.DB
	pub events.Publisher
}

// NewRepository returns a repository publishing to pub. pub may be nil.
func NewRepository(db *gorm.DB, pub events.Publisher) *Repository {
	return &Repository{db: db, pub: pub}
}

// ListPrices returns the customer's product prices in creation order.
func (r *Repository) ListPrices(ctx context.Context, customerID uint) ([]decimal.Decimal, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "price").
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Storage("list prices", pkgerrors.Wrapf(err, "customer %d", customerID))
	}
	prices := make([]decimal.Decimal, len(rows))
	for i, p := range rows {
		prices[i] = p.Price
	}
	return prices, nil
}

func (r *Repository) List(ctx context.Context, customerID uint) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Preload("Image").
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, customerID, id uint) (models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Preload("Image").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("get product", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, customerID uint, in Input) (models.Product, error) {
	if err := r.checkImage(ctx, customerID, in.ImageID); err != nil {
		return models.Product{}, err
	}
	p := models.Product{
		CustomerID:  customerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageID:     in.ImageID,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return models.Product{}, apperr.Storage("create product", err)
	}
	r.publish(ctx, customerID, events.ReasonCreated)
	return r.Get(ctx, customerID, p.ID)
}

func (r *Repository) Update(ctx context.Context, customerID, id uint, in Input) (models.Product, error) {
	if err := r.checkImage(ctx, customerID, in.ImageID); err != nil {
		return models.Product{}, err
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND customer_id = ?", id, customerID).
		Updates(map[string]interface{}{
			"name":        in.Name,
			"description": in.Description,
			"price":       in.Price,
			"image_id":    in.ImageID,
		})
	if res.Error != nil {
		return models.Product{}, apperr.Storage("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, apperr.ErrNotFound
	}
	r.publish(ctx, customerID, events.ReasonUpdated)
	return r.Get(ctx, customerID, id)
}

// Delete removes the product. When its image is no longer used by any other
// product the image row goes too and is returned so the caller can drop the
// file; otherwise the returned image is nil.
func (r *Repository) Delete(ctx context.Context, customerID, id uint) (*models.Image, error) {
	var released *models.Image
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		err := tx.Preload("Image").
			Where("id = ? AND customer_id = ?", id, customerID).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return apperr.Storage("get product", err)
		}

		res := tx.Where("id = ? AND customer_id = ?", id, customerID).Delete(&models.Product{})
		if res.Error != nil {
			return apperr.Storage("delete product", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		if p.Image == nil {
			return nil
		}

		var shared int64
		if err := tx.Model(&models.Product{}).Where("image_id = ?", p.Image.ID).Count(&shared).Error; err != nil {
			return apperr.Storage("count image users", err)
		}
		if shared > 0 {
			return nil
		}
		if err := tx.Delete(&models.Image{}, p.Image.ID).Error; err != nil {
			return apperr.Storage("delete image", pkgerrors.Wrapf(err, "image %d", p.Image.ID))
		}
		released = p.Image
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.publish(ctx, customerID, events.ReasonDeleted)
	return released, nil
}

// checkImage rejects images owned by another customer.
func (r *Repository) checkImage(ctx context.Context, customerID uint, imageID *uint) error {
	if imageID == nil {
		return nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ? AND customer_id = ?", *imageID, customerID).
		Count(&count).Error
	if err != nil {
		return apperr.Storage("check image", err)
	}
	if count == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repository) publish(ctx context.Context, customerID uint, reason string) {
	if r.pub == nil {
		return
	}
	r.pub.PublishProductsChanged(ctx, events.ProductsChanged{CustomerID: customerID, Reason: reason})
}
