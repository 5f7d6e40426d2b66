// Package dashboard owns the per-customer dashboard row and keeps its derived
// series consistent with the customer's products.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/models"
	"customerapp/internal/pricing"
	"customerapp/internal/series"
)

// DefaultName is used when a dashboard is created on the customer's behalf.
const DefaultName = "My Dashboard"

// PriceLister is the product side of the store: prices in creation order.
type PriceLister interface {
	ListPrices(ctx context.Context, customerID uint) ([]decimal.Decimal, error)
}

// Dashboard is the decoded view of a dashboard row.
//
// PricePerMonth is the snapshot of every product's unit price taken at the
// last recompute, one entry per product. It is not indexed by month despite
// its name; Total is the twelve month projection.
type Dashboard struct {
	ID            uint
	CustomerID    uint
	Name          string
	Months        []int
	PricePerMonth []decimal.Decimal
	Total         []decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store reads and writes dashboard rows. It does no locking of its own;
// writers go through Coordinator.
type Store struct {
	db     *gorm.DB
	prices PriceLister
}

func NewStore(db *gorm.DB, prices PriceLister) *Store {
	return &Store{db: db, prices: prices}
}

// Create inserts the customer's dashboard seeded from the current product
// prices. It fails with ErrNoProducts, writing nothing, when the customer
// owns no products, and with ErrDashboardExists when a row already exists.
func (s *Store) Create(ctx context.Context, customerID uint, name string) (uint, error) {
	prices, err := s.prices.ListPrices(ctx, customerID)
	if err != nil {
		return 0, err
	}
	total, err := pricing.ProjectPrices(prices)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Dashboard{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, apperr.Storage("count dashboards", err)
	}
	if count > 0 {
		return 0, apperr.ErrDashboardExists
	}

	monthsText, err := series.EncodeMonths(pricing.Months())
	if err != nil {
		return 0, err
	}
	pricesText, err := series.EncodePrices(prices)
	if err != nil {
		return 0, err
	}
	totalText, err := series.EncodePrices(total)
	if err != nil {
		return 0, err
	}

	row := models.Dashboard{
		CustomerID:    customerID,
		Name:          name,
		Month:         monthsText,
		PricePerMonth: pricesText,
		Total:         totalText,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.ErrDashboardExists
		}
		return 0, apperr.Storage("insert dashboard", err)
	}
	return row.ID, nil
}

// GetByCustomer loads and decodes the customer's dashboard. A series that
// fails to decode is returned as *apperr.MalformedSeriesError.
func (s *Store) GetByCustomer(ctx context.Context, customerID uint) (Dashboard, error) {
	var row models.Dashboard
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Dashboard{}, apperr.ErrNotFound
	}
	if err != nil {
		return Dashboard{}, apperr.Storage("select dashboard", err)
	}
	return decode(row)
}

// Recompute rewrites price_per_month and total from the customer's current
// products. With no products left both series become empty. A customer
// without a dashboard is skipped.
func (s *Store) Recompute(ctx context.Context, customerID uint) error {
	prices, err := s.prices.ListPrices(ctx, customerID)
	if err != nil {
		return err
	}
	total := []decimal.Decimal{}
	if len(prices) > 0 {
		total = pricing.Project(prices[0])
	}

	pricesText, err := series.EncodePrices(prices)
	if err != nil {
		return err
	}
	totalText, err := series.EncodePrices(total)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&models.Dashboard{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"price_per_month": pricesText,
			"total":           totalText,
		})
	if res.Error != nil {
		return apperr.Storage("update dashboard", pkgerrors.Wrapf(res.Error, "customer %d", customerID))
	}
	if res.RowsAffected == 0 {
		zap.L().Info("dashboard recompute skipped: no dashboard",
			zap.Uint("customer_id", customerID))
	}
	return nil
}

func decode(row models.Dashboard) (Dashboard, error) {
	months, err := series.DecodeMonths("month", row.Month)
	if err != nil {
		return Dashboard{}, err
	}
	prices, err := series.DecodePrices("price_per_month", row.PricePerMonth)
	if err != nil {
		return Dashboard{}, err
	}
	total, err := series.DecodePrices("total", row.Total)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		Name:          row.Name,
		Months:        months,
		PricePerMonth: prices,
		Total:         total,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
