package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"customerapp/internal/dashboard"
	"customerapp/internal/models"
)

type imageResponse struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

type productResponse struct {
	ID          uint           `json:"id"`
	CustomerID  uint           `json:"customer_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Image       *imageResponse `json:"image,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type customerResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// dashboardResponse keeps the persisted column names. price_per_month is the
// per-product price snapshot, total the twelve month projection.
type dashboardResponse struct {
	ID            uint              `json:"id"`
	CustomerID    uint              `json:"customer_id"`
	Name          string            `json:"name"`
	Month         []int             `json:"month"`
	PricePerMonth []float64         `json:"price_per_month"`
	Total         []float64         `json:"total"`
	Products      []productResponse `json:"products"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (h *Handler) toImage(ctx *gin.Context, img models.Image) imageResponse {
	return imageResponse{
		ID:       img.ID,
		Filename: img.Filename,
		URL:      h.imageURL(ctx, img.Filename),
		Size:     img.Size,
	}
}

func (h *Handler) toProduct(ctx *gin.Context, p models.Product) productResponse {
	out := productResponse{
		ID:          p.ID,
		CustomerID:  p.CustomerID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != nil {
		img := h.toImage(ctx, *p.Image)
		out.Image = &img
	}
	return out
}

func (h *Handler) toProducts(ctx *gin.Context, items []models.Product) []productResponse {
	out := make([]productResponse, len(items))
	for i, p := range items {
		out[i] = h.toProduct(ctx, p)
	}
	return out
}

func toCustomer(c models.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

func toDashboard(d dashboard.Dashboard, items []productResponse) dashboardResponse {
	if items == nil {
		items = []productResponse{}
	}
	return dashboardResponse{
		ID:            d.ID,
		CustomerID:    d.CustomerID,
		Name:          d.Name,
		Month:         d.Months,
		PricePerMonth: floats(d.PricePerMonth),
		Total:         floats(d.Total),
		Products:      items,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func floats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}
