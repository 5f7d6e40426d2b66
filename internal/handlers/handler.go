// Package handlers implements the JSON API on top of the domain packages.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/auth"
	"customerapp/internal/dashboard"
	"customerapp/internal/mailer"
	"customerapp/internal/products"
	"customerapp/internal/uploads"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	DB               *gorm.DB
	Products         *products.Repository
	Dashboards       *dashboard.Coordinator
	Issuer           *auth.Issuer
	Mailer           mailer.Mailer
	Uploads          *uploads.Store
	PublicURL        string
	ResetPasswordURL string
}

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// fail writes err as {"error": msg} with its mapped status. Server side
// failures are logged and reported generically.
func fail(ctx *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
	}
	_ = ctx.Error(err)
	ctx.JSON(status, gin.H{"error": apperr.Message(err)})
}

func badRequest(ctx *gin.Context, msg string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := cast.ToUintE(ctx.Param(name))
	if err != nil || id == 0 {
		badRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}

// baseURL is PublicURL when set, otherwise derived from the request.
func (h *Handler) baseURL(ctx *gin.Context) string {
	if h.PublicURL != "" {
		return strings.TrimRight(h.PublicURL, "/")
	}
	scheme := "http"
	if ctx.Request.TLS != nil || strings.EqualFold(ctx.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request.Host
}

func (h *Handler) imageURL(ctx *gin.Context, filename string) string {
	return h.baseURL(ctx) + "/images/" + uploads.ProductsDir + "/" + filename
}
