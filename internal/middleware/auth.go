package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"customerapp/internal/apperr"
	"customerapp/internal/auth"
)

const (
	// ContextCustomerKey holds the auth.Identity of the caller.
	ContextCustomerKey = "customer"
	// SessionTokenKey is where login stores the access token in the cookie session.
	SessionTokenKey = "token"
)

// Verifier checks an access token.
type Verifier interface {
	Verify(token string) (auth.Identity, error)
}

// Gate resolves the caller from the Authorization bearer token, falling back
// to the token held in the session. A missing credential is 401, one that
// does not verify is 403.
func Gate(v Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx.GetHeader("Authorization"))
		if token == "" {
			token = sessionToken(ctx)
		}

		id, err := v.Verify(token)
		if err != nil {
			ctx.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
			return
		}

		ctx.Set(ContextCustomerKey, id)
		ctx.Next()
	}
}

// CurrentCustomer returns the identity stored by Gate.
func CurrentCustomer(ctx *gin.Context) (auth.Identity, error) {
	v, ok := ctx.Get(ContextCustomerKey)
	if !ok {
		return auth.Identity{}, apperr.ErrUnauthorized
	}
	id, ok := v.(auth.Identity)
	if !ok {
		return auth.Identity{}, apperr.ErrUnauthorized
	}
	return id, nil
}

// MustCustomerID returns the caller's customer id, aborting with 401 when
// the request did not pass through Gate.
func MustCustomerID(ctx *gin.Context) (uint, bool) {
	id, err := CurrentCustomer(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
		return 0, false
	}
	return id.CustomerID, true
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionToken(ctx *gin.Context) string {
	if _, ok := ctx.Get(sessions.DefaultKey); !ok {
		return ""
	}
	return cast.ToString(sessions.Default(ctx).Get(SessionTokenKey))
}
