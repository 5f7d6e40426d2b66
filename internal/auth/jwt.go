// Package auth issues and verifies the bearer tokens that identify a customer.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"

	"customerapp/internal/apperr"
)

const (
	audienceAccess = "access"
	audienceReset  = "reset"

	// ResetTTL bounds how long a forgot-password link stays usable.
	ResetTTL = time.Hour
)

// Identity is what a verified access token says about its bearer.
type Identity struct {
	CustomerID uint
	Email      string
}

// Issuer signs HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns an access token for the customer.
func (i *Issuer) Issue(customerID uint, email string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"id":    customerID,
		"email": email,
		"aud":   audienceAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(i.ttl).Unix(),
	}
	return i.sign(claims)
}

// Verify checks an access token. An empty token is ErrUnauthorized; any other
// failure is ErrInvalidCredential.
func (i *Issuer) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.ErrUnauthorized
	}
	claims, err := i.parse(token, audienceAccess)
	if err != nil {
		return Identity{}, err
	}
	id, err := cast.ToUintE(claims["id"])
	if err != nil || id == 0 {
		return Identity{}, fmt.Errorf("%w: bad subject", apperr.ErrInvalidCredential)
	}
	return Identity{CustomerID: id, Email: cast.ToString(claims["email"])}, nil
}

// IssueReset returns a short lived token that authorises a password reset
// for email. It is not accepted by Verify.
func (i *Issuer) IssueReset(email string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"email": email,
		"aud":   audienceReset,
		"iat":   now.Unix(),
		"exp":   now.Add(ResetTTL).Unix(),
	}
	return i.sign(claims)
}

// VerifyReset returns the email a reset token was issued for.
func (i *Issuer) VerifyReset(token string) (string, error) {
	if token == "" {
		return "", apperr.ErrUnauthorized
	}
	claims, err := i.parse(token, audienceReset)
	if err != nil {
		return "", err
	}
	email := cast.ToString(claims["email"])
	if email == "" {
		return "", fmt.Errorf("%w: missing email", apperr.ErrInvalidCredential)
	}
	return email, nil
}

func (i *Issuer) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) parse(token, audience string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidCredential, err)
	}
	return claims, nil
}
