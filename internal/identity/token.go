package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

// Verifier validates HS256 bearer tokens and yields the acting user id.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for userID valid for ttl. A zero ttl never expires.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.Invalid("userId", "is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   v.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// UserID parses a raw token and returns its subject.
func (v *Verifier) UserID(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer", domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// FromHeader extracts the user id from an "Authorization: Bearer <token>" value.
func (v *Verifier) FromHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errMissingBearer
	}
	return v.UserID(parts[1])
}

var errMissingBearer = fmt.Errorf("%w: bearer token required", domain.ErrUnauthorized)

// IsUnauthorized reports whether err means no user could be identified.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
