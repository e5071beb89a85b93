// internal/common/auth/jwt.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for any missing, malformed, expired or revoked token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims carried by caller tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Caller is the verified identity of a callable client.
type Caller struct {
	UserID string
	Email  string
	Token  string
}

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Verifier struct {
	secret     []byte
	issuer     string
	revocation RevocationChecker
}

// NewVerifier accepts HS256 tokens signed with secret. An empty issuer skips
// the issuer check; a nil revocation checker skips revocation.
func NewVerifier(secret, issuer string, revocation RevocationChecker) *Verifier {
	return &Verifier{
		secret:     []byte(secret),
		issuer:     issuer,
		revocation: revocation,
	}
}

// VerifyHeader extracts a bearer token from an Authorization header and verifies it.
func (v *Verifier) VerifyHeader(ctx context.Context, header string) (*Caller, error) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	return v.Verify(ctx, strings.TrimSpace(token))
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	if v.revocation != nil {
		revoked, err := v.revocation.IsRevoked(ctx, tokenString)
		if err != nil {
			// fail closed
			return nil, fmt.Errorf("%w: revocation check failed: %v", ErrUnauthenticated, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
	}

	return &Caller{UserID: userID, Email: claims.Email, Token: tokenString}, nil
}

// GenerateToken signs an HS256 caller token.
func GenerateToken(secret, issuer, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
