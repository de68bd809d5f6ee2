// Package auth verifies the bearer tokens issued by the identity service and
// exposes the caller's role and community scope.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrocert/backend/internal/infrastructure/config"
)

// Roles that see every community.
const (
	RoleAdmin   = "admin"
	RoleGerente = "gerente"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims carries the caller identity and scope.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	CommunityIDs []string `json:"community_ids,omitempty"`
}

// IsElevated reports whether the role bypasses community scoping.
func (c *Claims) IsElevated() bool {
	return c.Role == RoleAdmin || c.Role == RoleGerente
}

// UserUUID returns the parsed user id.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// Communities returns the parsed community ids. An unparsable id makes the
// whole claim set invalid rather than silently narrowing scope.
func (c *Claims) Communities() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(c.CommunityIDs))
	for _, s := range c.CommunityIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, ErrInvalidClaims
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// TokenInput describes the identity to embed in a token.
type TokenInput struct {
	UserID       uuid.UUID
	Username     string
	Role         string
	CommunityIDs []uuid.UUID
}

// GenerateToken issues a signed access token valid for ttl. Production
// tokens come from the identity service; this is used by tooling and tests.
func (s *JWTService) GenerateToken(input TokenInput, ttl time.Duration) (string, error) {
	now := time.Now()
	communities := make([]string, len(input.CommunityIDs))
	for i, id := range input.CommunityIDs {
		communities[i] = id.String()
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:       input.UserID.String(),
		Username:     input.Username,
		Role:         input.Role,
		CommunityIDs: communities,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken verifies signature, time claims and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
