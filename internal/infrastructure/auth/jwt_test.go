package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocert/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "agrocert-test",
	})
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	community := uuid.New()

	token, err := svc.GenerateToken(TokenInput{
		UserID:       userID,
		Username:     "tecnico1",
		Role:         "tecnico",
		CommunityIDs: []uuid.UUID{community},
	}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tecnico1", claims.Username)
	assert.False(t, claims.IsElevated())

	sub, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, sub)

	ids, err := claims.Communities()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{community}, ids)
}

func TestClaims_IsElevated(t *testing.T) {
	for role, want := range map[string]bool{
		RoleAdmin:   true,
		RoleGerente: true,
		"tecnico":   false,
		"":          false,
	} {
		assert.Equal(t, want, (&Claims{Role: role}).IsElevated(), role)
	}
}

func TestClaims_Communities_Invalid(t *testing.T) {
	_, err := (&Claims{CommunityIDs: []string{"not-a-uuid"}}).Communities()
	assert.ErrorIs(t, err, ErrInvalidClaims)

	ids, err := (&Claims{}).Communities()
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateToken(TokenInput{UserID: uuid.New()}, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := newTestJWTService().GenerateToken(TokenInput{UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-ch", Issuer: "agrocert-test"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	token, err := newTestJWTService().GenerateToken(TokenInput{UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           uuid.New().String(),
		Role:             RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingUserID(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "agrocert-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := newTestJWTService().ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
