package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-0123456789abcdef0123456789"

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", testSecret, nil)
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "i", "a", false, "", "", "", nil)
	require.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t)
	ctx := context.Background()

	accessToken, refreshToken, err := svc.GenerateTokens(42, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	access, err := svc.ValidateToken(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), access.MemberID)
	assert.Equal(t, "admin", access.Role)
	assert.Equal(t, "access", access.TokenType)
	assert.NotEmpty(t, access.TokenID)
	assert.True(t, access.ExpiresAt.After(time.Now()))

	refresh, err := svc.ValidateToken(ctx, refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.TokenType)
	assert.NotEqual(t, access.TokenID, refresh.TokenID)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "another-secret-key-that-is-long-enough-000", nil)
	require.NoError(t, err)

	accessToken, _, err := other.GenerateTokens(7, "member")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, err := NewTokenService(-1*time.Minute, -1*time.Minute, "test-issuer", "test-audience", false, "", "", testSecret, nil)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(7, "member")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc := newTestTokenService(t)
	ctx := context.Background()

	_, refreshToken, err := svc.GenerateTokens(42, "member")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(ctx, refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refreshToken, newRefresh)

	claims, err := svc.ValidateToken(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.MemberID)
	assert.Equal(t, "member", claims.Role)

	// The spent refresh token cannot be replayed
	_, _, err = svc.RefreshToken(ctx, refreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenRevoked))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, _, err := svc.GenerateTokens(42, "member")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeToken(t *testing.T) {
	svc := newTestTokenService(t)
	ctx := context.Background()

	accessToken, _, err := svc.GenerateTokens(42, "member")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, accessToken))

	_, err = svc.ValidateToken(ctx, accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Revoking twice is a no-op
	require.NoError(t, svc.RevokeToken(ctx, accessToken))
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "spent", time.Hour))
	revoked, err = store.IsRevoked(ctx, "spent")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Entries disappear once the token would have expired anyway
	require.NoError(t, store.Revoke(ctx, "short-lived", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	revoked, err = store.IsRevoked(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, revoked)
}
