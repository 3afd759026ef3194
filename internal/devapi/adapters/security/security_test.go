package security

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"chatclient/internal/client/adapters/codec"
	"chatclient/internal/devapi/domain"
)

func TestServiceJWT_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewJWT("secret", time.Minute)

	token, expiresAt, err := svc.GenerateAccessToken(ctx, "user-1", "a@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	sub, err := svc.ValidateAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	claims := codec.NewJWTCodec().Decode(token)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.False(t, claims.IssuedAt.IsZero())
}

func TestServiceJWT_Rejects(t *testing.T) {
	ctx := context.Background()
	svc := NewJWT("secret", time.Minute)

	expired := NewJWT("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _, err := expired.GenerateAccessToken(ctx, "user-1", "a@example.com")
	require.NoError(t, err)

	foreignToken, _, err := NewJWT("other", time.Minute).GenerateAccessToken(ctx, "user-1", "a@example.com")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expiredToken},
		{name: "foreign signature", token: foreignToken},
		{name: "alg none", token: noneToken},
		{name: "no subject", token: noSubject},
		{name: "garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(ctx, tt.token)
			require.ErrorIs(t, err, domain.ErrInvalidAccessToken)
		})
	}
}

func TestServiceJWT_EmptySecret(t *testing.T) {
	_, _, err := NewJWT("", time.Minute).GenerateAccessToken(context.Background(), "user-1", "")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestServiceBcrypt(t *testing.T) {
	ctx := context.Background()
	svc := NewBcrypt(bcrypt.MinCost)

	hash, err := svc.Hash(ctx, "secret1")
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Hash(ctx, "123")
	require.ErrorIs(t, err, domain.ErrPasswordTooShort)

	_, err = svc.Verify(ctx, "secret1", "not-a-hash")
	require.Error(t, err)

	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
}
