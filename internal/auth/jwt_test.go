package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("u1", models.RoleEmployer, "boss@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Role: models.RoleEmployer, Email: "boss@example.com"}, claims.Identity())
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken("u1", models.RoleJobSeeker, "s@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("u1", models.RoleJobSeeker, "s@example.com", testSecret, -time.Minute)
	require.NoError(t, err)
	noRole, err := GenerateToken("u1", models.Role("admin"), "s@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: models.RoleJobSeeker}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"expired", expired, testSecret},
		{"unknown role", noRole, testSecret},
		{"alg none", unsigned, testSecret},
		{"garbage", "not.a.token", testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestContextIdentity(t *testing.T) {
	var provider IdentityProvider = ContextIdentity{}

	_, ok := provider.CurrentIdentity(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: models.RoleJobSeeker})
	id, ok := provider.CurrentIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}
