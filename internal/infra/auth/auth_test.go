package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/datasteward/steward/internal/domain"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, err := NewTokenService("secret", time.Hour, "steward")
	require.NoError(t, err)

	token, err := svc.Issue("alice", "steward")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Actor)
	assert.Equal(t, "steward", claims.Role)
	assert.Equal(t, "alice", claims.Subject)
}

func TestTokenService_Rejects(t *testing.T) {
	svc, err := NewTokenService("secret", time.Minute, "steward")
	require.NoError(t, err)
	other, err := NewTokenService("other", time.Minute, "steward")
	require.NoError(t, err)

	forged, err := other.Issue("mallory", "")
	require.NoError(t, err)
	_, err = svc.Validate(forged)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	token, err := svc.Issue("alice", "")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Actor: "eve"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(unsigned)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = NewTokenService("", time.Minute, "")
	assert.Error(t, err)
}

func TestAPIKeyAuthenticator(t *testing.T) {
	hash, err := HashKey("k3y", bcrypt.MinCost)
	require.NoError(t, err)

	a, err := NewAPIKeyAuthenticator([]string{"etl-bot=" + hash, " "})
	require.NoError(t, err)
	assert.False(t, a.Empty())

	actor, err := a.Authenticate("etl-bot:k3y")
	require.NoError(t, err)
	assert.Equal(t, "etl-bot", actor)

	for _, key := range []string{"etl-bot:wrong", "ghost:k3y", "no-separator", ":k3y"} {
		_, err := a.Authenticate(key)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized, key)
	}

	_, err = NewAPIKeyAuthenticator([]string{"missing-hash="})
	assert.Error(t, err)
	_, err = HashKey("", 0)
	assert.Error(t, err)
}
