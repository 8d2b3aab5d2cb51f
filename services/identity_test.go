package services

import (
	"context"
	"testing"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_TokenRoundTrip(t *testing.T) {
	_, stores := newTestStores()
	ids := NewIdentityService("test-secret", time.Hour, stores.Users)

	token, err := ids.IssueToken("  Worker@Example.com ")
	require.NoError(t, err)

	id, err := ids.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", id.Email)
	assert.WithinDuration(t, time.Now(), id.IssuedAt, 5*time.Second)

	email, err := ids.AuthenticateEmail(token)
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", email)
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	_, stores := newTestStores()
	ids := NewIdentityService("test-secret", time.Hour, stores.Users)
	other := NewIdentityService("other-secret", time.Hour, stores.Users)
	expired := NewIdentityService("test-secret", -time.Minute, stores.Users)

	forged, err := other.IssueToken("worker@example.com")
	require.NoError(t, err)
	stale, err := expired.IssueToken("worker@example.com")
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &TokenClaims{Email: "worker@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"forged":   forged,
		"expired":  stale,
		"unsigned": unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ids.Authenticate(token)
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

func TestIdentity_AuthorizeUsesStoredRole(t *testing.T) {
	_, stores := newTestStores()
	ids := NewIdentityService("test-secret", time.Hour, stores.Users)
	ctx := context.Background()

	seedUser(t, stores, "buyer@example.com", models.RoleBuyer, 0)
	caller := &Identity{Email: "buyer@example.com"}

	user, err := ids.Authorize(ctx, caller, models.RoleBuyer, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, user.Role)

	_, err = ids.Authorize(ctx, caller)
	assert.NoError(t, err)

	_, err = ids.Authorize(ctx, caller, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ids.Authorize(ctx, &Identity{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ids.Authorize(ctx, nil)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	// A role change takes effect on the next request without a new token.
	_, err = stores.Users.SetRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = ids.Authorize(ctx, caller, models.RoleAdmin)
	assert.NoError(t, err)
}
