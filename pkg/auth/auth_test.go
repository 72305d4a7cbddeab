package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnboard/domain/core/entities"
	apperrors "learnboard/pkg/errors"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator("test-secret", "learnboard", 0)
	require.NoError(t, err)
	return a
}

func TestIssueAndValidateToken(t *testing.T) {
	a := newTestAuthenticator(t)
	user := &entities.User{ID: "u1", Email: "ana@example.com", Role: entities.RoleAdmin}

	token, err := a.IssueToken(user)
	require.NoError(t, err)

	claims, err := a.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "learnboard", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateToken_Expired(t *testing.T) {
	a := newTestAuthenticator(t)
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := a.IssueToken(&entities.User{ID: "u1", Role: entities.RoleUser})
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other, err := NewAuthenticator("another-secret", "learnboard", 0)
	require.NoError(t, err)
	token, err := other.IssueToken(&entities.User{ID: "u1", Role: entities.RoleUser})
	require.NoError(t, err)

	_, err = newTestAuthenticator(t).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "learnboard"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestAuthenticator(t).ValidateToken(token)

	assert.Error(t, err)
}

func TestValidateToken_Missing(t *testing.T) {
	_, err := newTestAuthenticator(t).ValidateToken("  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestCurrentSubject(t *testing.T) {
	a := newTestAuthenticator(t)
	token, err := a.IssueToken(&entities.User{ID: "u7", Email: "x@example.com", Role: entities.RoleUser})
	require.NoError(t, err)

	subject, err := a.CurrentSubject(token)
	require.NoError(t, err)
	assert.Equal(t, &Subject{ID: "u7", Email: "x@example.com", Role: entities.RoleUser}, subject)

	_, err = a.CurrentSubject("garbage")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(&Subject{ID: "u1", Role: entities.RoleUser})
	assert.True(t, apperrors.IsForbidden(err))

	_, err = RequireAdmin(nil)
	assert.True(t, apperrors.IsUnauthorized(err))

	admin := &Subject{ID: "a1", Role: entities.RoleAdmin}
	got, err := RequireAdmin(admin)
	require.NoError(t, err)
	assert.Same(t, admin, got)
}

func TestSubjectContext(t *testing.T) {
	_, err := GetSubjectFromContext(context.Background())
	assert.True(t, apperrors.IsUnauthorized(err))

	subject := &Subject{ID: "u1", Role: entities.RoleUser}
	got, err := GetSubjectFromContext(SetSubjectInContext(context.Background(), subject))
	require.NoError(t, err)
	assert.Same(t, subject, got)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse!", hash))
	assert.False(t, h.Verify("correct horse", ""))
}

func TestPasswordHasher_LongPasswordsAreNotTruncated(t *testing.T) {
	h := NewPasswordHasher(4)
	base := strings.Repeat("a", 100)

	hash, err := h.Hash(base + "1")
	require.NoError(t, err)

	assert.False(t, h.Verify(base+"2", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, apperrors.IsValidation(ValidatePassword("short")))
	assert.True(t, apperrors.IsValidation(ValidatePassword(strings.Repeat("x", MaxPasswordLength+1))))
	assert.NoError(t, ValidatePassword(strings.Repeat("x", MaxPasswordLength)))
	assert.NoError(t, ValidatePassword("12345678"))
}

func TestTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(2, time.Minute)
	defer l.Close()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "bucket is empty")

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(time.Minute)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled")
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)
}
