package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInAnonymous(t *testing.T) {
	svc := NewAuthService("secret", "collablist", time.Hour)

	first, err := svc.SignInAnonymous()
	require.NoError(t, err)
	second, err := svc.SignInAnonymous()
	require.NoError(t, err)

	assert.NotEmpty(t, first.UserID)
	assert.NotEqual(t, first.UserID, second.UserID)

	userID, err := svc.Verify(first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, userID)
}

func TestSignInWithToken(t *testing.T) {
	svc := NewAuthService("secret", "collablist", time.Hour)
	token, err := svc.Issue("provisioned-user")
	require.NoError(t, err)

	session, err := svc.SignInWithToken(token)
	require.NoError(t, err)
	assert.Equal(t, "provisioned-user", session.UserID)
	assert.Equal(t, token, session.Token)
}

func TestVerifyRejects(t *testing.T) {
	svc := NewAuthService("secret", "collablist", time.Hour)

	other := NewAuthService("other-secret", "collablist", time.Hour)
	foreign, err := other.Issue("user")
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	wrongIssuer := NewAuthService("secret", "someone-else", time.Hour)
	token, err := wrongIssuer.Issue("user")
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired := NewAuthService("secret", "collablist", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err = expired.Issue("user")
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user", Issuer: "collablist"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(noneToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = svc.Verify("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
