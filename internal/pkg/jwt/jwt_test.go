package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken(42, "guest@example.com", "customer")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "guest@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestValidate_RejectsForeignSecretAndExpiry(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken(1, "a@b.c", "admin")
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := New("one", -time.Minute).GenerateToken(1, "a@b.c", "admin")
	require.NoError(t, err)
	_, err = New("one", time.Hour).ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = New("one", time.Hour).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RequiresAccountClaims(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken(0, "a@b.c", "customer")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	token, err = svc.GenerateToken(3, "a@b.c", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
