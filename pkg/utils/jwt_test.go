package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_Verify(t *testing.T) {
	m := NewJWTManager("secret", "z-novel")

	token, err := m.GenerateToken("u-1", "a@b.c", time.Hour)
	require.NoError(t, err)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UID)
	assert.Equal(t, "a@b.c", id.Email)
}

func TestJWTManager_VerifyRejects(t *testing.T) {
	m := NewJWTManager("secret", "z-novel")
	other := NewJWTManager("other-secret", "z-novel")
	wrongIssuer := NewJWTManager("secret", "someone-else")

	foreign, err := other.GenerateToken("u-1", "", time.Hour)
	require.NoError(t, err)
	badIssuer, err := wrongIssuer.GenerateToken("u-1", "", time.Hour)
	require.NoError(t, err)

	past := NewJWTManager("secret", "z-novel")
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := past.GenerateToken("u-1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "  ", want: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "wrong secret", token: foreign, want: ErrInvalidToken},
		{name: "wrong issuer", token: badIssuer, want: ErrInvalidToken},
		{name: "expired", token: expired, want: ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
