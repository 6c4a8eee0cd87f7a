package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken(t *testing.T) {
	signed, err := IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)

	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, tok.Valid)
	assert.Equal(t, "HS256", tok.Method.Alg())
	assert.Equal(t, "alice", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueToken_InvalidInput(t *testing.T) {
	_, err := IssueToken(testSecret, "", time.Hour)
	assert.Error(t, err)

	_, err = IssueToken(testSecret, "alice", 0)
	assert.Error(t, err)
}
