package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)

	issued, err := tokens.Issue(42, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := tokens.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.Equal(t, "alice", claims.Username)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
}

func TestTokens_EachIssueHasUniqueID(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	a, err := tokens.Issue(1, "a")
	require.NoError(t, err)
	b, err := tokens.Issue(1, "a")
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestTokens_ParseRejects(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() Claims {
		now := time.Now()
		return Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        "jti-1",
		}}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noJTI := valid()
	noJTI.ID = ""
	noExp := valid()
	noExp.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-token"},
		{"Wrong secret", sign(valid(), "another-secret")},
		{"Expired", sign(expired, testSecret)},
		{"Wrong issuer", sign(wrongIssuer, testSecret)},
		{"Wrong audience", sign(wrongAudience, testSecret)},
		{"Missing jti", sign(noJTI, testSecret)},
		{"Missing exp", sign(noExp, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestClaims_UserID_BadSubject(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("SecurePass12!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "SecurePass12!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokens_IssueWithoutSecret(t *testing.T) {
	_, err := NewTokens("", time.Hour).Issue(1, "a")
	assert.Error(t, err)
}
