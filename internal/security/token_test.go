package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	signed, err := GenerateAccessToken(testSecret, 42, "alice", []string{"admin", "receipt_creator"}, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"admin", "receipt_creator"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestAccessTokenUniqueID(t *testing.T) {
	a, err := GenerateAccessToken(testSecret, 1, "u", nil, time.Minute)
	require.NoError(t, err)
	b, err := GenerateAccessToken(testSecret, 1, "u", nil, time.Minute)
	require.NoError(t, err)

	ca, err := ParseAccessToken(a, testSecret)
	require.NoError(t, err)
	cb, err := ParseAccessToken(b, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	signed, err := GenerateAccessToken(testSecret, 1, "alice", nil, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, "some-other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	signed, err := GenerateAccessToken(testSecret, 1, "alice", nil, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, testSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := ParseAccessToken(tok, testSecret)
		assert.Error(t, err, "token %q", tok)
	}
}

func TestParseAccessTokenRejectsUnsignedAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, testSecret)
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	tok, err := GenerateRefreshToken(DefaultRefreshTokenBytes)
	require.NoError(t, err)
	// 32 bytes, unpadded base64url.
	assert.Len(t, tok, 43)

	other, err := GenerateRefreshToken(DefaultRefreshTokenBytes)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	short, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	assert.Len(t, short, 43)
}
