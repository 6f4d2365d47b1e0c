package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken("tenant-1", "alice@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "tenant-1", claims.Subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("tenant-1", "", []byte("right"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken("tenant-1", "", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, secret)
	require.Error(t, err)
}

func TestParseTokenForeignIssuer(t *testing.T) {
	secret := []byte("s3cret")
	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, TenantClaims{
		TenantID: "tenant-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(signed, secret)
	require.Error(t, err)
}

func TestParseTokenRejectsOtherSigningMethod(t *testing.T) {
	secret := []byte("s3cret")
	other := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, TenantClaims{
		TenantID: "tenant-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := other.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(signed, secret)
	require.Error(t, err)
}

func TestParseTokenMissingTenant(t *testing.T) {
	secret := []byte("s3cret")
	anon := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, TenantClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := anon.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(signed, secret)
	require.Error(t, err)
}
