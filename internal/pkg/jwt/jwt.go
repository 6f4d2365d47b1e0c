package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "inboxmem"

// TenantClaims carries the tenant identity the query API authenticates with.
type TenantClaims struct {
	TenantID string `json:"tid"`
	Email    string `json:"eml,omitempty"`
	jwtlib.RegisteredClaims
}

func GenerateToken(tenantID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TenantClaims{
		TenantID: tenantID,
		Email:    email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   tenantID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken rejects anything not HS256-signed by us, including tokens
// minted by another issuer with the same secret.
func ParseToken(tokenString string, secret []byte) (*TenantClaims, error) {
	var claims TenantClaims
	token, err := jwtlib.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwtlib.Token) (interface{}, error) { return secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.TenantID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return &claims, nil
}
