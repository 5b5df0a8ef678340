package util

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by tokens issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// parsePublicKey decodes a PEM-encoded PKIX public key.
func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// ValidateJWT verifies tokenString against keyMaterial. HMAC tokens use the
// material as the shared secret; RSA and ECDSA tokens expect a PEM public key.
func ValidateJWT(tokenString string, keyMaterial string) (*Claims, error) {
	keyFunc := func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			// A public key must never double as an HMAC secret.
			if strings.HasPrefix(strings.TrimSpace(keyMaterial), "-----BEGIN") {
				return nil, errors.New("HMAC token presented for public key material")
			}
			return []byte(keyMaterial), nil
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return parsePublicKey(keyMaterial)
		default:
			return nil, fmt.Errorf("unsupported signing algorithm: %v", token.Header["alg"])
		}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
