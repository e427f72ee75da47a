// Package auth issues and verifies the JWTs that identify scanner
// devices. Device auth gates the transport only; the recorder identity
// inside a marking request is accepted as supplied.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair holds access and refresh tokens for a device.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims represents the JWT payload.
type Claims struct {
	Subject string `json:"sub"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// Issue signs an access/refresh token pair for a device.
func Issue(deviceID, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	accessExp := time.Now().Add(accessTTL)
	refreshExp := time.Now().Add(refreshTTL)

	accessToken, err := sign(deviceID, issuer, key, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := sign(deviceID, issuer, key, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func sign(deviceID, issuer, key string, expires time.Time) (string, error) {
	claims := Claims{
		Subject: deviceID,
		Kind:    "device",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates a token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
