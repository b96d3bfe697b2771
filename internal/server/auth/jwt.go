// Package auth issues and verifies the bearer tokens of the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims: the registered set plus the caller's user id
// and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Role   models.Role `json:"role"`
}

// GenerateToken returns an HS256 token for p valid for validity.
func GenerateToken(p models.Principal, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: p.UserID,
		Role:   p.Role,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString and returns the principal it carries.
// Expired tokens yield common.ErrTokenExpired; any other defect yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, common.ErrTokenExpired
		}
		return models.Principal{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return models.Principal{}, common.ErrInvalidToken
	}

	return models.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
