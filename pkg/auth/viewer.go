package auth

import (
	"errors"
	"fmt"
	"strings"

	"optionsync/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ViewerClaims are the claims of an access token issued to a viewer
type ViewerClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseViewerToken parses an access token. With a secret the HMAC signature
// is verified; without one the claims are only decoded, which is enough to
// personalize ranking since the API verifies the token on every call.
func ParseViewerToken(tokenString, secret string) (*ViewerClaims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, errors.New("empty access token")
	}

	claims := &ViewerClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		if err := jwt.NewValidator().Validate(claims); err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	} else {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		if !token.Valid {
			return nil, errors.New("invalid token claims")
		}
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("invalid token: missing user_id claim")
	}
	return claims, nil
}

// ViewerFromToken derives the viewer from an access token. A missing,
// expired or otherwise invalid token yields the anonymous viewer.
func ViewerFromToken(tokenString, secret string) domain.Viewer {
	claims, err := ParseViewerToken(tokenString, secret)
	if err != nil {
		return domain.Anonymous
	}
	return domain.Viewer{
		ID:            claims.UserID,
		Username:      claims.Username,
		Authenticated: true,
	}
}
