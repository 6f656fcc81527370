package jwttoken

import (
	"credentia/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims flattens operator claims for the auth middleware.
func ToMiddlewareClaims(claims *OperatorClaims) *auth.Claims {
	return &auth.Claims{
		Operator: claims.Subject,
		Scopes:   claims.Scope,
		JTI:      claims.ID,
	}
}

// JWTServiceAdapter lets the auth middleware validate tokens without
// importing jwt types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
