package jwttoken

import (
	"linkage/internal/platform/middleware"
)

type validatorFunc func(string) (*middleware.JWTClaims, error)

func (f validatorFunc) ValidateToken(token string) (*middleware.JWTClaims, error) {
	return f(token)
}

// Validator exposes the service to the auth middleware. Only the client id
// and token id cross the boundary.
func (s *JWTService) Validator() middleware.JWTValidator {
	return validatorFunc(func(token string) (*middleware.JWTClaims, error) {
		claims, err := s.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.JWTClaims{ClientID: claims.ClientID, JTI: claims.ID}, nil
	})
}
