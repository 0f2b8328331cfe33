package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// StrideClaims are the custom claims carried by service access tokens.
type StrideClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}
