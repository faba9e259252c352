package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole is the scope an instructor was authenticated at.
type UserRole string

const (
	// RoleStateInstructor is registered at state level and may act on every site of the state.
	RoleStateInstructor UserRole = "state_instructor"
	// RoleSiteInstructor is registered at a single site.
	RoleSiteInstructor UserRole = "site_instructor"
)

// LoginRequest holds instructor credentials and the site picked at login.
type LoginRequest struct {
	CPF      string `json:"cpf" validate:"required,cpf"`
	Password string `json:"password" validate:"required"`
	Country  string `json:"country" validate:"required"`
	State    string `json:"state" validate:"required"`
	Site     string `json:"site" validate:"required"`
}

// LoginResponse returns the issued token and the instructor profile.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	Instructor  Instructor `json:"instructor"`
	Site        SiteRef    `json:"site"`
	IssuedAt    string     `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	CPF     string   `json:"cpf"`
	Name    string   `json:"name"`
	Role    UserRole `json:"role"`
	Country string   `json:"country"`
	State   string   `json:"state"`
	Site    string   `json:"site"`
	jwt.RegisteredClaims
}

// SiteRef returns the site scope carried by the token.
func (c *JWTClaims) SiteRef() SiteRef {
	return SiteRef{Country: c.Country, State: c.State, Site: c.Site}
}
