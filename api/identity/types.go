// Package identity defines the wire types of the Auth/Profile service.
package identity

import "controlroom/pkg/models"

// LoginRequest represents the login call payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session issued for a successful login
type LoginResponse struct {
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	Profile      *models.UserProfile `json:"profile"`
}

// RefreshTokenRequest represents the token rotation payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse carries the rotated session
type RefreshTokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// ErrorResponse is the error envelope shared by identity endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}
