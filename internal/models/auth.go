package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles honored by the API.
type UserRole string

// Roles accepted on wizard endpoints.
const (
	RoleAdmin     UserRole = "ADMIN"
	RoleSecretary UserRole = "SECRETARY"
	RoleAccounts  UserRole = "ACCOUNTS"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
