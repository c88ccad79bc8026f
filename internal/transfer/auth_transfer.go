package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenRequest struct {
	APIKey string `json:"api_key"`
}
