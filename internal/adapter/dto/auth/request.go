package auth

// TokenRequest represents the request to exchange the admin API key for a JWT
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}
