package dto

// SignInRequest payload for POST /auth/login.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse carries the issued bearer token.
type SignInResponse struct {
	AccessToken string `json:"access_token"`
}
