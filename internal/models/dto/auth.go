package dto

import "github.com/putrawicaksono/minibank/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CustomerLoginRequest struct {
	AccountNumber string `json:"account_number"`
	AccessCode    string `json:"access_code"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	User models.User `json:"user"`
}
