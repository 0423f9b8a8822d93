package dto

import (
	"time"

	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleAuthRequest struct {
	Code string `json:"code"`
}

type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(user *model.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Picture:   user.Picture,
		CreatedAt: user.CreatedAt,
	}
}
