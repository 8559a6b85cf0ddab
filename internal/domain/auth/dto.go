package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/user"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,role"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Locale      string `json:"locale" validate:"required,locale"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DisplayName  string    `json:"display_name"`
	Locale       string    `json:"locale"`
	FreeCredits  int       `json:"free_credits"`
	PaidCredits  int       `json:"paid_credits"`
	TotalCredits int       `json:"total_credits"`
	CreatedAt    time.Time `json:"created_at"`
}

type authResponse struct {
	User   userView      `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

func toUserView(u *user.User) userView {
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		DisplayName:  u.DisplayName,
		Locale:       u.Locale,
		FreeCredits:  u.FreeCreditsBalance,
		PaidCredits:  u.PaidCreditsBalance,
		TotalCredits: u.TotalCredits(),
		CreatedAt:    u.CreatedAt,
	}
}
