package domain

import (
	"time"

	"github.com/diagnosis/luxsuv-rentals/pkg/utils"
)

type User struct {
	ID           int64     `json:"id"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (r *OTPRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Code = utils.NormalizeString(r.Code)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Code = utils.NormalizeString(r.Code)
	r.Name = utils.NormalizeString(r.Name)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Code = utils.NormalizeString(r.Code)
}

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         *UserInfo `json:"user"`
}
