package models

import "time"

// User is identified by wallet address alone. Addresses are stored lower-cased.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	IsVerified    bool      `json:"isVerified"`
	IdentityID    string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// VerificationProof is forwarded to the identity provider as-is.
type VerificationProof struct {
	Proof         map[string]interface{}
	PublicSignals []string
}

type RegisterRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,wallet"`
}

type VerifyRequest struct {
	WalletAddress string                 `json:"walletAddress" validate:"required,wallet"`
	Proof         map[string]interface{} `json:"proof" validate:"required"`
	PublicSignals []string               `json:"publicSignals" validate:"required,min=1"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

type VerificationResponse struct {
	WalletAddress string `json:"walletAddress"`
	IsVerified    bool   `json:"isVerified"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		IsVerified:    u.IsVerified,
		CreatedAt:     u.CreatedAt,
	}
}
