package models

import "time"

// SigningNonce is a one-time value a participant embeds in the signed
// message for one moment.
type SigningNonce struct {
	MomentID      string    `json:"momentId"`
	WalletAddress string    `json:"walletAddress"`
	Nonce         string    `json:"nonce"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
