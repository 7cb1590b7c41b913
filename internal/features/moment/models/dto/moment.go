package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"moments-backend/internal/features/moment/models"
)

// CreateMomentRequest is the body of POST /moments. Blank participant
// wallets are ignored.
type CreateMomentRequest struct {
	Title              string   `json:"title" validate:"required,max=200"`
	Description        string   `json:"description" validate:"max=2000"`
	ImageURL           string   `json:"imageUrl" validate:"omitempty,max=2048"`
	ContentHash        string   `json:"contentHash" validate:"omitempty,max=128"`
	CreatorWallet      string   `json:"creatorWallet" validate:"required,wallet"`
	ParticipantWallets []string `json:"participantWallets" validate:"required,min=1,max=50"`
}

type SignMessage struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce,omitempty"`
}

type SignRequest struct {
	ParticipantID string      `json:"participantId" validate:"required"`
	Signature     string      `json:"signature"`
	Message       SignMessage `json:"message"`
}

// PublishRequest accepts price as a JSON number or string.
type PublishRequest struct {
	WalletAddress  string              `json:"walletAddress,omitempty"`
	IsPrivate      bool                `json:"isPrivate"`
	AllowedWallets []string            `json:"allowedWallets"`
	PricingType    models.PricingType  `json:"pricingType"`
	Price          decimal.NullDecimal `json:"price" swaggertype:"number"`
}

type AccessRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,wallet"`
}

type MomentResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	ImageURL      string                `json:"imageUrl"`
	ContentHash   string                `json:"contentHash"`
	CreatorID     string                `json:"creatorId"`
	CreatorWallet string                `json:"creatorWallet"`
	Status        models.Status         `json:"status"`
	PartyCount    int                   `json:"partyCount"`
	Participants  []ParticipantResponse `json:"participants"`
	PublishInfo   *PublishInfoResponse  `json:"publishInfo,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type ParticipantResponse struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"walletAddress"`
	HasSigned     bool       `json:"hasSigned"`
	SignedAt      *time.Time `json:"signedAt,omitempty"`
}

type PublishInfoResponse struct {
	IsPublished    bool               `json:"isPublished"`
	IsPrivate      bool               `json:"isPrivate"`
	AllowedWallets []string           `json:"allowedWallets"`
	PricingType    models.PricingType `json:"pricingType"`
	Price          decimal.Decimal    `json:"price" swaggertype:"number"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// FeaturedMomentResponse is the card shown on the landing page.
type FeaturedMomentResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	ImageURL      string             `json:"imageUrl"`
	CreatorWallet string             `json:"creatorWallet"`
	PartyCount    int                `json:"partyCount"`
	PricingType   models.PricingType `json:"pricingType"`
	Price         decimal.Decimal    `json:"price" swaggertype:"number"`
	Date          time.Time          `json:"date"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type SignResponse struct {
	Status models.Status `json:"status"`
}

type PublishResponse struct {
	PublishInfo *PublishInfoResponse `json:"publishInfo"`
}

type AccessResponse struct {
	HasAccess bool `json:"hasAccess"`
}

type NonceResponse struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expiresAt"`
}
