package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a moment lifecycle state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusPublished Status = "published"

	// legacy alias of created still found in stored rows
	statusProposed = "proposed"
)

// ParseStatus maps a stored status string onto a Status. Unknown values
// and the legacy "proposed" alias read as created.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending
	case StatusCompleted:
		return StatusCompleted
	case StatusPublished:
		return StatusPublished
	default:
		return StatusCreated
	}
}

func (s Status) Signable() bool {
	return s == StatusCreated || s == StatusPending
}

type PricingType string

const (
	PricingFree PricingType = "free"
	PricingPaid PricingType = "paid"
)

// DefaultPaidPrice applies when a paid moment is published without a price.
var DefaultPaidPrice = decimal.RequireFromString("0.05")

type Moment struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl"`
	ContentHash   string    `json:"contentHash"`
	CreatorID     string    `json:"creatorId"`
	CreatorWallet string    `json:"creatorWallet"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// RawStatus is the persisted status cache. Read status through
	// lifecycle.DeriveStatus instead.
	RawStatus string `json:"-"`

	Participants []Participant `json:"participants"`
	PublishInfo  *PublishInfo  `json:"publishInfo,omitempty"`
}

// PartyCount is participants plus the creator.
func (m *Moment) PartyCount() int {
	return len(m.Participants) + 1
}

type Participant struct {
	ID            string     `json:"id"`
	MomentID      string     `json:"momentId"`
	UserID        string     `json:"userId"`
	WalletAddress string     `json:"walletAddress"`
	HasSigned     bool       `json:"hasSigned"`
	SignedAt      *time.Time `json:"signedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type PublishInfo struct {
	MomentID       string          `json:"momentId"`
	IsPublished    bool            `json:"isPublished"`
	IsPrivate      bool            `json:"isPrivate"`
	AllowedWallets []string        `json:"allowedWallets"`
	PricingType    PricingType     `json:"pricingType"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PublishSettings is the caller's publish request before normalization.
type PublishSettings struct {
	IsPrivate      bool
	AllowedWallets []string
	PricingType    PricingType
	Price          decimal.NullDecimal
}

// NewMoment carries create input after validation.
type NewMoment struct {
	Title              string
	Description        string
	ImageURL           string
	ContentHash        string
	CreatorWallet      string
	ParticipantWallets []string
}

type ListFilter struct {
	// Wallet scopes to moments the wallet created or participates in.
	Wallet string
	// Query matches title or description, case-insensitive.
	Query string
	// PublicOnly keeps published, non-private moments.
	PublicOnly bool
	// SortByUpdated orders by updated_at instead of created_at, newest first.
	SortByUpdated bool
	Limit         int
	Offset        int
}
