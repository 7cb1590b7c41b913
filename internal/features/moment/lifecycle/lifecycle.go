// Package lifecycle derives a moment's status and decides who may see and act
// on it. Everything here is pure: callers load the snapshot, these functions
// only read it.
package lifecycle

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moments-backend/internal/common/errors"
	"moments-backend/internal/common/validation"
	"moments-backend/internal/features/moment/models"
)

// DeriveStatus computes the status from participants and publish info. The
// persisted status is never consulted.
func DeriveStatus(participants []models.Participant, publish *models.PublishInfo) models.Status {
	if publish != nil && publish.IsPublished {
		return models.StatusPublished
	}
	if len(participants) == 0 {
		return models.StatusCreated
	}

	signed := 0
	for _, p := range participants {
		if p.HasSigned {
			signed++
		}
	}

	switch {
	case signed == len(participants):
		return models.StatusCompleted
	case signed > 0:
		return models.StatusPending
	default:
		return models.StatusCreated
	}
}

// CanAccess reports whether viewer may view or mint the moment.
func CanAccess(publish *models.PublishInfo, participants []models.Participant, creatorWallet, viewer string) bool {
	if validation.SameWallet(viewer, creatorWallet) {
		return true
	}
	for _, p := range participants {
		if validation.SameWallet(viewer, p.WalletAddress) {
			return true
		}
	}
	if publish == nil || !publish.IsPublished {
		return false
	}
	if !publish.IsPrivate {
		return true
	}
	for _, w := range publish.AllowedWallets {
		if validation.SameWallet(viewer, w) {
			return true
		}
	}
	return false
}

// View composes status, permissions and available actions for viewer.
// An empty viewer is anonymous.
func View(m *models.Moment, viewer string) *models.MomentView {
	status := DeriveStatus(m.Participants, m.PublishInfo)

	v := &models.MomentView{
		MomentID:         m.ID,
		Status:           status,
		PartyCount:       m.PartyCount(),
		AvailableActions: []models.Action{},
	}

	if strings.TrimSpace(viewer) == "" {
		v.CanView = status == models.StatusPublished && m.PublishInfo != nil && !m.PublishInfo.IsPrivate
	} else {
		v.CanView = CanAccess(m.PublishInfo, m.Participants, m.CreatorWallet, viewer)

		if status.Signable() {
			for _, p := range m.Participants {
				if !p.HasSigned && validation.SameWallet(viewer, p.WalletAddress) {
					v.CanSign = true
					v.ParticipantID = p.ID
					break
				}
			}
		}

		v.CanPublish = status == models.StatusCompleted && validation.SameWallet(viewer, m.CreatorWallet)
	}

	if v.CanView {
		v.AvailableActions = append(v.AvailableActions, models.ActionView)
	}
	if v.CanSign {
		v.AvailableActions = append(v.AvailableActions, models.ActionSign)
	}
	if v.CanPublish {
		v.AvailableActions = append(v.AvailableActions, models.ActionPublish)
	}
	if v.CanView && status == models.StatusPublished {
		v.AvailableActions = append(v.AvailableActions, models.ActionMint)
	}

	return v
}

// NormalizePublish validates settings and returns the PublishInfo to store.
// Allow-list entries are trimmed and blanks dropped; a public moment keeps
// no allow-list; a free moment costs zero.
func NormalizePublish(momentID string, s models.PublishSettings, now time.Time) (*models.PublishInfo, error) {
	pricing := s.PricingType
	if pricing == "" {
		pricing = models.PricingFree
	}
	if pricing != models.PricingFree && pricing != models.PricingPaid {
		return nil, errors.NewValidationError("pricingType", "must be one of [free paid]")
	}

	allowed := make([]string, 0, len(s.AllowedWallets))
	if s.IsPrivate {
		for _, w := range s.AllowedWallets {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			allowed = append(allowed, w)
		}
		if len(allowed) > validation.MaxAllowedWallets {
			return nil, errors.NewValidationError("allowedWallets", "too many entries")
		}
	}

	price := decimal.Zero
	if pricing == models.PricingPaid {
		if s.Price.Valid {
			price = s.Price.Decimal
		}
		if price.IsNegative() {
			return nil, errors.NewValidationError("price", "cannot be negative")
		}
		if price.IsZero() {
			price = models.DefaultPaidPrice
		}
	}

	return &models.PublishInfo{
		MomentID:       momentID,
		IsPublished:    true,
		IsPrivate:      s.IsPrivate,
		AllowedWallets: allowed,
		PricingType:    pricing,
		Price:          price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
