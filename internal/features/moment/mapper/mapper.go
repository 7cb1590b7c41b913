package mapper

import (
	"moments-backend/internal/features/moment/lifecycle"
	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/models/dto"
)

// ToMomentResponse annotates m with its derived status.
func ToMomentResponse(m *models.Moment) *dto.MomentResponse {
	participants := make([]dto.ParticipantResponse, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, dto.ParticipantResponse{
			ID:            p.ID,
			WalletAddress: p.WalletAddress,
			HasSigned:     p.HasSigned,
			SignedAt:      p.SignedAt,
		})
	}

	return &dto.MomentResponse{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		ImageURL:      m.ImageURL,
		ContentHash:   m.ContentHash,
		CreatorID:     m.CreatorID,
		CreatorWallet: m.CreatorWallet,
		Status:        lifecycle.DeriveStatus(m.Participants, m.PublishInfo),
		PartyCount:    m.PartyCount(),
		Participants:  participants,
		PublishInfo:   ToPublishInfoResponse(m.PublishInfo),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToMomentResponses(moments []*models.Moment) []*dto.MomentResponse {
	out := make([]*dto.MomentResponse, 0, len(moments))
	for _, m := range moments {
		out = append(out, ToMomentResponse(m))
	}
	return out
}

func ToPublishInfoResponse(info *models.PublishInfo) *dto.PublishInfoResponse {
	if info == nil {
		return nil
	}
	allowed := info.AllowedWallets
	if allowed == nil {
		allowed = []string{}
	}
	return &dto.PublishInfoResponse{
		IsPublished:    info.IsPublished,
		IsPrivate:      info.IsPrivate,
		AllowedWallets: allowed,
		PricingType:    info.PricingType,
		Price:          info.Price,
		UpdatedAt:      info.UpdatedAt,
	}
}

func ToFeaturedResponses(moments []*models.Moment) []*dto.FeaturedMomentResponse {
	out := make([]*dto.FeaturedMomentResponse, 0, len(moments))
	for _, m := range moments {
		card := &dto.FeaturedMomentResponse{
			ID:            m.ID,
			Title:         m.Title,
			Description:   m.Description,
			ImageURL:      m.ImageURL,
			CreatorWallet: m.CreatorWallet,
			PartyCount:    m.PartyCount(),
			PricingType:   models.PricingFree,
			Date:          m.CreatedAt,
			UpdatedAt:     m.UpdatedAt,
		}
		if m.PublishInfo != nil {
			card.PricingType = m.PublishInfo.PricingType
			card.Price = m.PublishInfo.Price
		}
		out = append(out, card)
	}
	return out
}

// ToPublishSettings converts the request body; normalization happens in
// lifecycle.NormalizePublish.
func ToPublishSettings(req *dto.PublishRequest) models.PublishSettings {
	return models.PublishSettings{
		IsPrivate:      req.IsPrivate,
		AllowedWallets: req.AllowedWallets,
		PricingType:    req.PricingType,
		Price:          req.Price,
	}
}

func ToNewMoment(req *dto.CreateMomentRequest) models.NewMoment {
	return models.NewMoment{
		Title:              req.Title,
		Description:        req.Description,
		ImageURL:           req.ImageURL,
		ContentHash:        req.ContentHash,
		CreatorWallet:      req.CreatorWallet,
		ParticipantWallets: req.ParticipantWallets,
	}
}

func ToSignaturePayload(req *dto.SignRequest) models.SignaturePayload {
	return models.SignaturePayload{
		ParticipantID: req.ParticipantID,
		Signature:     req.Signature,
		Address:       req.Message.Address,
		Nonce:         req.Message.Nonce,
	}
}
