package models

import "time"

type Action string

const (
	ActionView    Action = "view"
	ActionSign    Action = "sign"
	ActionPublish Action = "publish"
	ActionMint    Action = "mint"
)

// MomentView is what a viewer may see and do with a moment.
type MomentView struct {
	MomentID         string   `json:"momentId"`
	Status           Status   `json:"status"`
	CanView          bool     `json:"canView"`
	CanSign          bool     `json:"canSign"`
	CanPublish       bool     `json:"canPublish"`
	AvailableActions []Action `json:"availableActions"`
	// ParticipantID is the viewer's unsigned participant row, set when CanSign.
	ParticipantID string `json:"participantId,omitempty"`
	PartyCount    int    `json:"partyCount"`
}

// SignaturePayload is the client's signing proof. It is checked for shape
// and address binding only.
type SignaturePayload struct {
	ParticipantID string
	Signature     string
	Address       string
	Nonce         string
}

type EventType string

const (
	EventCreated   EventType = "moment.created"
	EventSigned    EventType = "moment.signed"
	EventCompleted EventType = "moment.completed"
	EventPublished EventType = "moment.published"
)

type LifecycleEvent struct {
	Type          EventType
	MomentID      string
	ParticipantID string
	Wallet        string
	Status        Status
	OccurredAt    time.Time
}
