package model

type (
	// MessageKey identifies one protocol message inside a chat.
	MessageKey struct {
		RemoteJID   string `json:"remoteJid"`
		FromMe      bool   `json:"fromMe"`
		ID          string `json:"id"`
		Participant string `json:"participant,omitempty"` // sender inside a group
	}
)
