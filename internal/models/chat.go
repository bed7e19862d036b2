package models

// ChatMessage is one entry in a two-party conversation. Timestamps are unix
// milliseconds so message ordering survives JSON round-trips.
type ChatMessage struct {
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// ConversationMeta mirrors the last message of a conversation for listing
// without loading the full message history. It is updated separately from
// the message append and may briefly lag behind it.
type ConversationMeta struct {
	ConversationID string   `json:"conversationId"`
	Participants   []string `json:"participants"`
	LastMessage    string   `json:"lastMessage"`
	LastSenderID   string   `json:"lastSenderId"`
	UpdatedAt      int64    `json:"updatedAt"`
}
