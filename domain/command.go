package domain

// Inbound commands decoded from a connection.

type JoinChannelCommand struct {
	Channel string `json:"channel"`
}

type LeaveChannelCommand struct {
	Channel string `json:"channel"`
}

type SendMessageCommand struct {
	Content     string       `json:"content"`
	Delivery    DeliveryKind `json:"type"`
	Target      string       `json:"target"`
	MessageKind MessageKind  `json:"message_type,omitempty"`
	Ref         string       `json:"ref,omitempty"`
}

type TypingCommand struct {
	Channel  string `json:"channel"`
	IsTyping bool   `json:"is_typing"`
}

// HistoryQuery selects a conversation page, newest messages first on disk,
// returned in ascending order.
type HistoryQuery struct {
	Caller UserID
	Kind   DeliveryKind
	Target string
	Cursor *string
	Limit  int
}
