package event

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"
)

type Type string

// Outbound events, pushed to connections.
const (
	ReceiveMessageType     Type = "receive_message"
	UserStatusType         Type = "user_status"
	UserTypingType         Type = "user_typing"
	ConnectionRejectedType Type = "connection_rejected"
	MessageRejectedType    Type = "message_rejected"
	JoinRejectedType       Type = "join_rejected"
	ChannelJoinedType      Type = "channel_joined"
	ChannelLeftType        Type = "channel_left"
)

// Inbound events, read from connections.
const (
	JoinChannelType  Type = "join_channel"
	LeaveChannelType Type = "leave_channel"
	SendMessageType  Type = "send_message"
	TypingType       Type = "typing"
)

// Event is the envelope used on the wire in both directions
// and on the internal telemetry channel.
type Event struct {
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"at"`
	Payload   any       `json:"payload"`
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

type UserStatus struct {
	UserID domain.UserID `json:"user_id"`
	Status domain.Status `json:"status"`
}

type UserTyping struct {
	UserID   domain.UserID     `json:"user_id"`
	Channel  domain.ChannelKey `json:"channel"`
	IsTyping bool              `json:"is_typing"`
}

type ConnectionRejected struct {
	Reason string `json:"reason"`
}

type MessageRejected struct {
	Ref    string      `json:"ref,omitempty"`
	Code   errors.Code `json:"code"`
	Reason string      `json:"reason"`
}

type JoinRejected struct {
	Channel string      `json:"channel"`
	Code    errors.Code `json:"code"`
	Reason  string      `json:"reason"`
}

type ChannelJoined struct {
	Channel domain.ChannelKey `json:"channel"`
}

type ChannelLeft struct {
	Channel domain.ChannelKey `json:"channel"`
}

// Inbound is an undecoded client event.
type Inbound struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses the payload of an inbound event into its command.
func (in Inbound) Decode() (any, error) {
	if len(in.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload for %q", errors.ErrInvalidPayload, in.Type)
	}
	switch in.Type {
	case JoinChannelType:
		return decode[domain.JoinChannelCommand](in.Payload)
	case LeaveChannelType:
		return decode[domain.LeaveChannelCommand](in.Payload)
	case SendMessageType:
		return decode[domain.SendMessageCommand](in.Payload)
	case TypingType:
		return decode[domain.TypingCommand](in.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", errors.ErrInvalidPayload, in.Type)
	}
}

func decode[T any](raw json.RawMessage) (any, error) {
	var cmd T
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return cmd, nil
}
