// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once stored; they can only be deleted.
package domain

import (
	"time"
)

type MessageID string

func (m MessageID) String() string { return string(m) }

type DeliveryKind string

const (
	DeliveryPrivate DeliveryKind = "private"
	DeliveryRoom    DeliveryKind = "room"
)

func (d DeliveryKind) Valid() bool {
	return d == DeliveryPrivate || d == DeliveryRoom
}

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
)

// Message represents a stored chat message.
// Exactly one of ReceiverID and RoomID is set, according to Delivery.
type Message struct {
	ID         MessageID    `json:"id"`
	SenderID   UserID       `json:"sender_id"`
	ReceiverID *UserID      `json:"receiver_id"`
	RoomID     *RoomID      `json:"room_id"`
	Content    string       `json:"content"`
	Kind       MessageKind  `json:"message_type"`
	Delivery   DeliveryKind `json:"type"`
	Read       bool         `json:"is_read"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewMessage sets the receiver or the room from the delivery kind.
func NewMessage(id MessageID, sender UserID, delivery DeliveryKind, target string,
	content string, kind MessageKind, at time.Time) Message {
	if kind == "" {
		kind = MessageText
	}
	msg := Message{
		ID:        id,
		SenderID:  sender,
		Content:   content,
		Kind:      kind,
		Delivery:  delivery,
		CreatedAt: at,
	}
	switch delivery {
	case DeliveryRoom:
		room := RoomID(target)
		msg.RoomID = &room
	case DeliveryPrivate:
		receiver := UserID(target)
		msg.ReceiverID = &receiver
	}
	return msg
}

// ConversationKey is the channel the message belongs to.
func (m Message) ConversationKey() ChannelKey {
	if m.RoomID != nil {
		return RoomKey(*m.RoomID)
	}
	if m.ReceiverID != nil {
		return PrivateKey(m.SenderID, *m.ReceiverID)
	}
	return ""
}

// EnrichedMessage is what recipients receive: the message and its sender display data.
type EnrichedMessage struct {
	Message
	Sender Sender `json:"sender"`
}
