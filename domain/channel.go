package domain

import (
	"fmt"
	"strings"
)

// ChannelKey identifies a conversation: a room or a canonical pair of identities.
type ChannelKey string

const (
	roomPrefix    = "room:"
	privatePrefix = "dm:"
)

func (k ChannelKey) String() string { return string(k) }

func RoomKey(id RoomID) ChannelKey {
	return ChannelKey(roomPrefix + string(id))
}

// PrivateKey orders both identities so that each participant computes the same key.
func PrivateKey(a, b UserID) ChannelKey {
	if b < a {
		a, b = b, a
	}
	return ChannelKey(privatePrefix + string(a) + ":" + string(b))
}

func (k ChannelKey) IsRoom() bool {
	return strings.HasPrefix(string(k), roomPrefix)
}

func (k ChannelKey) IsPrivate() bool {
	return strings.HasPrefix(string(k), privatePrefix)
}

// Room returns the room id of a room key.
func (k ChannelKey) Room() (RoomID, bool) {
	if !k.IsRoom() {
		return "", false
	}
	id := strings.TrimPrefix(string(k), roomPrefix)
	return RoomID(id), id != ""
}

// Participants returns both identities of a private key.
func (k ChannelKey) Participants() (UserID, UserID, bool) {
	if !k.IsPrivate() {
		return "", "", false
	}
	a, b, ok := strings.Cut(strings.TrimPrefix(string(k), privatePrefix), ":")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return UserID(a), UserID(b), true
}

// Includes reports whether userID is one of the two participants of a private key.
func (k ChannelKey) Includes(userID UserID) bool {
	a, b, ok := k.Participants()
	return ok && (a == userID || b == userID)
}

// Peer returns the other participant of a private key.
func (k ChannelKey) Peer(userID UserID) (UserID, bool) {
	a, b, ok := k.Participants()
	switch {
	case !ok:
		return "", false
	case a == userID:
		return b, true
	case b == userID:
		return a, true
	default:
		return "", false
	}
}

// ParseChannelKey accepts "room:<id>", "dm:<a>:<b>" or a bare room id.
// Private keys are re-canonicalized.
func ParseChannelKey(raw string) (ChannelKey, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", fmt.Errorf("empty channel key")
	case strings.HasPrefix(raw, privatePrefix):
		a, b, ok := ChannelKey(raw).Participants()
		if !ok {
			return "", fmt.Errorf("malformed private channel key %q", raw)
		}
		return PrivateKey(a, b), nil
	case strings.HasPrefix(raw, roomPrefix):
		if _, ok := ChannelKey(raw).Room(); !ok {
			return "", fmt.Errorf("malformed room channel key %q", raw)
		}
		return ChannelKey(raw), nil
	default:
		return RoomKey(RoomID(raw)), nil
	}
}

// ConnectionID is assigned to every admitted transport session.
type ConnectionID string

func (c ConnectionID) String() string { return string(c) }

// Targets is the resolved audience of a channel.
// Room channels resolve to explicit subscribers, private channels to both identities.
type Targets struct {
	Connections []ConnectionID
	Identities  []UserID
}

func (t Targets) Empty() bool {
	return len(t.Connections) == 0 && len(t.Identities) == 0
}
