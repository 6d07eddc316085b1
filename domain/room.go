package domain

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

type RoomID string

func (r RoomID) String() string { return string(r) }

const DefaultRoomKind = "group"

type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"type"`
	Members   []UserID  `json:"members"`
	Admin     UserID    `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoom builds a room administered by admin.
// The admin is always part of the member set and members are deduplicated.
func NewRoom(id RoomID, name, kind string, admin UserID, members []UserID, at time.Time) Room {
	if strings.TrimSpace(kind) == "" {
		kind = DefaultRoomKind
	}
	all := lo.Uniq(append(lo.Filter(members, func(m UserID, _ int) bool {
		return strings.TrimSpace(string(m)) != ""
	}), admin))
	return Room{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Kind:      kind,
		Members:   all,
		Admin:     admin,
		CreatedAt: at,
	}
}

func (r Room) HasMember(userID UserID) bool {
	return lo.Contains(r.Members, userID)
}

func (r Room) IsAdmin(userID UserID) bool {
	return r.Admin == userID
}

func (r Room) ChannelKey() ChannelKey {
	return RoomKey(r.ID)
}
