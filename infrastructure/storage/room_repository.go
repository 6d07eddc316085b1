//go:generate go run go.uber.org/mock/mockgen -source=room_repository.go -destination=../../mocks/mock_room_repository.go -package=mocks
package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type IRoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
	ListRoomsForUser(ctx context.Context, userID domain.UserID) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, roomID domain.RoomID) error
}

type RoomRepository struct {
	db       *badger.DB
	messages IMessageRepository
	log      *slog.Logger
}

// NewRoomRepository needs the message repository to cascade room deletion.
func NewRoomRepository(db *badger.DB, messages IMessageRepository, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, messages: messages, log: log}
}

func roomKey(id domain.RoomID) string { return "room:" + string(id) }

// memberKey indexes rooms by member so that listing never scans every room.
func memberKey(userID domain.UserID, roomID domain.RoomID) string {
	return "member:" + string(userID) + ":" + string(roomID)
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, roomKey(room.ID), room); err != nil {
			return err
		}
		for _, member := range room.Members {
			if err := txn.Set([]byte(memberKey(member, room.ID)), nil); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap(err)
}

func (r *RoomRepository) GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(roomID), &room)
	})
	return room, wrap(err)
}

// ListRoomsForUser returns the rooms userID belongs to, oldest first.
func (r *RoomRepository) ListRoomsForUser(ctx context.Context, userID domain.UserID) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0)
	prefix := "member:" + string(userID) + ":"
	err := r.db.View(func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, prefix) {
			roomID := domain.RoomID(strings.TrimPrefix(key, prefix))
			var room domain.Room
			err := getJSON(txn, roomKey(roomID), &room)
			if errors.Is(err, errors.ErrNotFound) {
				// dangling index entry left by an interrupted deletion
				continue
			}
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

// DeleteRoom removes the room, its membership index and all of its messages.
func (r *RoomRepository) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	room, err := r.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	deleted, err := r.messages.DeleteConversation(ctx, room.ChannelKey())
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		for _, member := range room.Members {
			if err := txn.Delete([]byte(memberKey(member, room.ID))); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(roomKey(room.ID)))
	})
	if err != nil {
		return wrap(err)
	}
	r.log.Debug("Room deleted", "room_id", roomID, "messages_deleted", deleted)
	return nil
}
