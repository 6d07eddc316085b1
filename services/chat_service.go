//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	ListUsers(ctx context.Context, caller domain.UserID) ([]domain.User, error)
	ListRooms(ctx context.Context, caller domain.UserID) ([]domain.Room, error)
	CreateRoom(ctx context.Context, caller domain.UserID, req CreateRoomRequest) (domain.Room, error)
	DeleteRoom(ctx context.Context, caller domain.UserID, roomID domain.RoomID) error
	FetchHistory(ctx context.Context, query domain.HistoryQuery) (HistoryPage, error)
	DeleteMessage(ctx context.Context, caller domain.UserID, messageID domain.MessageID) error
}

// ChannelEvictor drops live subscriptions of a channel that no longer exists.
type ChannelEvictor interface {
	Evict(key domain.ChannelKey)
}

type CreateRoomRequest struct {
	Name    string          `json:"name"`
	Kind    string          `json:"type"`
	Members []domain.UserID `json:"members"`
}

type HistoryPage struct {
	Messages   []domain.EnrichedMessage `json:"messages"`
	NextCursor *string                  `json:"next_cursor"`
}

type ChatService struct {
	log          *slog.Logger
	users        storage.IUserRepository
	rooms        storage.IRoomRepository
	messages     storage.IMessageRepository
	evictor      ChannelEvictor
	defaultLimit int
}

func NewChatService(log *slog.Logger, users storage.IUserRepository, rooms storage.IRoomRepository,
	messages storage.IMessageRepository, evictor ChannelEvictor, limitMessages *int) *ChatService {
	limit := 0
	if limitMessages != nil {
		limit = *limitMessages
	}
	return &ChatService{
		log:          log,
		users:        users,
		rooms:        rooms,
		messages:     messages,
		evictor:      evictor,
		defaultLimit: limit,
	}
}

// ListUsers returns every user except the caller.
func (s *ChatService) ListUsers(ctx context.Context, caller domain.UserID) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u domain.User, _ int) bool {
		return u.ID != caller
	}), nil
}

func (s *ChatService) ListRooms(ctx context.Context, caller domain.UserID) ([]domain.Room, error) {
	return s.rooms.ListRoomsForUser(ctx, caller)
}

// CreateRoom makes the caller the admin of a new room. Every member must be a known user.
func (s *ChatService) CreateRoom(ctx context.Context, caller domain.UserID, req CreateRoomRequest) (domain.Room, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Room{}, fmt.Errorf("%w: room name is required", errors.ErrValidation)
	}
	room := domain.NewRoom(domain.RoomID(uuid.NewString()), req.Name, req.Kind, caller, req.Members, time.Now().UTC())
	for _, member := range room.Members {
		if member == caller {
			continue
		}
		if _, err := s.users.GetUser(ctx, member); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return domain.Room{}, fmt.Errorf("%w: unknown member %s", errors.ErrValidation, member)
			}
			return domain.Room{}, err
		}
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	s.log.Info("Room created", "room_id", room.ID, "admin", caller, "members", len(room.Members))
	return room, nil
}

// DeleteRoom is reserved to the room admin and removes its messages too.
func (s *ChatService) DeleteRoom(ctx context.Context, caller domain.UserID, roomID domain.RoomID) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsAdmin(caller) {
		return fmt.Errorf("%w: only the admin can delete room %s", errors.ErrNotAuthorized, roomID)
	}
	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	if s.evictor != nil {
		s.evictor.Evict(room.ChannelKey())
	}
	s.log.Info("Room deleted", "room_id", roomID)
	return nil
}

// FetchHistory returns a page of a conversation in chronological order.
// Room history is restricted to members.
func (s *ChatService) FetchHistory(ctx context.Context, query domain.HistoryQuery) (HistoryPage, error) {
	target := strings.TrimSpace(query.Target)
	if target == "" {
		return HistoryPage{}, fmt.Errorf("%w: history target is required", errors.ErrValidation)
	}

	var key domain.ChannelKey
	switch query.Kind {
	case domain.DeliveryRoom:
		room, err := s.rooms.GetRoom(ctx, domain.RoomID(target))
		if err != nil {
			return HistoryPage{}, err
		}
		if !room.HasMember(query.Caller) {
			return HistoryPage{}, fmt.Errorf("%w: room %s", errors.ErrNotAMember, target)
		}
		key = room.ChannelKey()
	case domain.DeliveryPrivate:
		key = domain.PrivateKey(query.Caller, domain.UserID(target))
	default:
		return HistoryPage{}, fmt.Errorf("%w: unknown history type %q", errors.ErrValidation, query.Kind)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	messages, next, err := s.messages.History(ctx, key, query.Cursor, limit)
	if err != nil {
		return HistoryPage{}, err
	}

	enriched, err := s.enrich(ctx, messages)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{Messages: enriched, NextCursor: next}, nil
}

// DeleteMessage is reserved to the sender of the message.
func (s *ChatService) DeleteMessage(ctx context.Context, caller domain.UserID, messageID domain.MessageID) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != caller {
		return fmt.Errorf("%w: message %s belongs to another user", errors.ErrNotAuthorized, messageID)
	}
	return s.messages.Delete(ctx, messageID)
}

func (s *ChatService) enrich(ctx context.Context, messages []domain.Message) ([]domain.EnrichedMessage, error) {
	senders := make(map[domain.UserID]domain.Sender)
	enriched := make([]domain.EnrichedMessage, 0, len(messages))
	for _, msg := range messages {
		sender, ok := senders[msg.SenderID]
		if !ok {
			user, err := s.users.GetUser(ctx, msg.SenderID)
			switch {
			case errors.Is(err, errors.ErrNotFound):
				sender = domain.Sender{ID: msg.SenderID}
			case err != nil:
				return nil, err
			default:
				sender = user.AsSender()
			}
			senders[msg.SenderID] = sender
		}
		enriched = append(enriched, domain.EnrichedMessage{Message: msg, Sender: sender})
	}
	return enriched, nil
}
