package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func logger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func TestUserRepository_CreateAndFetch(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t))

	// Given a registered user
	created, err := repository.CreateUser(ctx, "alice", "Alice@Example.com", "hash")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(domain.StatusOffline, created.Status)
	req.Equal("alice@example.com", created.Email)

	// When fetching by id and by email
	byID, err := repository.GetUser(ctx, created.ID)
	req.NoError(err)
	record, err := repository.GetUserByEmail(ctx, "alice@example.com")
	req.NoError(err)

	// Then both lookups agree and the hash is only present on the record
	req.Equal(created.ID, byID.ID)
	req.Equal(created.ID, record.ID)
	req.Equal("hash", record.PasswordHash)
}

func TestUserRepository_DuplicateEmailOrUsername(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t))

	_, err := repository.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser(ctx, "alice2", "ALICE@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repository.CreateUser(ctx, "Alice", "other@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_UpdateStatusAndList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t))

	alice, err := repository.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)
	_, err = repository.CreateUser(ctx, "bob", "bob@example.com", "hash")
	req.NoError(err)

	req.NoError(repository.UpdateStatus(ctx, alice.ID, domain.StatusOnline))

	users, err := repository.ListUsers(ctx)
	req.NoError(err)
	req.Len(users, 2)
	for _, u := range users {
		if u.ID == alice.ID {
			req.Equal(domain.StatusOnline, u.Status)
		} else {
			req.Equal(domain.StatusOffline, u.Status)
		}
	}

	err = repository.UpdateStatus(ctx, "unknown", domain.StatusOnline)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestUserRepository_UnknownUser(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.GetUser(context.Background(), "missing")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.GetUserByEmail(context.Background(), "missing@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageRepository_HistoryIsChronological(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), logger())
	at := time.Now().UTC()

	// Given three messages stored out of order
	var stored []domain.Message
	for i, offset := range []int{2, 0, 1} {
		msg := domain.NewMessage(domain.MessageID(uuid.NewString()), "alice", domain.DeliveryRoom, "general",
			fmt.Sprintf("message %d", i), domain.MessageText, at.Add(time.Duration(offset)*time.Minute))
		req.NoError(repository.Save(ctx, msg))
		stored = append(stored, msg)
	}

	// When fetching the whole history
	messages, cursor, err := repository.History(ctx, domain.RoomKey("general"), nil, 0)
	req.NoError(err)

	// Then it is sorted oldest first and complete
	req.Nil(cursor)
	req.Len(messages, 3)
	req.Equal(stored[1].ID, messages[0].ID)
	req.Equal(stored[2].ID, messages[1].ID)
	req.Equal(stored[0].ID, messages[2].ID)
}

func TestMessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), logger())
	at := time.Now().UTC()

	var ids []domain.MessageID
	for i := 0; i < 5; i++ {
		msg := domain.NewMessage(domain.MessageID(uuid.NewString()), "alice", domain.DeliveryPrivate, "bob",
			fmt.Sprintf("message %d", i), domain.MessageText, at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Save(ctx, msg))
		ids = append(ids, msg.ID)
	}
	key := domain.PrivateKey("bob", "alice")

	// First page: the two newest
	page, cursor, err := repository.History(ctx, key, nil, 2)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]domain.MessageID{ids[3], ids[4]}, messageIDs(page))

	// Second page
	page, cursor, err = repository.History(ctx, key, cursor, 2)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]domain.MessageID{ids[1], ids[2]}, messageIDs(page))

	// Last page has no cursor
	page, cursor, err = repository.History(ctx, key, cursor, 2)
	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]domain.MessageID{ids[0]}, messageIDs(page))
}

func TestMessageRepository_ConversationsAreIsolated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), logger())
	at := time.Now().UTC()

	req.NoError(repository.Save(ctx, domain.NewMessage("m1", "alice", domain.DeliveryRoom, "r1", "hi", domain.MessageText, at)))
	req.NoError(repository.Save(ctx, domain.NewMessage("m2", "alice", domain.DeliveryRoom, "r10", "hi", domain.MessageText, at)))
	req.NoError(repository.Save(ctx, domain.NewMessage("m3", "alice", domain.DeliveryPrivate, "bob", "hi", domain.MessageText, at)))

	messages, _, err := repository.History(ctx, domain.RoomKey("r1"), nil, 0)
	req.NoError(err)
	req.Equal([]domain.MessageID{"m1"}, messageIDs(messages))

	empty, cursor, err := repository.History(ctx, domain.PrivateKey("alice", "carol"), nil, 10)
	req.NoError(err)
	req.Nil(cursor)
	req.Empty(empty)
}

func TestMessageRepository_Delete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), logger())
	msg := domain.NewMessage("m1", "alice", domain.DeliveryRoom, "r1", "hi", domain.MessageText, time.Now().UTC())
	req.NoError(repository.Save(ctx, msg))

	req.NoError(repository.Delete(ctx, "m1"))

	_, err := repository.Get(ctx, "m1")
	req.ErrorIs(err, errors.ErrNotFound)
	messages, _, err := repository.History(ctx, domain.RoomKey("r1"), nil, 0)
	req.NoError(err)
	req.Empty(messages)
	req.ErrorIs(repository.Delete(ctx, "m1"), errors.ErrNotFound)
}

func TestRoomRepository_LifecycleCascadesMessages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	messages := NewMessageRepository(db, logger())
	rooms := NewRoomRepository(db, messages, logger())
	at := time.Now().UTC()

	// Given a room with members and messages
	room := domain.NewRoom("r1", "general", "", "alice", []domain.UserID{"bob"}, at)
	req.NoError(rooms.CreateRoom(ctx, room))
	req.NoError(messages.Save(ctx, domain.NewMessage("m1", "bob", domain.DeliveryRoom, "r1", "hi", domain.MessageText, at)))

	fetched, err := rooms.GetRoom(ctx, "r1")
	req.NoError(err)
	req.ElementsMatch([]domain.UserID{"alice", "bob"}, fetched.Members)

	listed, err := rooms.ListRoomsForUser(ctx, "bob")
	req.NoError(err)
	req.Len(listed, 1)

	// When deleting it
	req.NoError(rooms.DeleteRoom(ctx, "r1"))

	// Then the room, its index and its messages are gone
	_, err = rooms.GetRoom(ctx, "r1")
	req.ErrorIs(err, errors.ErrNotFound)
	listed, err = rooms.ListRoomsForUser(ctx, "bob")
	req.NoError(err)
	req.Empty(listed)
	_, err = messages.Get(ctx, "m1")
	req.ErrorIs(err, errors.ErrNotFound)
	req.ErrorIs(rooms.DeleteRoom(ctx, "r1"), errors.ErrNotFound)
}

func messageIDs(messages []domain.Message) []domain.MessageID {
	ids := make([]domain.MessageID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}
