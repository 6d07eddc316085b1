//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../../mocks/mock_message_repository.go -package=mocks
package storage

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Save(ctx context.Context, msg domain.Message) error
	Get(ctx context.Context, id domain.MessageID) (domain.Message, error)
	Delete(ctx context.Context, id domain.MessageID) error
	History(ctx context.Context, key domain.ChannelKey, cursor *string, limit int) ([]domain.Message, *string, error)
	DeleteConversation(ctx context.Context, key domain.ChannelKey) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

func messageKey(id domain.MessageID) string { return "msg:" + string(id) }

func conversationPrefix(key domain.ChannelKey) string { return "conv:" + string(key) + "|" }

// conversationKey sorts lexicographically by creation time thanks to the zero padded timestamp.
func conversationKey(msg domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", conversationPrefix(msg.ConversationKey()), msg.CreatedAt.UnixNano(), msg.ID)
}

// Save stores the message and indexes it under its conversation in one transaction.
func (m *MessageRepository) Save(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := m.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, messageKey(msg.ID), msg); err != nil {
			return err
		}
		return txn.Set([]byte(conversationKey(msg)), []byte(msg.ID))
	})
	return wrap(err)
}

func (m *MessageRepository) Get(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, messageKey(id), &msg)
	})
	return msg, wrap(err)
}

func (m *MessageRepository) Delete(ctx context.Context, id domain.MessageID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := m.db.Update(func(txn *badger.Txn) error {
		var msg domain.Message
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return err
		}
		if err := txn.Delete([]byte(conversationKey(msg))); err != nil {
			return err
		}
		return txn.Delete([]byte(messageKey(id)))
	})
	return wrap(err)
}

// History returns up to limit messages of a conversation older than cursor, in chronological order.
// The returned cursor is nil once the oldest message has been reached. A limit <= 0 returns everything.
func (m *MessageRepository) History(ctx context.Context, key domain.ChannelKey, cursor *string, limit int) ([]domain.Message, *string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	prefix := []byte(conversationPrefix(key))
	var messages []domain.Message
	var lastSuffix string
	hasMore := false

	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every entry of the prefix.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		if cursor != nil {
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			suffix := strings.TrimPrefix(string(item.Key()), string(prefix))
			if cursor != nil && suffix == *cursor {
				continue
			}
			if limit > 0 && len(messages) == limit {
				hasMore = true
				break
			}
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var msg domain.Message
			if err := getJSON(txn, messageKey(domain.MessageID(id)), &msg); err != nil {
				return err
			}
			messages = append(messages, msg)
			lastSuffix = suffix
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrap(err)
	}

	messages = lo.Reverse(messages)
	if messages == nil {
		messages = make([]domain.Message, 0)
	}
	if !hasMore {
		return messages, nil, nil
	}
	return messages, &lastSuffix, nil
}

// DeleteConversation removes every message of a conversation and returns how many were deleted.
func (m *MessageRepository) DeleteConversation(ctx context.Context, key domain.ChannelKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var indexKeys, ids []string
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conversationPrefix(key))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			indexKeys = append(indexKeys, string(it.Item().KeyCopy(nil)))
			ids = append(ids, string(id))
		}
		return nil
	})
	if err != nil {
		return 0, wrap(err)
	}

	// A write batch splits large conversations over several transactions.
	wb := m.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range indexKeys {
		if err := wb.Delete([]byte(indexKeys[i])); err != nil {
			return 0, wrap(err)
		}
		if err := wb.Delete([]byte(messageKey(domain.MessageID(ids[i])))); err != nil {
			return 0, wrap(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, wrap(err)
	}
	m.log.Debug("Conversation deleted", "channel", key, "count", len(ids))
	return len(ids), nil
}
