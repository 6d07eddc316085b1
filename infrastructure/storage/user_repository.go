//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../../mocks/mock_user_repository.go -package=mocks
package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUser(ctx context.Context, userID domain.UserID) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateStatus(ctx context.Context, userID domain.UserID, status domain.Status) error
}

// UserRecord is the stored form of a user; the hash never leaves the repository layer
// except for credential verification.
type UserRecord struct {
	domain.User
	PasswordHash string `json:"password_hash"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id domain.UserID) string { return "user:id:" + string(id) }

func emailKey(email string) string { return "user:email:" + strings.ToLower(strings.TrimSpace(email)) }

func usernameKey(username string) string {
	return "user:name:" + strings.ToLower(strings.TrimSpace(username))
}

// CreateUser persists a new user with unique email and username.
func (u *UserRepository) CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	record := UserRecord{
		User: domain.User{
			ID:        domain.UserID(uuid.NewString()),
			Username:  strings.TrimSpace(username),
			Email:     strings.ToLower(strings.TrimSpace(email)),
			Avatar:    domain.DefaultAvatar(username),
			Status:    domain.StatusOffline,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: hashedPassword,
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{emailKey(email), usernameKey(username)} {
			taken, err := exists(txn, key)
			if err != nil {
				return err
			}
			if taken {
				return errors.ErrUserAlreadyExists
			}
		}
		if err := txn.Set([]byte(emailKey(email)), []byte(record.ID)); err != nil {
			return err
		}
		if err := txn.Set([]byte(usernameKey(username)), []byte(record.ID)); err != nil {
			return err
		}
		return setJSON(txn, userKey(record.ID), record)
	})
	if err != nil {
		return domain.User{}, wrap(err)
	}
	return record.User, nil
}

// GetUserByEmail returns the full record, hash included, for login.
func (u *UserRepository) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return UserRecord{}, err
	}
	var record UserRecord
	err := u.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, emailKey(email))
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(domain.UserID(id)), &record)
	})
	return record, wrap(err)
}

func (u *UserRepository) GetUser(ctx context.Context, userID domain.UserID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var record UserRecord
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(userID), &record)
	})
	return record.User, wrap(err)
}

func (u *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []UserRecord
	err := u.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("user:id:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var record UserRecord
			if err := getJSON(txn, string(it.Item().Key()), &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return lo.Map(records, func(item UserRecord, _ int) domain.User {
		return item.User
	}), nil
}

func (u *UserRepository) UpdateStatus(ctx context.Context, userID domain.UserID, status domain.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := u.db.Update(func(txn *badger.Txn) error {
		var record UserRecord
		if err := getJSON(txn, userKey(userID), &record); err != nil {
			return err
		}
		record.Status = status
		return setJSON(txn, userKey(userID), record)
	})
	return wrap(err)
}
