package internal

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestDefaultMapper(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 1, 2, 10, 11, 12, 0, time.UTC)

	row := DefaultMapper("conv:room:general|"+padded(at)+":0123456789", []byte("x"))
	req.Equal("conv", row.Kind)
	req.Equal("room:general", row.Channel)
	req.Equal("10:11:12", row.Timestamp)
	req.Equal("01234567", row.EntityID)

	row = DefaultMapper("member:alice:r1", nil)
	req.Equal("alice", row.EntityID)
	req.Equal("r1", row.Channel)

	row = DefaultMapper("user:id:bob", []byte("{}"))
	req.Equal("user", row.Kind)
	req.Equal("bob", row.EntityID)
	req.Equal("Size: 2 bytes", row.Detail)
}

func TestDebugServer_Inspect(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("room:r1"), []byte(`{"id":"r1"}`)); err != nil {
			return err
		}
		return txn.Set([]byte("msg:m1"), []byte(`{}`))
	}))

	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), db, nil, func() map[string]any {
		return map[string]any{"goroutines": 42}
	})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?prefix=room:", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "room:r1")
	req.NotContains(body, "msg:m1")
	req.Contains(body, "goroutines")
}

func padded(at time.Time) string {
	return fmt.Sprintf("%019d", at.UnixNano())
}

func TestMessageMapper(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 1, 2, 10, 11, 12, 0, time.UTC)
	msg := domain.NewMessage("m1", "alice", domain.DeliveryRoom, "general", "hello", domain.MessageText, at)
	raw, err := json.Marshal(msg)
	req.NoError(err)

	row := MessageMapper("msg:m1", raw)

	req.Equal("room", row.Kind)
	req.Equal("room:general", row.Channel)
	req.Equal("10:11:12", row.Timestamp)
	req.Equal("alice: hello", row.Detail)
}
