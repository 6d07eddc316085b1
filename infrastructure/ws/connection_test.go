package ws

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func queued(t *testing.T, c *Connection) []string {
	var refs []string
	for len(c.queue) > 0 {
		var e struct {
			Payload event.MessageRejected `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(<-c.queue, &e))
		refs = append(refs, e.Payload.Ref)
	}
	return refs
}

func rejected(ref string) event.Event {
	return event.New(event.MessageRejectedType, event.MessageRejected{Ref: ref})
}

func TestConnection_DropOldestKeepsNewestEvents(t *testing.T) {
	req := require.New(t)
	c := NewConnection(nil, logs.GetLoggerFromLevel(slog.LevelDebug), nil, Options{QueueSize: 2, Overflow: DropOldest})
	ctx := context.Background()

	// When three events are pushed into a queue of two
	req.NoError(c.Consume(ctx, rejected("1")))
	req.NoError(c.Consume(ctx, rejected("2")))
	req.NoError(c.Consume(ctx, rejected("3")))

	// Then the oldest one was dropped
	req.Equal([]string{"2", "3"}, queued(t, c))
}

func TestConnection_DisconnectPolicyClosesSlowConsumer(t *testing.T) {
	req := require.New(t)
	c := NewConnection(nil, logs.GetLoggerFromLevel(slog.LevelDebug), nil, Options{QueueSize: 1, Overflow: Disconnect})
	ctx := context.Background()

	req.NoError(c.Consume(ctx, rejected("1")))
	req.ErrorIs(c.Consume(ctx, rejected("2")), errors.ErrQueueFull)
	req.ErrorIs(c.Consume(ctx, rejected("3")), errors.ErrConnectionClosed)

	select {
	case <-c.done:
	default:
		req.Fail("Connection should be closed")
	}
}

func TestConnection_ConsumeAfterClose(t *testing.T) {
	req := require.New(t)
	c := NewConnection(nil, logs.GetLoggerFromLevel(slog.LevelDebug), nil, Options{})
	c.Close()
	c.Close()

	req.ErrorIs(c.Consume(context.Background(), rejected("1")), errors.ErrConnectionClosed)
}
