package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const secret = "test-secret"

func newServer(t *testing.T, session contract.ISession, origins []string, opts Options) *httptest.Server {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewHandler(log, auth.NewGate(secret, time.Hour), session, NewOriginPolicy(log, origins), nil, opts)
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		handler.CloseAll()
		server.Close()
	})
	return server
}

func wsURL(server *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + query
}

func token(t *testing.T, userID domain.UserID) string {
	tok, err := auth.NewGate(secret, time.Hour).GenerateToken(userID)
	require.NoError(t, err)
	return tok
}

func readEvent(t *testing.T, conn *websocket.Conn) (event.Type, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var in event.Inbound
	require.NoError(t, conn.ReadJSON(&in))
	return in.Type, in.Payload
}

func TestHandler_RejectsHandshake(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		reason string
	}{
		{"missing token", "", ReasonNoToken},
		{"invalid token", "?token=garbage", ReasonInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			// The session is never reached
			server := newServer(t, mocks.NewMockISession(ctrl), nil, Options{})

			conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, tt.query), nil)
			req.NoError(err)
			defer conn.Close()

			// Then a rejection event is written
			typ, payload := readEvent(t, conn)
			req.Equal(event.ConnectionRejectedType, typ)
			var rejected event.ConnectionRejected
			req.NoError(json.Unmarshal(payload, &rejected))
			req.Equal(tt.reason, rejected.Reason)

			// And the socket is closed with the authentication code
			_, _, err = conn.ReadMessage()
			var closeErr *websocket.CloseError
			req.ErrorAs(err, &closeErr)
			req.Equal(CloseUnauthenticated, closeErr.Code)
			req.Equal(tt.reason, closeErr.Text)
		})
	}
}

func TestHandler_AuthenticatedSession(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	session := mocks.NewMockISession(ctrl)
	server := newServer(t, session, nil, Options{})

	sinks := make(chan contract.EventSink, 1)
	dispatched := make(chan event.Inbound, 1)
	released := make(chan struct{})
	session.EXPECT().Admit(gomock.Any(), domain.UserID("alice"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.UserID, sink contract.EventSink) domain.ConnectionID {
			sinks <- sink
			return "c1"
		})
	session.EXPECT().Dispatch(gomock.Any(), domain.ConnectionID("c1"), gomock.Any()).
		Do(func(_ context.Context, _ domain.ConnectionID, in event.Inbound) { dispatched <- in })
	session.EXPECT().Release(gomock.Any(), domain.ConnectionID("c1")).
		Do(func(context.Context, domain.ConnectionID) { close(released) })

	// Given a client authenticating with the Authorization header
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token(t, "alice"))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), header)
	req.NoError(err)

	// When it sends an inbound event
	req.NoError(conn.WriteJSON(map[string]any{"type": "join_channel", "payload": map[string]string{"channel": "r1"}}))
	select {
	case in := <-dispatched:
		req.Equal(event.JoinChannelType, in.Type)
		req.JSONEq(`{"channel":"r1"}`, string(in.Payload))
	case <-time.After(2 * time.Second):
		req.Fail("Inbound event was not dispatched")
	}

	// When the server pushes an event through the sink
	sink := <-sinks
	req.NoError(sink.Consume(context.Background(), event.New(event.ChannelJoinedType, event.ChannelJoined{Channel: "room:r1"})))
	typ, payload := readEvent(t, conn)
	req.Equal(event.ChannelJoinedType, typ)
	req.JSONEq(`{"channel":"room:r1"}`, string(payload))

	// When the client goes away the connection is released
	req.NoError(conn.Close())
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		req.Fail("Connection was not released")
	}
	req.Eventually(func() bool {
		return errors.Is(sink.Consume(context.Background(), event.New(event.UserStatusType, nil)), errors.ErrConnectionClosed)
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_RateLimitAndMalformedInput(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	session := mocks.NewMockISession(ctrl)
	server := newServer(t, session, nil, Options{RateLimit: 0.001, RateBurst: 2})

	session.EXPECT().Admit(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ConnectionID("c1"))
	session.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
	session.EXPECT().Release(gomock.Any(), gomock.Any()).AnyTimes()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "?token="+token(t, "alice")), nil)
	req.NoError(err)
	defer conn.Close()

	// First event is malformed, second is dispatched, third exceeds the burst
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.NoError(conn.WriteJSON(map[string]any{"type": "typing", "payload": map[string]any{"channel": "r1"}}))
	req.NoError(conn.WriteJSON(map[string]any{"type": "typing", "payload": map[string]any{"channel": "r1"}}))

	var codes []errors.Code
	for i := 0; i < 2; i++ {
		typ, payload := readEvent(t, conn)
		req.Equal(event.MessageRejectedType, typ)
		var nack event.MessageRejected
		req.NoError(json.Unmarshal(payload, &nack))
		codes = append(codes, nack.Code)
	}
	req.Equal([]errors.Code{errors.CodeValidation, errors.CodeRateLimited}, codes)
}

func TestHandler_OriginPolicy(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	server := newServer(t, mocks.NewMockISession(ctrl), []string{"https://chat.example.com"}, Options{})

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "?token="+token(t, "alice")), header)

	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)
}

func TestHandler_CloseAllWaitsForInflightDispatch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	session := mocks.NewMockISession(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewHandler(log, auth.NewGate(secret, time.Hour), session, NewOriginPolicy(log, nil), nil, Options{})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dispatching := make(chan struct{})
	finish := make(chan struct{})
	var persisted atomic.Bool
	session.EXPECT().Admit(gomock.Any(), domain.UserID("alice"), gomock.Any()).Return(domain.ConnectionID("c1"))
	session.EXPECT().Dispatch(gomock.Any(), domain.ConnectionID("c1"), gomock.Any()).
		Do(func(context.Context, domain.ConnectionID, event.Inbound) {
			close(dispatching)
			<-finish
			persisted.Store(true)
		})
	session.EXPECT().Release(gomock.Any(), domain.ConnectionID("c1"))

	// Given a send still being handled
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "?token="+token(t, "alice")), nil)
	req.NoError(err)
	defer func() { _ = conn.Close() }()
	req.NoError(conn.WriteJSON(map[string]any{"type": "send_message", "payload": map[string]string{"content": "hi"}}))
	<-dispatching

	// When the handler is closed
	closed := make(chan struct{})
	go func() {
		handler.CloseAll()
		close(closed)
	}()

	// Then it returns only after the send completed
	select {
	case <-closed:
		req.Fail("CloseAll returned before the in-flight send completed")
	case <-time.After(100 * time.Millisecond):
	}
	close(finish)
	select {
	case <-closed:
		req.True(persisted.Load())
	case <-time.After(2 * time.Second):
		req.Fail("CloseAll did not return")
	}

	// And new handshakes are refused
	late, _, err := websocket.DefaultDialer.Dial(wsURL(server, "?token="+token(t, "alice")), nil)
	req.NoError(err)
	defer func() { _ = late.Close() }()
	req.NoError(late.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = late.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseGoingAway))
}
