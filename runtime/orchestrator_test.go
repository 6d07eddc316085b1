package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	rooms        *mocks.MockIRoomDirectory
	users        *mocks.MockIUserDirectory
	store        *mocks.MockIMessageStore
}

func newOrchestratorFixture(t *testing.T) orchestratorFixture {
	ctrl := gomock.NewController(t)
	f := orchestratorFixture{
		rooms: mocks.NewMockIRoomDirectory(ctrl),
		users: mocks.NewMockIUserDirectory(ctrl),
		store: mocks.NewMockIMessageStore(ctrl),
	}
	f.users.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	config := Config{BufferSize: 16, SinkTimeout: time.Second, RestartInterval: 10 * time.Millisecond}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	f.orchestrator = NewOrchestrator(testLogger(), config, f.rooms, f.users, f.store, metrics)
	return f
}

func inbound(t *testing.T, typ event.Type, payload any) event.Inbound {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return event.Inbound{Type: typ, Payload: raw}
}

func TestOrchestrator_JoinFlow(t *testing.T) {
	req := require.New(t)
	f := newOrchestratorFixture(t)
	room := domain.NewRoom("r1", "general", "", "alice", nil, time.Now())
	f.rooms.EXPECT().GetRoom(gomock.Any(), room.ID).Return(room, nil).AnyTimes()
	ctx := context.Background()

	aliceSink, malSink := &recordingSink{}, &recordingSink{}
	alice := f.orchestrator.Admit(ctx, "alice", aliceSink)
	mallory := f.orchestrator.Admit(ctx, "mallory", malSink)

	// When both try to join
	f.orchestrator.Dispatch(ctx, alice, inbound(t, event.JoinChannelType, domain.JoinChannelCommand{Channel: "r1"}))
	f.orchestrator.Dispatch(ctx, mallory, inbound(t, event.JoinChannelType, domain.JoinChannelCommand{Channel: "room:r1"}))

	// Then the member is acknowledged and the outsider rejected
	joined := aliceSink.ofType(event.ChannelJoinedType)
	req.Len(joined, 1)
	req.Equal(room.ChannelKey(), joined[0].Payload.(event.ChannelJoined).Channel)
	rejected := malSink.ofType(event.JoinRejectedType)
	req.Len(rejected, 1)
	req.Equal(errors.CodeNotAMember, rejected[0].Payload.(event.JoinRejected).Code)
	req.Empty(f.orchestrator.Membership().ChannelsOf(mallory))

	// When alice leaves
	f.orchestrator.Dispatch(ctx, alice, inbound(t, event.LeaveChannelType, domain.LeaveChannelCommand{Channel: "r1"}))
	req.Len(aliceSink.ofType(event.ChannelLeftType), 1)
	req.Empty(f.orchestrator.Membership().Subscribers(room.ChannelKey()))
}

func TestOrchestrator_InvalidInbound(t *testing.T) {
	req := require.New(t)
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	sink := &recordingSink{}
	connID := f.orchestrator.Admit(ctx, "alice", sink)

	f.orchestrator.Dispatch(ctx, connID, event.Inbound{Type: "dance", Payload: json.RawMessage(`{}`)})
	f.orchestrator.Dispatch(ctx, connID, event.Inbound{Type: event.SendMessageType, Payload: json.RawMessage(`"oops"`)})
	f.orchestrator.Dispatch(ctx, connID, inbound(t, event.JoinChannelType, domain.JoinChannelCommand{Channel: "dm:alice"}))

	nacks := sink.ofType(event.MessageRejectedType)
	req.Len(nacks, 2)
	for _, nack := range nacks {
		req.Equal(errors.CodeValidation, nack.Payload.(event.MessageRejected).Code)
	}
	req.Equal(errors.CodeValidation, sink.ofType(event.JoinRejectedType)[0].Payload.(event.JoinRejected).Code)
}

func TestOrchestrator_ReleaseReconcilesOnce(t *testing.T) {
	req := require.New(t)
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	connID := f.orchestrator.Admit(ctx, "alice", &recordingSink{})
	req.NoError(f.orchestrator.Membership().Join(ctx, connID, domain.PrivateKey("alice", "bob")))
	req.Equal(domain.StatusOnline, f.orchestrator.Presence().Status("alice"))

	f.orchestrator.Release(ctx, connID)
	f.orchestrator.Release(ctx, connID)

	req.Empty(f.orchestrator.Membership().ChannelsOf(connID))
	req.Equal(domain.StatusOffline, f.orchestrator.Presence().Status("alice"))
	req.Zero(f.orchestrator.Registry().Len())
}

func TestOrchestrator_EvictedConnectionIsReconciled(t *testing.T) {
	req := require.New(t)
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	dead := &recordingSink{}
	connID := f.orchestrator.Admit(ctx, "bob", dead)
	req.NoError(f.orchestrator.Membership().Join(ctx, connID, domain.PrivateKey("alice", "bob")))
	dead.Close()

	// A failed push behaves like a disconnect
	f.orchestrator.Registry().Send(ctx, connID, event.New(event.UserStatusType, nil))

	req.Empty(f.orchestrator.Membership().ChannelsOf(connID))
	req.Equal(domain.StatusOffline, f.orchestrator.Presence().Status("bob"))
}

func TestOrchestrator_PresenceIsBroadcastThroughFanout(t *testing.T) {
	req := require.New(t)
	f := newOrchestratorFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.orchestrator.Start(ctx)
		close(done)
	}()

	watcher := &recordingSink{}
	f.orchestrator.Admit(ctx, "watcher", watcher)
	f.orchestrator.Admit(ctx, "alice", &recordingSink{})

	// Then every connection eventually learns alice is online
	req.Eventually(func() bool {
		for _, e := range watcher.ofType(event.UserStatusType) {
			if e.Payload.(event.UserStatus).UserID == "alice" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
