// Package runtime owns live connections, channel subscriptions, presence and message routing.
// It orchestrates the system without containing storage or transport details.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	BufferSize           int
	SinkTimeout          time.Duration
	RestartInterval      time.Duration
	MetricInterval       time.Duration
	LowCapacityThreshold int
}

// Orchestrator wires the registry, membership, presence and router together
// and supervises the background workers they rely on.
type Orchestrator struct {
	log        *slog.Logger
	registry   *Registry
	membership *Membership
	presence   *Presence
	router     *Router
	fanout     *workers.EventFanout
	supervisor *workers.Supervisor
	telemetry  chan event.Event
	presenceCh chan event.Event
	recorder   event.Recorder
	config     Config
}

func NewOrchestrator(log *slog.Logger, config Config, rooms contract.IRoomDirectory,
	users contract.IUserDirectory, store contract.IMessageStore, recorder event.Recorder) *Orchestrator {
	telemetry := make(chan event.Event, config.BufferSize)
	presenceCh := make(chan event.Event, config.BufferSize)

	registry := NewRegistry(log, recorder)
	membership := NewMembership(log, registry, rooms)
	fanout := workers.NewEventFanout(log, presenceCh, config.SinkTimeout).Subscribe(NewBroadcastSink(registry))
	presence := NewPresence(log, registry, users, fanout, recorder)
	router := NewRouter(log, registry, membership, membership, store, recorder)

	o := &Orchestrator{
		log:        log,
		registry:   registry,
		membership: membership,
		presence:   presence,
		router:     router,
		fanout:     fanout,
		supervisor: workers.NewSupervisor(log, telemetry, config.RestartInterval),
		telemetry:  telemetry,
		presenceCh: presenceCh,
		recorder:   recorder,
		config:     config,
	}
	registry.OnEvicted(func(ctx context.Context, conn Connection) {
		o.reconcile(ctx, conn.ID, conn.UserID)
	})
	return o
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

func (o *Orchestrator) Membership() *Membership { return o.membership }

func (o *Orchestrator) Presence() *Presence { return o.presence }

// Start runs the supervised workers until ctx is canceled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.supervisor.Add(
		o.fanout,
		workers.NewTelemetryWorker(o.log, o.telemetry,
			event.NewWorkerRestartedAfterPanicHandler(o.log, o.recorder),
			event.NewChannelCapacityHandler(o.log, o.recorder, o.config.LowCapacityThreshold),
			event.NewProcessUsageHandler(o.log, o.recorder),
		),
	)
	if o.config.MetricInterval > 0 {
		o.supervisor.Add(
			workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
				workers.NewNamedChannel("presence", o.presenceCh),
				workers.NewNamedChannel("telemetry", o.telemetry),
			}, o.telemetry, o.config.MetricInterval),
			workers.NewProcessUsageWorker(o.log, o.telemetry, o.config.MetricInterval),
		)
	}
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// Admit registers an authenticated connection and announces its identity online if needed.
func (o *Orchestrator) Admit(ctx context.Context, userID domain.UserID, sink contract.EventSink) domain.ConnectionID {
	connID := o.registry.Register(userID, sink)
	o.presence.OnConnect(ctx, userID)
	return connID
}

// Release is idempotent: the subscriptions and presence of a connection are reconciled once.
func (o *Orchestrator) Release(ctx context.Context, connID domain.ConnectionID) {
	userID, ok := o.registry.Unregister(connID)
	if !ok {
		return
	}
	o.reconcile(ctx, connID, userID)
}

func (o *Orchestrator) reconcile(ctx context.Context, connID domain.ConnectionID, userID domain.UserID) {
	o.membership.LeaveAll(connID)
	o.presence.OnDisconnect(ctx, userID)
}

// Dispatch handles one inbound event of a connection. Events of one connection are
// expected to be dispatched sequentially.
func (o *Orchestrator) Dispatch(ctx context.Context, connID domain.ConnectionID, in event.Inbound) {
	cmd, err := in.Decode()
	if err != nil {
		o.log.Debug("Invalid inbound event", "conn_id", connID, "type", in.Type, "error", err)
		o.registry.Send(ctx, connID, event.New(event.MessageRejectedType, event.MessageRejected{
			Code:   errors.ToCode(err),
			Reason: err.Error(),
		}))
		return
	}

	switch c := cmd.(type) {
	case domain.JoinChannelCommand:
		o.join(ctx, connID, c)
	case domain.LeaveChannelCommand:
		o.leave(ctx, connID, c)
	case domain.SendMessageCommand:
		_ = o.router.Route(ctx, connID, c)
	case domain.TypingCommand:
		if err := o.router.Typing(ctx, connID, c); err != nil {
			o.log.Debug("Typing indicator dropped", "conn_id", connID, "error", err)
		}
	}
}

func (o *Orchestrator) join(ctx context.Context, connID domain.ConnectionID, cmd domain.JoinChannelCommand) {
	key, err := domain.ParseChannelKey(cmd.Channel)
	if err == nil {
		err = o.membership.Join(ctx, connID, key)
	} else {
		err = fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err != nil {
		o.log.Info("Join rejected", "conn_id", connID, "channel", cmd.Channel, "error", err)
		o.registry.Send(ctx, connID, event.New(event.JoinRejectedType, event.JoinRejected{
			Channel: cmd.Channel,
			Code:    errors.ToCode(err),
			Reason:  Reason(err),
		}))
		return
	}
	o.registry.Send(ctx, connID, event.New(event.ChannelJoinedType, event.ChannelJoined{Channel: key}))
}

func (o *Orchestrator) leave(ctx context.Context, connID domain.ConnectionID, cmd domain.LeaveChannelCommand) {
	key, err := domain.ParseChannelKey(cmd.Channel)
	if err != nil {
		return
	}
	o.membership.Leave(connID, key)
	o.registry.Send(ctx, connID, event.New(event.ChannelLeftType, event.ChannelLeft{Channel: key}))
}
