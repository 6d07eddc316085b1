package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// Authorizer checks that an identity may use a channel.
type Authorizer interface {
	Authorize(ctx context.Context, userID domain.UserID, key domain.ChannelKey) error
}

// Router takes a send request from Received to Delivered.
// A send is Rejected before persistence and Failed when the store refuses it;
// both outcomes are reported to the originating connection only.
type Router struct {
	log        *slog.Logger
	registry   contract.IRegistry
	membership contract.IMembership
	authorizer Authorizer
	store      contract.IMessageStore
	recorder   event.Recorder
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, membership contract.IMembership,
	authorizer Authorizer, store contract.IMessageStore, recorder event.Recorder) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		membership: membership,
		authorizer: authorizer,
		store:      store,
		recorder:   recorder,
	}
}

// Route persists then delivers a message. Nothing is delivered unless it was persisted.
func (r *Router) Route(ctx context.Context, origin domain.ConnectionID, cmd domain.SendMessageCommand) error {
	sender, ok := r.registry.Lookup(origin)
	if !ok {
		return errors.ErrConnectionClosed
	}

	key, target, err := r.validate(ctx, sender, cmd)
	if err != nil {
		r.reject(ctx, origin, cmd.Ref, err)
		return err
	}

	msg, err := r.store.Persist(ctx, sender, cmd.Delivery, target, cmd.Content, cmd.MessageKind)
	if err != nil {
		r.reject(ctx, origin, cmd.Ref, err)
		return err
	}

	// Persisted messages are delivered even if the sender disconnects meanwhile.
	routeCtx := context.WithoutCancel(ctx)
	targets := r.membership.Resolve(key)
	evt := event.New(event.ReceiveMessageType, msg)
	for _, connID := range targets.Connections {
		r.registry.Send(routeCtx, connID, evt)
	}
	for _, userID := range lo.Uniq(targets.Identities) {
		r.registry.SendToIdentity(routeCtx, userID, evt)
	}

	if r.recorder != nil {
		r.recorder.MessageRouted(string(cmd.Delivery))
	}
	r.log.Debug("Message routed", "message_id", msg.ID, "sender_id", sender, "channel", key,
		"connections", len(targets.Connections), "identities", len(targets.Identities))
	return nil
}

// validate returns the channel of the send and its target normalized to a room or user id.
// Room targets are accepted bare or as "room:<id>", like joins.
func (r *Router) validate(ctx context.Context, sender domain.UserID, cmd domain.SendMessageCommand) (domain.ChannelKey, string, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return "", "", fmt.Errorf("%w: content is required", errors.ErrValidation)
	}
	target := strings.TrimSpace(cmd.Target)
	if target == "" {
		return "", "", fmt.Errorf("%w: target is required", errors.ErrValidation)
	}
	switch cmd.Delivery {
	case domain.DeliveryRoom:
		key, err := domain.ParseChannelKey(target)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		roomID, ok := key.Room()
		if !ok {
			return "", "", fmt.Errorf("%w: %s is not a room", errors.ErrValidation, target)
		}
		// Membership may have changed since the join.
		if err := r.authorizer.Authorize(ctx, sender, key); err != nil {
			return "", "", err
		}
		return key, string(roomID), nil
	case domain.DeliveryPrivate:
		return domain.PrivateKey(sender, domain.UserID(target)), target, nil
	default:
		return "", "", fmt.Errorf("%w: unknown delivery %q", errors.ErrValidation, cmd.Delivery)
	}
}

// Typing relays a typing indicator to the other side of a channel, never back to its origin.
func (r *Router) Typing(ctx context.Context, origin domain.ConnectionID, cmd domain.TypingCommand) error {
	sender, ok := r.registry.Lookup(origin)
	if !ok {
		return errors.ErrConnectionClosed
	}
	key, err := domain.ParseChannelKey(cmd.Channel)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	evt := event.New(event.UserTypingType, event.UserTyping{UserID: sender, Channel: key, IsTyping: cmd.IsTyping})

	if key.IsPrivate() {
		peer, ok := key.Peer(sender)
		if !ok {
			return fmt.Errorf("%w: %s", errors.ErrNotAMember, key)
		}
		if peer != sender {
			r.registry.SendToIdentity(ctx, peer, evt)
		}
		return nil
	}

	subscribers := r.membership.Subscribers(key)
	if !lo.Contains(subscribers, origin) {
		return fmt.Errorf("%w: %s", errors.ErrNotAMember, key)
	}
	for _, connID := range subscribers {
		if connID != origin {
			r.registry.Send(ctx, connID, evt)
		}
	}
	return nil
}

func (r *Router) reject(ctx context.Context, origin domain.ConnectionID, ref string, err error) {
	code := errors.ToCode(err)
	if r.recorder != nil {
		r.recorder.MessageRejected(string(code))
	}
	r.log.Info("Message rejected", "conn_id", origin, "code", code, "error", err)
	r.registry.Send(context.WithoutCancel(ctx), origin, event.New(event.MessageRejectedType, event.MessageRejected{
		Ref:    ref,
		Code:   code,
		Reason: Reason(err),
	}))
}

// Reason is the client facing description of a failure; internal details stay in the logs.
func Reason(err error) string {
	switch errors.ToCode(err) {
	case errors.CodePersistence:
		return "message could not be stored"
	case errors.CodeInternal:
		return "internal error"
	default:
		return err.Error()
	}
}
