package services

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Censor rewrites forbidden words of a text before it is stored.
type Censor interface {
	Censor(original string) (string, []string)
}

type persistRequest struct {
	Sender   domain.UserID       `validate:"required"`
	Delivery domain.DeliveryKind `validate:"required,oneof=private room"`
	Target   string              `validate:"required"`
	Kind     domain.MessageKind  `validate:"required,oneof=text image"`
}

// MessageStore validates, stores and enriches chat messages.
type MessageStore struct {
	log              *slog.Logger
	validate         *validator.Validate
	messages         storage.IMessageRepository
	users            storage.IUserRepository
	censor           Censor
	recorder         event.Recorder
	maxContentLength int
	timeout          time.Duration
	now              func() time.Time
}

// NewMessageStore accepts a nil censor when moderation is disabled and a nil recorder.
func NewMessageStore(log *slog.Logger, messages storage.IMessageRepository, users storage.IUserRepository,
	censor Censor, recorder event.Recorder, maxContentLength int, timeout time.Duration) *MessageStore {
	return &MessageStore{
		log:              log,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		messages:         messages,
		users:            users,
		censor:           censor,
		recorder:         recorder,
		maxContentLength: maxContentLength,
		timeout:          timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Persist stores a message and returns it with its sender display data.
// Validation failures wrap errors.ErrValidation, storage failures errors.ErrPersistence.
func (s *MessageStore) Persist(ctx context.Context, sender domain.UserID, delivery domain.DeliveryKind,
	target string, content string, kind domain.MessageKind) (domain.EnrichedMessage, error) {
	if kind == "" {
		kind = domain.MessageText
	}
	target = strings.TrimSpace(target)
	content = strings.TrimSpace(content)

	if err := s.validate.Struct(persistRequest{Sender: sender, Delivery: delivery, Target: target, Kind: kind}); err != nil {
		return domain.EnrichedMessage{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	// max counts runes, not bytes. Images are bounded by the transport frame size.
	rule := "required"
	if s.maxContentLength > 0 && kind == domain.MessageText {
		rule = fmt.Sprintf("required,max=%d", s.maxContentLength)
	}
	if err := s.validate.Var(content, rule); err != nil {
		return domain.EnrichedMessage{}, fmt.Errorf("%w: content: %v", errors.ErrValidation, err)
	}
	if kind == domain.MessageImage {
		if err := checkImage(content); err != nil {
			return domain.EnrichedMessage{}, fmt.Errorf("%w: content: %v", errors.ErrValidation, err)
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if delivery == domain.DeliveryPrivate {
		if _, err := s.users.GetUser(ctx, domain.UserID(target)); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return domain.EnrichedMessage{}, fmt.Errorf("%w: unknown receiver %s", errors.ErrValidation, target)
			}
			return domain.EnrichedMessage{}, persistenceError(err)
		}
	}

	// Loaded before Save: a send reported as failed must leave nothing stored.
	author, err := s.users.GetUser(ctx, sender)
	if err != nil {
		return domain.EnrichedMessage{}, persistenceError(err)
	}

	if kind == domain.MessageText && s.censor != nil {
		content = s.moderate(sender, content)
	}

	msg := domain.NewMessage(domain.MessageID(uuid.NewString()), sender, delivery, target, content, kind, s.now())
	if err := s.messages.Save(ctx, msg); err != nil {
		return domain.EnrichedMessage{}, persistenceError(err)
	}
	return domain.EnrichedMessage{Message: msg, Sender: author.AsSender()}, nil
}

func (s *MessageStore) moderate(sender domain.UserID, content string) string {
	censored, words := s.censor.Censor(content)
	if len(words) == 0 {
		return content
	}
	lang := whatlanggo.Detect(content).Lang.Iso6391()
	if lang == "" {
		lang = "und"
	}
	s.log.Debug("Message censored", "sender_id", sender, "words", len(words), "lang", lang)
	if s.recorder != nil {
		s.recorder.MessageCensored(lang)
	}
	return censored
}

// checkImage accepts an http(s) URL, or a data URL or bare base64 payload sniffed as an image.
func checkImage(content string) error {
	if u, err := url.Parse(content); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return nil
	}
	payload := content
	if strings.HasPrefix(content, "data:") {
		header, data, ok := strings.Cut(strings.TrimPrefix(content, "data:"), ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return fmt.Errorf("image data URL must be base64 encoded")
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("image is neither a URL nor base64: %v", err)
	}
	if mime := mimetype.Detect(raw); !strings.HasPrefix(mime.String(), "image/") {
		return fmt.Errorf("image payload is %s", mime.String())
	}
	return nil
}

func persistenceError(err error) error {
	if errors.Is(err, errors.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
}
