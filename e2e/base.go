package e2e

import (
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/internal"
	"chat-relay/services"
	"context"
	"fmt"
	"net/http/httptest"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config

	db     *badger.DB
	app    *internal.App
	server *httptest.Server
	cancel context.CancelFunc
	url    string
}

// User is a registered account with an authenticated API client.
type User struct {
	ID     domain.UserID
	Name   string
	Client *client.Client
}

// SetupSuite loads the environment configuration and boots a relay unless one is targeted.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerURL != "" {
		s.url = s.Config.ServerURL
		return
	}

	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)

	s.app, err = internal.NewApp(logs.GetLoggerFromString(s.Config.LogLevel), internal.Config{
		JWTSecret:            "e2e-secret",
		AuthTokenDuration:    time.Hour,
		BufferSize:           256,
		ConnectionBufferSize: 256,
		OverflowPolicy:       "drop_oldest",
		RestartInterval:      50 * time.Millisecond,
		SinkTimeout:          time.Second,
		PersistTimeout:       5 * time.Second,
		MaxContentLength:     2000,
		CharReplacement:      "*",
		AllowedOrigins:       "*",
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
		MaxMessageSize:       64 * 1024,
	}, s.db)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.app.Run(ctx)

	s.server = httptest.NewServer(s.app.Handler)
	s.url = s.server.URL
}

func (s *BaseSuite) TearDownSuite() {
	if s.server == nil {
		return
	}
	s.app.Close()
	s.server.Close()
	s.cancel()
	_ = s.db.Close()
}

// Step prints a header for a scenario step.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseSuite) Anonymous() *client.Client {
	c, err := client.New(s.url, nil)
	s.Require().NoError(err)
	return c
}

// NewUser registers a fresh account; the suffix keeps names unique across runs.
func (s *BaseSuite) NewUser(name string) User {
	suffix := uuid.NewString()[:8]
	username := name + "-" + suffix
	session, err := s.Anonymous().Register(s.ctx(), username, username+"@example.com", "secret-"+suffix)
	s.Require().NoError(err)
	return User{ID: session.User.ID, Name: username, Client: s.Anonymous().WithToken(session.Token)}
}

func (s *BaseSuite) NewRoom(admin User, members ...User) domain.Room {
	ids := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	room, err := admin.Client.CreateRoom(s.ctx(), services.CreateRoomRequest{Name: "room-" + uuid.NewString()[:8], Members: ids})
	s.Require().NoError(err)
	return room
}

func (s *BaseSuite) Connect(u User) *client.Stream {
	stream, err := u.Client.Dial(s.ctx())
	s.Require().NoError(err)
	return stream
}

func (s *BaseSuite) Join(stream *client.Stream, key domain.ChannelKey) {
	s.Require().NoError(stream.Join(key.String()))
	in, err := stream.Until(event.ChannelJoinedType, s.Config.Timeout)
	s.Require().NoError(err)
	joined, err := client.Decode[event.ChannelJoined](in)
	s.Require().NoError(err)
	s.Require().Equal(key, joined.Channel)
}

// Receive waits for the next delivered message, skipping presence and typing noise.
func (s *BaseSuite) Receive(stream *client.Stream) domain.EnrichedMessage {
	in, err := stream.Until(event.ReceiveMessageType, s.Config.Timeout)
	s.Require().NoError(err)
	msg, err := client.Decode[domain.EnrichedMessage](in)
	s.Require().NoError(err)
	return msg
}

// Silent asserts that no message reaches the stream. The stream is unusable afterwards.
func (s *BaseSuite) Silent(stream *client.Stream) {
	deadline := time.Now().Add(s.Config.Quiet)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		in, err := stream.Next(remaining)
		if err != nil {
			return
		}
		s.Require().NotEqual(event.ReceiveMessageType, in.Type, "unexpected delivery: %s", string(in.Payload))
	}
}

// AwaitStatus waits for the presence announcement of userID.
func (s *BaseSuite) AwaitStatus(stream *client.Stream, userID domain.UserID, status domain.Status) {
	deadline := time.Now().Add(s.Config.Timeout)
	for time.Now().Before(deadline) {
		in, err := stream.Until(event.UserStatusType, time.Until(deadline))
		s.Require().NoError(err)
		got, err := client.Decode[event.UserStatus](in)
		s.Require().NoError(err)
		if got.UserID == userID && got.Status == status {
			return
		}
	}
	s.FailNow(fmt.Sprintf("no %s announcement for %s", status, userID))
}

func (s *BaseSuite) StatusOf(viewer User, userID domain.UserID) domain.Status {
	users, err := viewer.Client.Users(s.ctx())
	s.Require().NoError(err)
	for _, u := range users {
		if u.ID == userID {
			return u.Status
		}
	}
	s.FailNow("user not listed: " + string(userID))
	return ""
}

func (s *BaseSuite) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout)
	s.T().Cleanup(cancel)
	return ctx
}
