package e2e

import (
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/infrastructure/ws"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type chatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &chatSuite{})
}

func (s *chatSuite) TestRoomMessageReachesOnlyJoinedConnections() {
	u1, u2, u3 := s.NewUser("u1"), s.NewUser("u2"), s.NewUser("u3")
	room := s.NewRoom(u1, u2, u3)
	key := domain.RoomKey(room.ID)

	c1, c2, c3 := s.Connect(u1), s.Connect(u2), s.Connect(u3)
	defer c1.Close()
	defer c2.Close()
	defer c3.Close()

	s.Step("C1 and C2 join the room, C3 stays out")
	s.Join(c1, key)
	s.Join(c2, key)

	s.Step("C1 sends hi")
	s.Require().NoError(c1.Send(domain.SendMessageCommand{Content: "hi", Delivery: domain.DeliveryRoom, Target: string(room.ID)}))

	for _, stream := range []*client.Stream{c1, c2} {
		msg := s.Receive(stream)
		s.Equal(u1.ID, msg.SenderID)
		s.Equal(u1.Name, msg.Sender.Username)
		s.Equal("hi", msg.Content)
		s.Require().NotNil(msg.RoomID)
		s.Equal(room.ID, *msg.RoomID)
	}

	s.Step("C3 never joined and receives nothing")
	s.Silent(c3)
}

func (s *chatSuite) TestJoinByNonMemberIsRejected() {
	owner, outsider := s.NewUser("owner"), s.NewUser("outsider")
	room := s.NewRoom(owner)

	stream := s.Connect(outsider)
	defer stream.Close()

	s.Require().NoError(stream.Join(domain.RoomKey(room.ID).String()))
	in, err := stream.Until(event.JoinRejectedType, s.Config.Timeout)
	s.Require().NoError(err)
	rejected, err := client.Decode[event.JoinRejected](in)
	s.Require().NoError(err)
	s.Equal(errors.CodeNotAMember, rejected.Code)

	s.Step("a send to the room is refused too")
	s.Require().NoError(stream.Send(domain.SendMessageCommand{Content: "let me in", Delivery: domain.DeliveryRoom, Target: string(room.ID), Ref: "r1"}))
	in, err = stream.Until(event.MessageRejectedType, s.Config.Timeout)
	s.Require().NoError(err)
	nack, err := client.Decode[event.MessageRejected](in)
	s.Require().NoError(err)
	s.Equal("r1", nack.Ref)
	s.Equal(errors.CodeNotAMember, nack.Code)

	page, err := owner.Client.History(s.ctx(), domain.DeliveryRoom, string(room.ID), "", 0)
	s.Require().NoError(err)
	s.Empty(page.Messages)
}

func (s *chatSuite) TestPrivateMessageReachesEveryDeviceOfBothIdentities() {
	alice, bob, carol := s.NewUser("alice"), s.NewUser("bob"), s.NewUser("carol")

	alicePhone, aliceLaptop := s.Connect(alice), s.Connect(alice)
	bobPhone, bobLaptop := s.Connect(bob), s.Connect(bob)
	carolStream := s.Connect(carol)
	for _, stream := range []*client.Stream{alicePhone, aliceLaptop, bobPhone, bobLaptop, carolStream} {
		defer stream.Close()
	}

	s.Require().NoError(alicePhone.Send(domain.SendMessageCommand{Content: "psst", Delivery: domain.DeliveryPrivate, Target: string(bob.ID)}))

	for _, stream := range []*client.Stream{alicePhone, aliceLaptop, bobPhone, bobLaptop} {
		msg := s.Receive(stream)
		s.Equal("psst", msg.Content)
		s.Require().NotNil(msg.ReceiverID)
		s.Equal(bob.ID, *msg.ReceiverID)
	}
	s.Silent(carolStream)
}

func (s *chatSuite) TestSequentialSendsKeepOrder() {
	alice, bob := s.NewUser("alice"), s.NewUser("bob")
	room := s.NewRoom(alice, bob)
	key := domain.RoomKey(room.ID)

	sender, receiver := s.Connect(alice), s.Connect(bob)
	defer sender.Close()
	defer receiver.Close()
	s.Join(sender, key)
	s.Join(receiver, key)

	const count = 25
	for i := 0; i < count; i++ {
		s.Require().NoError(sender.Send(domain.SendMessageCommand{Content: fmt.Sprintf("m%02d", i), Delivery: domain.DeliveryRoom, Target: string(room.ID)}))
	}
	for i := 0; i < count; i++ {
		s.Equal(fmt.Sprintf("m%02d", i), s.Receive(receiver).Content)
	}

	s.Step("history pages back through the same order")
	page, err := bob.Client.History(s.ctx(), domain.DeliveryRoom, string(room.ID), "", 10)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 10)
	s.Equal("m15", page.Messages[0].Content)
	s.Equal("m24", page.Messages[9].Content)
	s.Require().NotNil(page.NextCursor)

	older, err := bob.Client.History(s.ctx(), domain.DeliveryRoom, string(room.ID), *page.NextCursor, 10)
	s.Require().NoError(err)
	s.Require().Len(older.Messages, 10)
	s.Equal("m05", older.Messages[0].Content)
}

func (s *chatSuite) TestPresenceFollowsTheLastConnection() {
	alice, watcher := s.NewUser("alice"), s.NewUser("watcher")

	observer := s.Connect(watcher)
	defer observer.Close()

	phone := s.Connect(alice)
	s.AwaitStatus(observer, alice.ID, domain.StatusOnline)
	laptop := s.Connect(alice)

	s.Step("closing one of two connections keeps alice online")
	s.Require().NoError(phone.Close())
	time.Sleep(s.Config.Quiet)
	s.Equal(domain.StatusOnline, s.StatusOf(watcher, alice.ID))

	s.Step("closing the last one announces offline")
	s.Require().NoError(laptop.Close())
	s.AwaitStatus(observer, alice.ID, domain.StatusOffline)
	s.Equal(domain.StatusOffline, s.StatusOf(watcher, alice.ID))
}

func (s *chatSuite) TestPrivateMessageToOfflineIdentityIsOnlyStored() {
	alice, bob := s.NewUser("alice"), s.NewUser("bob")

	sender := s.Connect(alice)
	defer sender.Close()
	s.Require().NoError(sender.Send(domain.SendMessageCommand{Content: "see you later", Delivery: domain.DeliveryPrivate, Target: string(bob.ID)}))
	s.Equal("see you later", s.Receive(sender).Content)

	s.Step("bob connects later and gets no push")
	receiver := s.Connect(bob)
	defer receiver.Close()
	s.Silent(receiver)

	page, err := bob.Client.History(s.ctx(), domain.DeliveryPrivate, string(alice.ID), "", 0)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 1)
	s.Equal("see you later", page.Messages[0].Content)
	s.Equal(alice.Name, page.Messages[0].Sender.Username)
}

func (s *chatSuite) TestOnlyTheSenderDeletesAMessage() {
	alice, bob := s.NewUser("alice"), s.NewUser("bob")
	room := s.NewRoom(alice, bob)

	stream := s.Connect(alice)
	defer stream.Close()
	s.Join(stream, domain.RoomKey(room.ID))
	s.Require().NoError(stream.Send(domain.SendMessageCommand{Content: "mine", Delivery: domain.DeliveryRoom, Target: string(room.ID)}))
	msg := s.Receive(stream)

	err := bob.Client.DeleteMessage(s.ctx(), msg.ID)
	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusForbidden, apiErr.Status)

	page, err := bob.Client.History(s.ctx(), domain.DeliveryRoom, string(room.ID), "", 0)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 1)
	s.Equal("mine", page.Messages[0].Content)

	s.Require().NoError(alice.Client.DeleteMessage(s.ctx(), msg.ID))
	page, err = bob.Client.History(s.ctx(), domain.DeliveryRoom, string(room.ID), "", 0)
	s.Require().NoError(err)
	s.Empty(page.Messages)
}

func (s *chatSuite) TestHandshakeWithoutTokenIsClosed() {
	stream, err := s.Anonymous().Dial(s.ctx())
	s.Require().NoError(err)
	defer stream.Close()

	in, err := stream.Next(s.Config.Timeout)
	s.Require().NoError(err)
	s.Equal(event.ConnectionRejectedType, in.Type)
	rejected, err := client.Decode[event.ConnectionRejected](in)
	s.Require().NoError(err)
	s.Equal(ws.ReasonNoToken, rejected.Reason)

	_, err = stream.Next(s.Config.Timeout)
	s.True(websocket.IsCloseError(err, ws.CloseUnauthenticated), "got %v", err)
}

func (s *chatSuite) TestContentIsValidatedAndCensored() {
	alice, bob := s.NewUser("alice"), s.NewUser("bob")

	sender := s.Connect(alice)
	defer sender.Close()

	s.Step("blank content is refused with a NACK")
	s.Require().NoError(sender.Send(domain.SendMessageCommand{Content: "   ", Delivery: domain.DeliveryPrivate, Target: string(bob.ID), Ref: "blank"}))
	in, err := sender.Until(event.MessageRejectedType, s.Config.Timeout)
	s.Require().NoError(err)
	nack, err := client.Decode[event.MessageRejected](in)
	s.Require().NoError(err)
	s.Equal("blank", nack.Ref)
	s.Equal(errors.CodeValidation, nack.Code)

	s.Step("forbidden words are masked before storage")
	s.Require().NoError(sender.Send(domain.SendMessageCommand{Content: "what a bastard", Delivery: domain.DeliveryPrivate, Target: string(bob.ID)}))
	s.Equal("what a *******", s.Receive(sender).Content)

	page, err := bob.Client.History(s.ctx(), domain.DeliveryPrivate, string(alice.ID), "", 0)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 1)
	s.Equal("what a *******", page.Messages[0].Content)
}
