// Package client talks to a chat-relay server over its REST API and websocket.
package client

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/services"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// APIError is a non-2xx answer of the REST API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// WithToken returns a copy authenticated with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) Token() string { return c.token }

func (c *Client) Register(ctx context.Context, username, email, password string) (services.Session, error) {
	var session services.Session
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username, "email": email, "password": password,
	}, &session)
	return session, err
}

func (c *Client) Login(ctx context.Context, email, password string) (services.Session, error) {
	var session services.Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &session)
	return session, err
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, http.MethodGet, "/api/chat/users", nil, &users)
	return users, err
}

func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := c.do(ctx, http.MethodGet, "/api/chat/rooms", nil, &rooms)
	return rooms, err
}

func (c *Client) CreateRoom(ctx context.Context, req services.CreateRoomRequest) (domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, http.MethodPost, "/api/chat/rooms", req, &room)
	return room, err
}

func (c *Client) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/rooms/"+url.PathEscape(string(roomID)), nil, nil)
}

// History fetches one page; an empty cursor starts from the newest message.
func (c *Client) History(ctx context.Context, kind domain.DeliveryKind, target, cursor string, limit int) (services.HistoryPage, error) {
	query := url.Values{}
	query.Set("type", string(kind))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var page services.HistoryPage
	err := c.do(ctx, http.MethodGet, "/api/chat/history/"+url.PathEscape(target)+"?"+query.Encode(), nil, &page)
	return page, err
}

func (c *Client) DeleteMessage(ctx context.Context, messageID domain.MessageID) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/messages/"+url.PathEscape(string(messageID)), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Stream is a live websocket session.
type Stream struct {
	conn *websocket.Conn
}

// Dial opens the websocket with the client token passed as a query parameter.
func (c *Client) Dial(ctx context.Context) (*Stream, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	if c.token != "" {
		u.RawQuery = url.Values{"token": {c.token}}.Encode()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &Stream{conn: conn}, nil
}

func (s *Stream) send(t event.Type, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(event.Inbound{Type: t, Payload: raw})
}

func (s *Stream) Join(channel string) error {
	return s.send(event.JoinChannelType, domain.JoinChannelCommand{Channel: channel})
}

func (s *Stream) Leave(channel string) error {
	return s.send(event.LeaveChannelType, domain.LeaveChannelCommand{Channel: channel})
}

func (s *Stream) Send(cmd domain.SendMessageCommand) error {
	return s.send(event.SendMessageType, cmd)
}

func (s *Stream) Typing(channel string, isTyping bool) error {
	return s.send(event.TypingType, domain.TypingCommand{Channel: channel, IsTyping: isTyping})
}

// Next blocks until the next server event or the deadline.
func (s *Stream) Next(timeout time.Duration) (event.Inbound, error) {
	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	}
	var in event.Inbound
	err := s.conn.ReadJSON(&in)
	return in, err
}

// Until skips events until one of type t arrives.
func (s *Stream) Until(t event.Type, timeout time.Duration) (event.Inbound, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return event.Inbound{}, fmt.Errorf("no %q event within %s", t, timeout)
		}
		in, err := s.Next(remaining)
		if err != nil {
			return event.Inbound{}, err
		}
		if in.Type == t {
			return in, nil
		}
	}
}

func (s *Stream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

// Decode unmarshals the payload of a received event.
func Decode[T any](in event.Inbound) (T, error) {
	var payload T
	err := json.Unmarshal(in.Payload, &payload)
	return payload, err
}
