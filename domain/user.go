// Package domain contains core concepts of the chat system.
// This file defines identities and their presence status.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"strings"
	"time"
)

type UserID string

func (u UserID) String() string { return string(u) }

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// User is the identity a connection authenticates as.
// Status is only ever written by the presence tracker.
type User struct {
	ID        UserID    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultAvatar derives the initials avatar used when none is provided.
func DefaultAvatar(username string) string {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(string([]rune(trimmed)[0]))
}

// Sender is the display projection joined onto every delivered message.
type Sender struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (u User) AsSender() Sender {
	return Sender{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
