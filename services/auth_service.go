//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"context"
	"fmt"
	"strings"
)

type IAuthService interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, username, email, password string) (Session, error)
}

type TokenIssuer interface {
	GenerateToken(userID domain.UserID) (string, error)
}

// Session is returned to the client after a successful register or login.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type AuthService struct {
	userRepository storage.IUserRepository
	issuer         TokenIssuer
}

func NewAuthService(repo storage.IUserRepository, issuer TokenIssuer) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (Session, error) {
	valReq := auth.RegisterRequest{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}

	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(ctx, valReq.Username, valReq.Email, hashedPassword)
	if err != nil {
		return Session{}, err
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Email: strings.TrimSpace(email), Password: password}); err != nil {
		return Session{}, err
	}

	record, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, record.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(record.ID)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{Token: token, User: record.User}, nil
}
