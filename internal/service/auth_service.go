package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials скрывает, что именно не совпало: логин или пароль.
var ErrInvalidCredentials = errors.New("invalid username or password")

type UserStorage interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type AuthService struct {
	repo       UserStorage
	privateKey *rsa.PrivateKey
	tokenTTL   time.Duration
	logger     *zap.Logger
}

func NewAuthService(repo UserStorage, privateKey *rsa.PrivateKey, cfg infra.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		privateKey: privateKey,
		tokenTTL:   cfg.TokenTTL,
		logger:     logger.Named("auth"),
	}
}

// Login проверяет учетку и выдает RS256 токен со скоупами пользователя.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Выравниваем время ответа: считаем bcrypt даже для несуществующего логина
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password)) //nolint:errcheck
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := domain.CustomClaims{
		UserID: user.ID,
		Scopes: user.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}
