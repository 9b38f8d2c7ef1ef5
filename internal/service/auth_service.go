package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelhaus/api/internal/config"
	"modelhaus/api/internal/ids"
	"modelhaus/api/internal/models"
	"modelhaus/api/internal/repository"
	"modelhaus/api/internal/security"
)

var ErrInvalidCredentials = errors.New("帳號或密碼錯誤")

type AuthService struct {
	profiles *repository.ProfileRepository
	sessions *repository.SessionRepository
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	profiles *repository.ProfileRepository,
	sessions *repository.SessionRepository,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		profiles: profiles,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type LoginInput struct {
	Account   string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token    string
	Username string
	ExpireAt time.Time
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	account := strings.TrimSpace(input.Account)
	if account == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	profile, err := s.profiles.FindByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, profile.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	session := models.Session{
		ID:        ids.New(),
		Username:  profile.Account,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		ExpiresAt: time.Now().Add(s.cfg.Security.SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, err
	}

	token, err := security.GenerateSessionToken(
		s.cfg.Security.SessionSecret,
		profile.Account,
		session.ID,
		s.cfg.Security.SessionTTL,
	)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info().Str("username", profile.Account).Msg("login")
	return LoginResult{
		Token:    token,
		Username: profile.Account,
		ExpireAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteByID(ctx, sessionID)
}
