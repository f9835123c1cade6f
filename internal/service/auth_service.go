package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"account-service/internal/domain"
)

// AuthService une la verificacion de credenciales, la reconciliacion con
// Google y la emision de sesiones. Se construye una vez en main y se inyecta
// en los handlers.
type AuthService struct {
	logger   *zap.Logger
	users    *UserService
	sessions *SessionService
}

// LoginResult es el resultado de un login exitoso por cualquiera de las vias.
type LoginResult struct {
	Token    string
	Identity domain.SessionIdentity
	User     domain.User
}

func NewAuthService(logger *zap.Logger, users *UserService, sessions *SessionService) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		logger:   logger,
		users:    users,
		sessions: sessions,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	return s.users.Register(ctx, input)
}

// Login verifica email y password y abre una sesion.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	return s.issue(ctx, user, "password")
}

// GoogleLogin reconcilia el perfil externo con una cuenta local y abre una
// sesion. Nunca deja cuentas parciales si falla.
func (s *AuthService) GoogleLogin(ctx context.Context, profile domain.ExternalProfile) (LoginResult, error) {
	user, err := s.users.ReconcileGoogleUser(ctx, profile)
	if err != nil {
		return LoginResult{}, err
	}
	if user.Status != domain.StatusActive {
		return LoginResult{}, ErrAccountInactive
	}
	return s.issue(ctx, user, "google")
}

// Identify resuelve el token de la cookie a la identidad de sesion.
func (s *AuthService) Identify(ctx context.Context, token string) (domain.SessionIdentity, error) {
	return s.sessions.Resolve(ctx, token)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

func (s *AuthService) issue(ctx context.Context, user domain.User, method string) (LoginResult, error) {
	token, identity, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.Info("session issued", zap.String("user_id", user.ID), zap.String("method", method))
	return LoginResult{Token: token, Identity: identity, User: user}, nil
}
