package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"account-service/internal/domain"
)

// SessionService emite y valida el token de sesion. El token es un JWT firmado
// cuyo jti apunta a la identidad guardada en el SessionStore.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
	now    func() time.Time
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrSessionNotConfigured = errors.New("session secret not configured")

func NewSessionService(secret string, ttl time.Duration, store SessionStore) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &SessionService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "account-service",
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue crea una sesion para la cuenta y devuelve el token opaco.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (string, domain.SessionIdentity, error) {
	if len(s.secret) == 0 {
		return "", domain.SessionIdentity{}, ErrSessionNotConfigured
	}
	identity := domain.NewSessionIdentity(user)
	sessionID := uuid.NewString()
	now := s.now()

	if err := s.store.Save(ctx, sessionID, identity, s.ttl); err != nil {
		return "", domain.SessionIdentity{}, persistenceError("save session", err)
	}

	claims := sessionClaims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		_ = s.store.Delete(ctx, sessionID)
		return "", domain.SessionIdentity{}, err
	}
	return token, identity, nil
}

// Resolve devuelve la identidad de la sesion. Token ausente, invalido, vencido
// o revocado producen el mismo ErrUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.SessionIdentity, error) {
	if len(s.secret) == 0 {
		return domain.SessionIdentity{}, ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.SessionIdentity{}, ErrUnauthorized
	}

	var claims sessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(token, &claims, s.keyFunc); err != nil {
		return domain.SessionIdentity{}, ErrUnauthorized
	}
	if claims.ID == "" {
		return domain.SessionIdentity{}, ErrUnauthorized
	}

	identity, ok, err := s.store.Load(ctx, claims.ID)
	if err != nil {
		return domain.SessionIdentity{}, persistenceError("load session", err)
	}
	if !ok || identity.UserID != claims.Subject {
		return domain.SessionIdentity{}, ErrUnauthorized
	}
	return identity, nil
}

// Revoke invalida la sesion del lado servidor. No falla si el token no
// corresponde a ninguna sesion.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" || len(s.secret) == 0 {
		return nil
	}

	var claims sessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(token, &claims, s.keyFunc); err != nil {
		return nil
	}
	if claims.ID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return persistenceError("delete session", err)
	}
	return nil
}

func (s *SessionService) keyFunc(_ *jwt.Token) (any, error) {
	return s.secret, nil
}
