package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

// ReconcileGoogleUser mapea un perfil de Google a una cuenta local.
// Es idempotente por ExternalID: una cuenta existente se devuelve sin cambios.
func (s *UserService) ReconcileGoogleUser(ctx context.Context, profile domain.ExternalProfile) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	googleID := strings.TrimSpace(profile.ExternalID)
	if googleID == "" {
		return domain.User{}, fmt.Errorf("%w: missing external id", ErrValidation)
	}

	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, persistenceError("lookup google id", err)
	}

	emailAddr := normalizeEmail(profile.PrimaryEmail())
	if emailAddr != "" {
		existing, err := s.users.GetByEmail(ctx, emailAddr)
		if err == nil {
			return s.linkGoogleID(ctx, existing, googleID, profile.EmailVerified)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, persistenceError("lookup email", err)
		}
	}

	passwordHash, err := s.hasher.Hash(s.syntheticSecret(googleID))
	if err != nil {
		return domain.User{}, fmt.Errorf("hash synthetic password: %w", err)
	}

	displayName := strings.TrimSpace(profile.DisplayName)
	if displayName == "" {
		displayName = profile.FullName()
	}

	now := s.now()
	user = domain.User{
		ID:            uuid.NewString(),
		Email:         emailAddr,
		Username:      deriveUsername(emailAddr, now),
		FirstName:     strings.TrimSpace(profile.Name.GivenName),
		LastName:      strings.TrimSpace(profile.Name.FamilyName),
		DisplayName:   displayName,
		PhotoURL:      profile.PrimaryPhoto(),
		PasswordHash:  passwordHash,
		LocalPassword: false,
		GoogleID:      googleID,
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateGoogleID):
			// Otro login concurrente creo la cuenta primero.
			return s.lookupAfterConflict(ctx, googleID)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return domain.User{}, ErrConflict
		default:
			return domain.User{}, persistenceError("create google user", err)
		}
	}

	s.logger.Info("google user created", zap.String("user_id", user.ID))
	return user, nil
}

// linkGoogleID vincula la identidad de Google a una cuenta local con el mismo
// email. Solo se hace si el proveedor verifico el email.
func (s *UserService) linkGoogleID(ctx context.Context, existing domain.User, googleID string, emailVerified bool) (domain.User, error) {
	if existing.HasGoogleIdentity() || !emailVerified {
		return domain.User{}, ErrConflict
	}

	now := s.now()
	if err := s.users.LinkGoogleID(ctx, existing.ID, googleID, now); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), errors.Is(err, repository.ErrDuplicateGoogleID):
			return s.lookupAfterConflict(ctx, googleID)
		default:
			return domain.User{}, persistenceError("link google id", err)
		}
	}

	existing.GoogleID = googleID
	existing.UpdatedAt = now
	s.logger.Info("google identity linked", zap.String("user_id", existing.ID))
	return existing, nil
}

func (s *UserService) lookupAfterConflict(ctx context.Context, googleID string) (domain.User, error) {
	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, persistenceError("lookup google id", err)
	}
	return user, nil
}

// syntheticSecret deriva el valor que se hashea como password de cuentas
// creadas via Google. Nunca se entrega al cliente.
func (s *UserService) syntheticSecret(googleID string) string {
	mac := hmac.New(sha256.New, s.oauthSecret)
	mac.Write([]byte(googleID))
	return hex.EncodeToString(mac.Sum(nil))
}
