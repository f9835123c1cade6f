package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

// UserService coordina reglas de negocio para cuentas: registro, verificacion
// de credenciales, reconciliacion con Google y CRUD.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	hasher      PasswordHasher
	limiter     LoginRateLimiter
	oauthSecret []byte
	now         func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, hasher PasswordHasher, limiter LoginRateLimiter, oauthSecret string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewLoginRateLimiter(15*time.Minute, 10)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		hasher:      hasher,
		limiter:     limiter,
		oauthSecret: []byte(oauthSecret),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongProvider      = errors.New("use Google login for this account")
	ErrAccountInactive    = errors.New("account inactive")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrPersistence        = errors.New("persistence error")
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email := normalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if email == "" || input.Password == "" || firstName == "" || lastName == "" {
		return domain.User{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if !isValidEmail(email) {
		return domain.User{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(input.Password) > maxPasswordBytes {
		return domain.User{}, fmt.Errorf("%w: password too long", ErrValidation)
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return domain.User{}, ErrConflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, persistenceError("lookup email", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	username := sanitizeUsername(input.Username)
	if username == "" {
		username = deriveUsername(email, s.now())
	}

	now := s.now()
	user := domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		Username:      username,
		FirstName:     firstName,
		LastName:      lastName,
		DisplayName:   strings.TrimSpace(firstName + " " + lastName),
		PasswordHash:  passwordHash,
		LocalPassword: true,
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, persistenceError("create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate verifica email y password de una cuenta local.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if !s.limiter.Allowed(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.limiter.Fail(emailAddr)
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, persistenceError("lookup email", err)
	}
	if user.HasGoogleIdentity() && !user.LocalPassword {
		s.limiter.Fail(emailAddr)
		return domain.User{}, ErrWrongProvider
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		s.limiter.Fail(emailAddr)
		return domain.User{}, ErrInvalidCredentials
	}
	s.limiter.Reset(emailAddr)
	if user.Status != domain.StatusActive {
		return domain.User{}, ErrAccountInactive
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, persistenceError("get user", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, order repository.SortOrder) ([]domain.User, error) {
	users, err := s.users.List(ctx, order)
	if err != nil {
		return nil, persistenceError("list users", err)
	}
	return users, nil
}

// UpdateUserInput contiene solo los campos presentes en la peticion.
type UpdateUserInput struct {
	Email       *string
	Username    *string
	FirstName   *string
	LastName    *string
	DisplayName *string
	Phone       *string
	PhotoURL    *string
	Role        *domain.Role
	Status      *domain.Status
}

// UpdateUser aplica cambios de perfil. Un usuario solo puede editarse a si
// mismo; rol y estado solo los cambia un Admin.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.SessionIdentity, id string, input UpdateUserInput) (domain.User, error) {
	id = strings.TrimSpace(id)
	if actor.UserID != id && !actor.IsAdmin() {
		return domain.User{}, ErrForbidden
	}
	if (input.Role != nil || input.Status != nil) && !actor.IsAdmin() {
		return domain.User{}, ErrForbidden
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" || !isValidEmail(email) {
			return domain.User{}, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		user.Email = email
	}
	if input.Username != nil {
		username := sanitizeUsername(*input.Username)
		if username == "" {
			return domain.User{}, fmt.Errorf("%w: invalid username", ErrValidation)
		}
		user.Username = username
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.PhotoURL != nil {
		user.PhotoURL = strings.TrimSpace(*input.PhotoURL)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return domain.User{}, fmt.Errorf("%w: invalid role", ErrValidation)
		}
		user.Role = *input.Role
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return domain.User{}, fmt.Errorf("%w: invalid status", ErrValidation)
		}
		user.Status = *input.Status
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return domain.User{}, ErrConflict
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, ErrUserNotFound
		default:
			return domain.User{}, persistenceError("update user", err)
		}
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor domain.SessionIdentity, id string) error {
	id = strings.TrimSpace(id)
	if actor.UserID != id && !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return persistenceError("delete user", err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// sanitizeUsername deja solo [a-z0-9] en minusculas.
func sanitizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// deriveUsername usa la parte local del email; sin email cae en user<millis>.
func deriveUsername(email string, now time.Time) string {
	local, _, _ := strings.Cut(email, "@")
	if username := sanitizeUsername(local); username != "" {
		return username
	}
	return fmt.Sprintf("user%d", now.UnixMilli())
}
