package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"account-service/internal/domain"
)

var (
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateGoogleID = errors.New("duplicate google id")
)

const (
	pgUniqueViolation      = "23505"
	pgInvalidTextRepresent = "22P02"

	emailConstraint    = "users_email_key"
	googleIDConstraint = "users_google_id_key"
)

// SortOrder define el orden de List por fecha de creacion.
type SortOrder int

const (
	SortNewestFirst SortOrder = iota
	SortOldestFirst
)

// UserRepository define el contrato de persistencia para usuarios.
// Las filas inexistentes se reportan como pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	LinkGoogleID(ctx context.Context, id, googleID string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, order SortOrder) ([]domain.User, error)
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	db dbtx
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: pool}
}

const userColumns = `id, email, username, first_name, last_name, display_name, phone, photo_url,
		password_hash, local_password, google_id, role, status, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		nullable(user.Email),
		user.Username,
		user.FirstName,
		user.LastName,
		user.DisplayName,
		user.Phone,
		user.PhotoURL,
		nullable(user.PasswordHash),
		user.LocalPassword,
		nullable(user.GoogleID),
		string(user.Role),
		string(user.Status),
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateError(err)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PgUserRepository) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return r.getOne(ctx, query, googleID)
}

// Update reescribe los campos mutables. google_id y password no se tocan aqui.
func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5, display_name = $6,
			phone = $7, photo_url = $8, role = $9, status = $10, updated_at = $11
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		user.ID,
		nullable(user.Email),
		user.Username,
		user.FirstName,
		user.LastName,
		user.DisplayName,
		user.Phone,
		user.PhotoURL,
		string(user.Role),
		string(user.Status),
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// LinkGoogleID asigna google_id solo si la cuenta aun no tiene uno.
func (r *PgUserRepository) LinkGoogleID(ctx context.Context, id, googleID string, updatedAt time.Time) error {
	const query = `
		UPDATE users SET google_id = $2, updated_at = $3
		WHERE id = $1 AND google_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, googleID, updatedAt)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) List(ctx context.Context, order SortOrder) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	if order == SortOldestFirst {
		query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u                             domain.User
		email, passwordHash, googleID *string
		role, status                  string
	)
	err := row.Scan(
		&u.ID,
		&email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.DisplayName,
		&u.Phone,
		&u.PhotoURL,
		&passwordHash,
		&u.LocalPassword,
		&googleID,
		&role,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Email = deref(email)
	u.PasswordHash = deref(passwordHash)
	u.GoogleID = deref(googleID)
	u.Role = domain.Role(role)
	u.Status = domain.Status(status)
	return u, nil
}

// translateError normaliza errores de Postgres a los del repositorio.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return pgx.ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case emailConstraint:
				return ErrDuplicateEmail
			case googleIDConstraint:
				return ErrDuplicateGoogleID
			}
		case pgInvalidTextRepresent:
			// id con formato invalido: equivale a no encontrado.
			return pgx.ErrNoRows
		}
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
