package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"account-service/internal/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case **string:
			if v, ok := r.values[i].(string); ok {
				*p = &v
			} else {
				*p = nil
			}
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	execArgs []any
	row      fakeRow
	lastSQL  string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL = sql
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.lastSQL = sql
	return f.row
}

func TestTranslateError(t *testing.T) {
	if err := translateError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, pgx.ErrNoRows},
		{"duplicate email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, ErrDuplicateEmail},
		{"duplicate google id", &pgconn.PgError{Code: "23505", ConstraintName: "users_google_id_key"}, ErrDuplicateGoogleID},
		{"invalid uuid", &pgconn.PgError{Code: "22P02"}, pgx.ErrNoRows},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translateError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}
	if got := translateError(other); got != error(other) {
		t.Fatalf("expected unknown constraint passed through, got %v", got)
	}
}

func TestCreate_MapsNullableColumns(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := &PgUserRepository{db: db}

	now := time.Now().UTC()
	err := repo.Create(context.Background(), domain.User{
		ID:           "u1",
		GoogleID:     "g-1",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(db.execArgs) != 15 {
		t.Fatalf("expected 15 args, got %d", len(db.execArgs))
	}
	if db.execArgs[1] != nil {
		t.Fatalf("empty email must be stored as NULL, got %v", db.execArgs[1])
	}
	if googleID, ok := db.execArgs[10].(*string); !ok || googleID == nil || *googleID != "g-1" {
		t.Fatalf("expected google id g-1, got %v", db.execArgs[10])
	}
	if db.execArgs[11] != "User" {
		t.Fatalf("expected role User, got %v", db.execArgs[11])
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}}
	repo := &PgUserRepository{db: db}

	err := repo.Create(context.Background(), domain.User{ID: "u1", Email: "a@x.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGetByEmail_ScansRow(t *testing.T) {
	now := time.Now().UTC()
	db := &fakeDB{row: fakeRow{values: []any{
		"u1", "a@x.com", "a", "A", "B", "", "", "",
		"hash", true, nil, "User", "active", now, now,
	}}}
	repo := &PgUserRepository{db: db}

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.ID != "u1" || u.Email != "a@x.com" || u.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", u)
	}
	if !u.LocalPassword || u.GoogleID != "" {
		t.Fatalf("expected local account without google id, got %+v", u)
	}
	if u.Role != domain.RoleUser || u.Status != domain.StatusActive {
		t.Fatalf("unexpected role/status %s/%s", u.Role, u.Status)
	}
	if !strings.Contains(db.lastSQL, "WHERE email = $1") {
		t.Fatalf("unexpected query %s", db.lastSQL)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	repo := &PgUserRepository{db: db}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestLinkGoogleID_NoRowsWhenAlreadyLinked(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := &PgUserRepository{db: db}

	err := repo.LinkGoogleID(context.Background(), "u1", "g-1", time.Now().UTC())
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
	if !strings.Contains(db.lastSQL, "google_id IS NULL") {
		t.Fatalf("expected guard on unlinked accounts, got %s", db.lastSQL)
	}
}

func TestDelete(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
	repo := &PgUserRepository{db: db}
	if err := repo.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	db.execTag = pgconn.NewCommandTag("DELETE 0")
	if err := repo.Delete(context.Background(), "u1"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}
