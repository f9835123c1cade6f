package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

func googleProfile(id, email string) domain.ExternalProfile {
	p := domain.ExternalProfile{
		ExternalID:  id,
		DisplayName: "Bea Smith",
		Name:        domain.ProfileName{GivenName: "Bea", FamilyName: "Smith"},
		Photos:      []domain.ProfileValue{{Value: "https://img/x.png"}},
	}
	if email != "" {
		p.Emails = []domain.ProfileValue{{Value: email}}
	}
	return p
}

func TestReconcileGoogleUser_CreatesAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "B@x.com"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "b@x.com" || user.Username != "b" {
		t.Fatalf("unexpected email/username %s/%s", user.Email, user.Username)
	}
	if user.FirstName != "Bea" || user.LastName != "Smith" || user.DisplayName != "Bea Smith" {
		t.Fatalf("unexpected names %+v", user)
	}
	if user.PhotoURL != "https://img/x.png" {
		t.Fatalf("expected photo, got %q", user.PhotoURL)
	}
	if user.GoogleID != "g-1" || user.LocalPassword {
		t.Fatalf("expected google account without local password")
	}
	if user.PasswordHash == "" {
		t.Fatalf("expected synthetic password hash")
	}
	if user.Role != domain.RoleUser || user.Status != domain.StatusActive {
		t.Fatalf("expected default role/status")
	}
}

func TestReconcileGoogleUser_Idempotent(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	first, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "b@x.com"))
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	changed := googleProfile("g-1", "b@x.com")
	changed.DisplayName = "Someone Else"
	second, err := svc.ReconcileGoogleUser(context.Background(), changed)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same account, got %s and %s", first.ID, second.ID)
	}
	if second.DisplayName != "Bea Smith" {
		t.Fatalf("existing profile must not be overwritten, got %q", second.DisplayName)
	}
	if repo.creates != 1 {
		t.Fatalf("expected one account, got %d", repo.creates)
	}
}

func TestReconcileGoogleUser_NoEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	user, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-2", ""))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "" {
		t.Fatalf("expected empty email, got %q", user.Email)
	}
	if user.Username != "user1700000000000" {
		t.Fatalf("unexpected fallback username %q", user.Username)
	}
}

func TestReconcileGoogleUser_MissingExternalID(t *testing.T) {
	svc := newTestUserService(newMockUserRepo())
	if _, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("  ", "b@x.com")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestReconcileGoogleUser_EmailOwnedByLocalAccount(t *testing.T) {
	t.Run("unverified email conflicts", func(t *testing.T) {
		repo := newMockUserRepo()
		svc := newTestUserService(repo)
		registerTestUser(t, svc, "b@x.com", "secret123")

		_, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "b@x.com"))
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if repo.creates != 1 {
			t.Fatalf("no partial account may be created, got %d", repo.creates)
		}
	})

	t.Run("verified email links", func(t *testing.T) {
		repo := newMockUserRepo()
		svc := newTestUserService(repo)
		local := registerTestUser(t, svc, "b@x.com", "secret123")

		profile := googleProfile("g-1", "b@x.com")
		profile.EmailVerified = true
		linked, err := svc.ReconcileGoogleUser(context.Background(), profile)
		if err != nil {
			t.Fatalf("expected link, got %v", err)
		}
		if linked.ID != local.ID || linked.GoogleID != "g-1" {
			t.Fatalf("expected local account linked, got %+v", linked)
		}

		// La cuenta vinculada conserva su password local.
		if _, err := svc.Authenticate(context.Background(), "b@x.com", "secret123"); err != nil {
			t.Fatalf("expected password login to keep working, got %v", err)
		}
	})

	t.Run("email owned by another google account", func(t *testing.T) {
		repo := newMockUserRepo()
		svc := newTestUserService(repo)
		if _, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "b@x.com")); err != nil {
			t.Fatalf("seed: %v", err)
		}

		profile := googleProfile("g-2", "b@x.com")
		profile.EmailVerified = true
		if _, err := svc.ReconcileGoogleUser(context.Background(), profile); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestReconcileGoogleUser_ConcurrentCreateResolvesToWinner(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	winner := domain.User{
		ID:       "winner",
		Email:    "b@x.com",
		GoogleID: "g-1",
		Role:     domain.RoleUser,
		Status:   domain.StatusActive,
	}
	repo.beforeCreate = func(domain.User) error {
		repo.put(winner)
		repo.beforeCreate = nil
		return repository.ErrDuplicateGoogleID
	}

	user, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "b@x.com"))
	if err != nil {
		t.Fatalf("expected lookup after conflict, got %v", err)
	}
	if user.ID != "winner" {
		t.Fatalf("expected winner account, got %s", user.ID)
	}
}

func TestReconcileGoogleUser_PersistenceError(t *testing.T) {
	repo := newMockUserRepo()
	repo.lookupErr = errors.New("db down")
	svc := newTestUserService(repo)

	if _, err := svc.ReconcileGoogleUser(context.Background(), googleProfile("g-1", "b@x.com")); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestSyntheticSecret(t *testing.T) {
	svc := newTestUserService(newMockUserRepo())
	a := svc.syntheticSecret("g-1")
	if a != svc.syntheticSecret("g-1") {
		t.Fatalf("expected deterministic secret")
	}
	if a == svc.syntheticSecret("g-2") {
		t.Fatalf("expected distinct secrets per google id")
	}
	if strings.Contains(a, "g-1") || len(a) != 64 {
		t.Fatalf("unexpected secret format %q", a)
	}
}
