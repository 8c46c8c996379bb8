package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEnsureAnonymousUserIsIdempotent(t *testing.T) {
	setup := newAuthTestSetup(t)
	ctx := context.Background()

	first, err := setup.service.EnsureAnonymousUser(ctx, "device-123")
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if first.Email != "device-123@anonymous.retoro.app" {
		t.Fatalf("unexpected shadow email %q", first.Email)
	}

	second, err := setup.service.EnsureAnonymousUser(ctx, "device-123")
	if err != nil {
		t.Fatalf("repeat bootstrap failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("repeat bootstrap created a second shadow user")
	}
}

func TestLoginMergesAnonymousData(t *testing.T) {
	setup := newAuthTestSetup(t)
	ctx := context.Background()
	anonID := "device-merge"

	shadow, err := setup.service.EnsureAnonymousUser(ctx, anonID)
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	itemA, itemB := uuid.New(), uuid.New()
	setup.items.owners[itemA] = shadow.ID
	setup.items.owners[itemB] = shadow.ID

	registered, err := setup.service.Register(ctx, RegisterRequest{Email: "merge@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp, err := setup.service.Login(ctx, LoginRequest{
		Email:           "merge@example.com",
		Password:        "password123",
		AnonymousUserID: &anonID,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.User.ID != registered.User.ID {
		t.Fatal("merge resolved the wrong user")
	}

	for id, owner := range setup.items.owners {
		if owner != registered.User.ID {
			t.Fatalf("item %s still owned by %s", id, owner)
		}
	}
	if _, ok := setup.users.byID[shadow.ID]; ok {
		t.Fatal("expected the emptied shadow user to be deleted")
	}
	if resp.Session.Token == "" {
		t.Fatal("expected a fresh session after merge")
	}
}

func TestRegisterWithAnonymousIDMovesItems(t *testing.T) {
	setup := newAuthTestSetup(t)
	ctx := context.Background()
	anonID := "device-reg"

	shadow, err := setup.service.EnsureAnonymousUser(ctx, anonID)
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	item := uuid.New()
	setup.items.owners[item] = shadow.ID

	resp, err := setup.service.Register(ctx, RegisterRequest{
		Email:           "fresh@example.com",
		Password:        "password123",
		AnonymousUserID: &anonID,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if setup.items.owners[item] != resp.User.ID {
		t.Fatal("expected the anonymous item to follow the new account")
	}
}

func TestMergeWithoutShadowUserStillIssuesSession(t *testing.T) {
	setup := newAuthTestSetup(t)
	ctx := context.Background()
	anonID := "device-empty"

	resp, err := setup.service.Register(ctx, RegisterRequest{
		Email:           "plain@example.com",
		Password:        "password123",
		AnonymousUserID: &anonID,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.Session.Token == "" {
		t.Fatal("expected a session even with nothing to merge")
	}
}
