package actor

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/villadesk/internal/apperror"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":      RoleAdmin,
		" Employee ": RoleEmployee,
		"ADMIN":      RoleAdmin,
	}
	for raw, want := range cases {
		got, ok := ParseRole(raw)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParseRole("system"); ok {
		t.Fatal("system must not be assignable to users")
	}
	if _, ok := ParseRole(""); ok {
		t.Fatal("empty role must be rejected")
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(context.Background()); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden without actor, got %v", err)
	}

	employee := WithActor(context.Background(), Actor{UserID: 7, Role: RoleEmployee})
	if err := RequireAdmin(employee); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}

	admin := WithActor(context.Background(), Actor{UserID: 1, Role: RoleAdmin})
	if err := RequireAdmin(admin); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := RequireAdmin(WithActor(context.Background(), System())); err != nil {
		t.Fatalf("system rejected: %v", err)
	}
}

func TestFromContextIgnoresEmptyRole(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{UserID: 3})
	if _, ok := FromContext(ctx); ok {
		t.Fatal("actor without role must not resolve")
	}
}

func TestSubjectAndID(t *testing.T) {
	user := Actor{UserID: 42, Role: RoleEmployee}
	if user.Subject() != "user:42" || user.ID() != "42" {
		t.Fatalf("unexpected subject %q id %q", user.Subject(), user.ID())
	}
	sys := System()
	if sys.Subject() != "system" || sys.ID() != "system" {
		t.Fatalf("unexpected system subject %q id %q", sys.Subject(), sys.ID())
	}
}
