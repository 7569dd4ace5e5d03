package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/customer/domain"
	"github.com/smallbiznis/villadesk/internal/customer/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:customer_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateAndGetCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := actor.WithActor(context.Background(), actor.Actor{UserID: 7, Role: actor.RoleEmployee})

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                   " Ana Pérez ",
		Phone:                  "809-555-0101",
		IdentificationDocument: "001-1234567-8",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Ana Pérez" || created.CreatedBy != "7" {
		t.Fatalf("unexpected customer %+v", created)
	}

	got, err := svc.GetByID(ctx, created.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IdentificationDocument != "001-1234567-8" {
		t.Fatalf("expected identification document, got %q", got.IdentificationDocument)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []domain.CreateCustomerRequest{
		{Phone: "1"},
		{Name: "Ana"},
		{Name: "Ana", Phone: "1", Email: "not-an-email"},
	}
	for _, req := range cases {
		if _, err := svc.Create(ctx, req); !apperrorIsInvalid(err) {
			t.Fatalf("expected invalid input for %+v, got %v", req, err)
		}
	}
}

func TestListCustomersAlphabetically(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Carlos", "ana", "Bea"} {
		if _, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: name, Phone: "1"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := svc.List(ctx, domain.ListCustomerRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Name != "ana" || all[2].Name != "Carlos" {
		t.Fatalf("unexpected order %v", names(all))
	}

	filtered, err := svc.List(ctx, domain.ListCustomerRequest{Name: "AR"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Carlos" {
		t.Fatalf("unexpected filtered %v", names(filtered))
	}
}

func TestDeleteCustomerAndLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, domain.CreateCustomerRequest{Name: "A", Phone: "1"})
	b, _ := svc.Create(ctx, domain.CreateCustomerRequest{Name: "B", Phone: "2"})

	found, err := svc.Lookup(ctx, []snowflake.ID{a.ID, b.ID, 12345})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(found))
	}

	if err := svc.Delete(ctx, a.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, a.ID.String()); err == nil {
		t.Fatalf("expected not found on second delete")
	}
	if _, err := svc.GetByID(ctx, a.ID.String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func apperrorIsInvalid(err error) bool {
	return apperror.KindOf(err) == apperror.ErrInvalidInput
}

func names(customers []domain.Customer) []string {
	out := make([]string, 0, len(customers))
	for _, c := range customers {
		out = append(out, c.Name)
	}
	return out
}
