package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	categoryrepo "github.com/smallbiznis/villadesk/internal/category/repository"
	categoryservice "github.com/smallbiznis/villadesk/internal/category/service"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/villa/domain"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:villa_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Villa{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)),
		Store: repository.ProvideStore[domain.Villa](db),
	})
}

func TestCreateVillaNormalizesAndRejectsDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	villa, err := svc.Create(ctx, domain.VillaInput{
		Code:                " abc123 ",
		Name:                "Villa Sabrina",
		OwnerPriceShortStay: decimal.NewFromInt(8000),
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", villa.Code)
	assert.Equal(t, "9:00 AM", villa.CheckInTime)
	assert.True(t, villa.IsActive)

	_, err = svc.Create(ctx, domain.VillaInput{Code: "ABC123", Name: "Other"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateVillaValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.VillaInput{Name: "No code"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Create(ctx, domain.VillaInput{Code: "X", Name: "X", DefaultPriceEvent: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestListSearchAndUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.VillaInput{Code: "B2", Name: "Casa Playa"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.VillaInput{Code: "A1", Name: "Villa Monte"})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A1", all[0].Code)

	found, err := svc.List(ctx, domain.ListRequest{Search: "playa"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	inactive := false
	_, err = svc.Update(ctx, a.ID.String(), domain.VillaInput{Code: "A1", Name: "Casa Playa"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	updated, err := svc.Update(ctx, a.ID.String(), domain.VillaInput{Code: "B2", Name: "Casa Playa", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := svc.List(ctx, domain.ListRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestDeleteVilla(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	villa, err := svc.Create(ctx, domain.VillaInput{Code: "DEL", Name: "Borrar"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, villa.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, villa.ID.String()), apperror.ErrNotFound)

	_, err = svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestPricesByRentalType(t *testing.T) {
	villa := domain.Villa{
		DefaultPriceOvernight: decimal.NewFromInt(15000),
		OwnerPriceOvernight:   decimal.NewFromInt(9000),
		DefaultPriceShortStay: decimal.NewFromInt(10000),
	}
	price, owner := villa.Prices(domain.RentalOvernight)
	assert.True(t, price.Equal(decimal.NewFromInt(15000)))
	assert.True(t, owner.Equal(decimal.NewFromInt(9000)))

	price, _ = villa.Prices(domain.RentalShortStay)
	assert.True(t, price.Equal(decimal.NewFromInt(10000)))
}

func TestVillaCategoryAssignmentAndFilter(t *testing.T) {
	dsn := fmt.Sprintf("file:villa_category_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Villa{}, &categorydomain.VillaCategory{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))

	categories := categoryservice.New(categoryservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: categoryrepo.Provide(),
	})
	svc := New(Params{
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Store:      repository.ProvideStore[domain.Villa](db),
		Categories: categories,
	})
	ctx := context.Background()

	beach, err := categories.Create(ctx, categorydomain.KindVilla, categorydomain.CreateRequest{Name: "Playa"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.VillaInput{Code: "A1", Name: "Uno", CategoryID: "999"})
	assert.ErrorIs(t, err, categorydomain.ErrUnknown)
	_, err = svc.Create(ctx, domain.VillaInput{Code: "A1", Name: "Uno", CategoryID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	onBeach, err := svc.Create(ctx, domain.VillaInput{Code: "A1", Name: "Uno", CategoryID: beach.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, onBeach.CategoryID)
	_, err = svc.Create(ctx, domain.VillaInput{Code: "B2", Name: "Dos"})
	require.NoError(t, err)

	filtered, err := svc.List(ctx, domain.ListRequest{CategoryID: beach.ID.String()})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "A1", filtered[0].Code)

	require.NoError(t, categories.Delete(ctx, categorydomain.KindVilla, beach.ID.String()))
	detached, err := svc.Get(ctx, onBeach.ID.String())
	require.NoError(t, err)
	assert.Nil(t, detached.CategoryID)

	updated, err := svc.Update(ctx, onBeach.ID.String(), domain.VillaInput{Code: "A1", Name: "Uno"})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}
