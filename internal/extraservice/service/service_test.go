package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/extraservice/domain"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) domain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:extraservice_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ExtraService{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Store: repository.ProvideStore[domain.ExtraService](db),
	})
}

func TestExtraServiceLifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	dj, err := svc.Create(ctx, domain.CreateRequest{Name: "DJ", DefaultPrice: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Decoración", DefaultPrice: decimal.NewFromInt(2500)})
	require.NoError(t, err)

	inactive := false
	price := decimal.NewFromInt(6000)
	updated, err := svc.Update(ctx, dj.ID.String(), domain.UpdateRequest{DefaultPrice: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.True(t, updated.DefaultPrice.Equal(price))
	assert.False(t, updated.IsActive)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Decoración", active[0].Name)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, dj.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, dj.ID.String()), domain.ErrNotFound)
}

func TestExtraServiceValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Chef", DefaultPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Update(ctx, "abc", domain.UpdateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
