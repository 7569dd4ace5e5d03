package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/villadesk/internal/actor"
	authdomain "github.com/smallbiznis/villadesk/internal/auth/domain"
	"github.com/smallbiznis/villadesk/internal/auth/password"
	authrepo "github.com/smallbiznis/villadesk/internal/auth/repository"
	authservice "github.com/smallbiznis/villadesk/internal/auth/service"
	"github.com/smallbiznis/villadesk/internal/auth/session"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	sequencerepo "github.com/smallbiznis/villadesk/internal/invoicesequence/repository"
	sequenceservice "github.com/smallbiznis/villadesk/internal/invoicesequence/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSeeder(t *testing.T, bootstrap config.BootstrapConfig) (*Seeder, authdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&sequencedomain.Sequence{},
		&sequencedomain.Claim{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := config.Config{
		Session:   config.SessionConfig{TTL: time.Hour},
		Password:  config.PasswordConfig{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 32},
		Bootstrap: bootstrap,
	}

	users, sessions := authrepo.New(db)
	auth := authservice.New(authservice.Params{
		Log:         zap.NewNop(),
		Clock:       clk,
		GenID:       node,
		Repo:        users,
		SessionRepo: sessions,
		Sessions:    session.NewManager(cfg),
		Passwords:   password.NewHasher(cfg),
	})
	sequence := sequenceservice.New(sequenceservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clk,
		Repo:   sequencerepo.Provide(),
		Config: config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig()),
	})

	return New(Params{
		Config:   cfg,
		Log:      zap.NewNop(),
		Auth:     auth,
		Users:    users,
		Sequence: sequence,
	}), auth, db
}

func TestRunSeedsSequenceAndAdminOnce(t *testing.T) {
	seeder, auth, db := newSeeder(t, config.BootstrapConfig{
		EnsureAdmin:   true,
		AdminUsername: "admin",
		AdminEmail:    "admin@villadesk.local",
		AdminPassword: "admin12345",
		AdminFullName: "Administrador",
	})
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx))
	require.NoError(t, seeder.Run(ctx))

	var seq sequencedomain.Sequence
	require.NoError(t, db.First(&seq, "id = ?", sequencedomain.SingletonID).Error)
	assert.Equal(t, int64(1600), seq.CurrentNumber)

	users, err := auth.ListUsers(actor.WithActor(ctx, actor.System()))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, actor.RoleAdmin, users[0].Role)

	result, err := auth.Login(ctx, authdomain.LoginRequest{Username: "admin", Password: "admin12345"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
}

func TestRunSkipsAdminWhenDisabled(t *testing.T) {
	seeder, auth, _ := newSeeder(t, config.BootstrapConfig{EnsureAdmin: false})
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx))

	users, err := auth.ListUsers(actor.WithActor(ctx, actor.System()))
	require.NoError(t, err)
	assert.Empty(t, users)
}
