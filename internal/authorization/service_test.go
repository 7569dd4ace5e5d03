package authorization

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	dsn := fmt.Sprintf("file:authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeAdminHasEverything(t *testing.T) {
	svc := newTestService(t)
	admin := actor.Actor{UserID: 10, Username: "ana", Role: actor.RoleAdmin}

	require.NoError(t, svc.Authorize(context.Background(), admin, ObjectReservation, ActionDelete))
	require.NoError(t, svc.Authorize(context.Background(), admin, ObjectUser, ActionCreate))
	require.NoError(t, svc.Authorize(context.Background(), actor.System(), ObjectReconcile, ActionRun))
}

func TestAuthorizeEmployeeIsLimited(t *testing.T) {
	svc := newTestService(t)
	emp := actor.Actor{UserID: 11, Username: "luis", Role: actor.RoleEmployee}

	require.NoError(t, svc.Authorize(context.Background(), emp, ObjectReservation, ActionCreate))
	require.NoError(t, svc.Authorize(context.Background(), emp, ObjectInstallment, ActionCreate))

	err := svc.Authorize(context.Background(), emp, ObjectReservation, ActionDelete)
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Authorize(context.Background(), emp, ObjectUser, ActionView)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	svc := newTestService(t)
	user := actor.Actor{UserID: 12, Username: "marta", Role: actor.RoleEmployee}

	require.Error(t, svc.Authorize(context.Background(), user, ObjectVilla, ActionUpdate))

	user.Role = actor.RoleAdmin
	require.NoError(t, svc.Authorize(context.Background(), user, ObjectVilla, ActionUpdate))

	user.Role = actor.RoleEmployee
	require.Error(t, svc.Authorize(context.Background(), user, ObjectVilla, ActionUpdate))
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	emp := actor.Actor{UserID: 13, Role: actor.RoleEmployee}

	require.True(t, errors.Is(svc.Authorize(context.Background(), emp, "", ActionView), ErrInvalidObject))
	require.True(t, errors.Is(svc.Authorize(context.Background(), emp, ObjectVilla, " "), ErrInvalidAction))
	require.ErrorIs(t, svc.Authorize(context.Background(), actor.Actor{}, ObjectVilla, ActionView), ErrInvalidActor)
}

func TestEmployeeReadsCategoriesAndLogoOnly(t *testing.T) {
	svc := newTestService(t)
	emp := actor.Actor{UserID: 12, Username: "rosa", Role: actor.RoleEmployee}
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, emp, ObjectCategory, ActionView))
	require.NoError(t, svc.Authorize(ctx, emp, ObjectLogo, ActionView))

	require.ErrorIs(t, svc.Authorize(ctx, emp, ObjectCategory, ActionCreate), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, emp, ObjectCategory, ActionDelete), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, emp, ObjectLogo, ActionUpdate), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, emp, ObjectInvoiceTemplate, ActionView), ErrForbidden)
}
