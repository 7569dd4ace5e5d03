package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectReservation  = "reservation"
	ObjectInstallment  = "installment"
	ObjectExpense      = "expense"
	ObjectCustomer     = "customer"
	ObjectVilla        = "villa"
	ObjectExtraService = "extra_service"
	ObjectOwner        = "owner"
	ObjectDashboard    = "dashboard"
	ObjectReceipt      = "receipt"
	ObjectInvoiceSeq   = "invoice_sequence"
	ObjectUser         = "user"
	ObjectAuditLog     = "audit_log"
	ObjectReconcile    = "reconcile"
	ObjectCategory     = "category"
	ObjectLogo         = "logo"

	ObjectInvoiceTemplate = "invoice_template"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRun    = "run"
)

const (
	roleAdmin    = "role:admin"
	roleEmployee = "role:employee"
	roleSystem   = "role:system"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, act actor.Actor, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := resolveActor(act)
	if err != nil {
		s.auditDenied(ctx, act, object, action)
		return err
	}
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, act, object, action)
		return ErrForbidden
	}
	return nil
}

func resolveActor(act actor.Actor) (string, string, error) {
	switch act.Role {
	case actor.RoleSystem:
		return act.Subject(), roleSystem, nil
	case actor.RoleAdmin, actor.RoleEmployee:
		if act.UserID == 0 {
			return "", "", ErrInvalidActor
		}
		return act.Subject(), fmt.Sprintf("role:%s", act.Role), nil
	default:
		return "", "", ErrInvalidActor
	}
}

// ensureGrouping keeps exactly one role link per subject so a role change
// takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, act actor.Actor, object string, action string) {
	s.log.Info("authorization denied",
		zap.String("subject", act.Subject()),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	targetID := object
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"subject": act.Subject(),
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleAdmin, "*", "*"},
		{roleSystem, "*", "*"},

		// Front desk staff take reservations and payments but cannot delete
		// or administer.
		{roleEmployee, ObjectReservation, ActionView},
		{roleEmployee, ObjectReservation, ActionCreate},
		{roleEmployee, ObjectReservation, ActionUpdate},
		{roleEmployee, ObjectInstallment, ActionView},
		{roleEmployee, ObjectInstallment, ActionCreate},
		{roleEmployee, ObjectExpense, ActionView},
		{roleEmployee, ObjectExpense, ActionCreate},
		{roleEmployee, ObjectExpense, ActionUpdate},
		{roleEmployee, ObjectCustomer, ActionView},
		{roleEmployee, ObjectCustomer, ActionCreate},
		{roleEmployee, ObjectVilla, ActionView},
		{roleEmployee, ObjectExtraService, ActionView},
		{roleEmployee, ObjectOwner, ActionView},
		{roleEmployee, ObjectDashboard, ActionView},
		{roleEmployee, ObjectReceipt, ActionView},
		{roleEmployee, ObjectCategory, ActionView},
		{roleEmployee, ObjectLogo, ActionView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
