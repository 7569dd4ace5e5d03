package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	authdomain "github.com/smallbiznis/villadesk/internal/auth/domain"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	customerdomain "github.com/smallbiznis/villadesk/internal/customer/domain"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	extraservicedomain "github.com/smallbiznis/villadesk/internal/extraservice/domain"
	installmentdomain "github.com/smallbiznis/villadesk/internal/installment/domain"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	ownerdomain "github.com/smallbiznis/villadesk/internal/owner/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres schema. It is idempotent.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&customerdomain.Customer{},
		&categorydomain.VillaCategory{},
		&categorydomain.ExpenseCategory{},
		&villadomain.Villa{},
		&extraservicedomain.ExtraService{},
		&reservationdomain.Reservation{},
		&expensedomain.Expense{},
		&installmentdomain.ReservationInstallment{},
		&installmentdomain.ExpenseInstallment{},
		&ownerdomain.Owner{},
		&ownerdomain.Payment{},
		&sequencedomain.Sequence{},
		&sequencedomain.Claim{},
		&auditdomain.AuditLog{},
		&templatedomain.Template{},
		&templatedomain.Logo{},
	}
}

// AutoMigrate builds the schema from the models. Used for sqlite and mysql,
// which the embedded SQL does not target.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(Models()...)
}
