package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/reservation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reservation *domain.Reservation) error {
	return db.WithContext(ctx).Create(reservation).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Reservation, error) {
	stmt := db.WithContext(ctx).Model(&domain.Reservation{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var reservations []*domain.Reservation
	if err := stmt.Order("created_at desc, id desc").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, reservation *domain.Reservation, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	values := columnValues(reservation)
	changes := make(map[string]any, len(columns)+1)
	for _, column := range columns {
		value, ok := values[column]
		if !ok {
			return fmt.Errorf("reservation: unknown column %q", column)
		}
		changes[column] = value
	}
	changes["updated_at"] = reservation.UpdatedAt

	return db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ?", reservation.ID).
		Updates(changes).Error
}

func columnValues(reservation *domain.Reservation) map[string]any {
	return map[string]any{
		"villa_id":             reservation.VillaID,
		"villa_code":           reservation.VillaCode,
		"villa_description":    reservation.VillaDescription,
		"rental_type":          reservation.RentalType,
		"event_type":           reservation.EventType,
		"reservation_date":     reservation.ReservationDate,
		"check_in_time":        reservation.CheckInTime,
		"check_out_time":       reservation.CheckOutTime,
		"guests":               reservation.Guests,
		"base_price":           reservation.BasePrice,
		"owner_price":          reservation.OwnerPrice,
		"extra_hours":          reservation.ExtraHours,
		"extra_hours_cost":     reservation.ExtraHoursCost,
		"extra_services":       reservation.ExtraServices,
		"extra_services_total": reservation.ExtraServicesTotal,
		"subtotal":             reservation.Subtotal,
		"discount":             reservation.Discount,
		"include_tax":          reservation.IncludeTax,
		"tax_amount":           reservation.TaxAmount,
		"total_amount":         reservation.TotalAmount,
		"deposit":              reservation.Deposit,
		"initial_amount_paid":  reservation.InitialAmountPaid,
		"amount_paid":          reservation.AmountPaid,
		"balance_due":          reservation.BalanceDue,
		"currency":             reservation.Currency,
		"payment_method":       reservation.PaymentMethod,
		"payment_details":      reservation.PaymentDetails,
		"status":               reservation.Status,
		"notes":                reservation.Notes,
	}
}

func (r *repo) SetAmountPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, amountPaid, balanceDue decimal.Decimal, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE reservations SET amount_paid = ?, balance_due = ?, updated_at = ? WHERE id = ?`,
		amountPaid, balanceDue, at, id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM reservations WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

func (r *repo) SumInstallments(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(amount) FROM reservation_installments WHERE reservation_id = ?`,
		id,
	).Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) InstallmentIDs(ctx context.Context, db *gorm.DB, id snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM reservation_installments WHERE reservation_id = ?`,
		id,
	).Scan(&ids).Error
	return ids, err
}

func (r *repo) DeleteInstallments(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM reservation_installments WHERE reservation_id = ?`,
		id,
	).Error
}

func (r *repo) MissingPayouts(ctx context.Context, db *gorm.DB) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("owner_price > 0 AND villa_id IS NOT NULL").
		Where(`NOT EXISTS (
			SELECT 1 FROM expenses e
			WHERE e.related_reservation_id = reservations.id
		)`).
		Order("created_at asc, id asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
