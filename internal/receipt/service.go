package receipt

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/balance"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	customerdomain "github.com/smallbiznis/villadesk/internal/customer/domain"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	installmentdomain "github.com/smallbiznis/villadesk/internal/installment/domain"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Document is a rendered PDF ready to be served as an attachment.
type Document struct {
	Filename string
	Content  []byte
}

type Params struct {
	fx.In

	Config       config.Config
	Log          *zap.Logger
	Clock        clock.Clock
	Renderer     Renderer
	Reservations reservationdomain.Service
	Customers    customerdomain.Service
	Expenses     expensedomain.Service
	Installments installmentdomain.Service
	Templates    templatedomain.Service `optional:"true"`
}

type Service struct {
	issuer       string
	log          *zap.Logger
	clock        clock.Clock
	renderer     Renderer
	reservations reservationdomain.Service
	customers    customerdomain.Service
	expenses     expensedomain.Service
	installments installmentdomain.Service
	templates    templatedomain.Service
}

func NewService(p Params) *Service {
	issuer := p.Config.AppName
	if issuer == "" {
		issuer = "VillaDesk"
	}
	return &Service{
		issuer:       issuer,
		log:          p.Log.Named("receipt.service"),
		clock:        p.Clock,
		renderer:     p.Renderer,
		reservations: p.Reservations,
		customers:    p.Customers,
		expenses:     p.Expenses,
		installments: p.Installments,
		templates:    p.Templates,
	}
}

// ReservationInvoice renders the invoice of a reservation.
func (s *Service) ReservationInvoice(ctx context.Context, reservationID string) (Document, error) {
	res, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		return Document{}, err
	}

	data := InvoiceData{
		Issuer:           s.issuer,
		InvoiceNumber:    res.InvoiceNumber,
		IssueDate:        res.CreatedAt,
		Currency:         res.Currency,
		CustomerName:     res.CustomerName,
		VillaCode:        res.VillaCode,
		VillaDescription: res.VillaDescription,
		RentalType:       rentalLabel(res.RentalType),
		ReservationDate:  res.ReservationDate,
		CheckIn:          res.CheckInTime,
		CheckOut:         res.CheckOutTime,
		Guests:           res.Guests,
		PaymentMethod:    methodLabel(res.PaymentMethod),
		Lines:            invoiceLines(res),
		Subtotal:         res.Subtotal,
		Discount:         res.Discount,
		TaxAmount:        res.TaxAmount,
		Total:            res.TotalAmount,
		Deposit:          res.Deposit,
		AmountPaid:       res.AmountPaid,
		BalanceDue:       res.BalanceDue,
		Notes:            res.Notes,
	}

	// The invoice still renders if the customer was removed after booking.
	customer, err := s.customers.GetByID(ctx, res.CustomerID.String())
	switch {
	case err == nil:
		data.CustomerName = customer.Name
		data.CustomerPhone = customer.Phone
		data.CustomerIdentification = customer.IdentificationDocument
	case errors.Is(err, apperror.ErrNotFound):
		s.log.Warn("customer missing for invoice",
			zap.String("reservation_id", res.ID.String()),
			zap.String("customer_id", res.CustomerID.String()),
		)
	default:
		return Document{}, err
	}

	if err := s.applyLayout(ctx, &data, res); err != nil {
		return Document{}, err
	}

	content, err := s.renderer.Invoice(ctx, data)
	if err != nil {
		s.log.Error("failed to render invoice", zap.String("reservation_id", res.ID.String()), zap.Error(err))
		return Document{}, err
	}
	return Document{
		Filename: fmt.Sprintf("factura-%s.pdf", res.InvoiceNumber),
		Content:  content,
	}, nil
}

// applyLayout attaches the saved invoice layout and logo. Hidden extra
// services collapse into a single line so the totals still add up.
func (s *Service) applyLayout(ctx context.Context, data *InvoiceData, res reservationdomain.Reservation) error {
	if s.templates == nil {
		return nil
	}
	layout, err := s.templates.Template(ctx)
	if err != nil {
		return err
	}
	data.Layout = &layout
	if !layout.ShowExtraServices {
		data.Lines = collapseExtras(data.Lines, res)
	}
	if !layout.ShowLogo {
		return nil
	}
	logo, err := s.templates.Logo(ctx)
	if err != nil {
		return err
	}
	if logo != nil {
		data.Logo = NewLogo(logo.Data, logo.MimeType)
	}
	return nil
}

// ReservationInstallmentReceipt renders the receipt of one reservation abono.
func (s *Service) ReservationInstallmentReceipt(ctx context.Context, reservationID, installmentID string) (Document, error) {
	inst, err := s.installments.GetForReservation(ctx, reservationID, installmentID)
	if err != nil {
		return Document{}, err
	}
	res, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		return Document{}, err
	}

	return s.renderReceipt(ctx, ReceiptData{
		Issuer:        s.issuer,
		InvoiceNumber: inst.InvoiceNumber,
		DatePaid:      inst.PaymentDate,
		Currency:      inst.Currency,
		PaymentMethod: methodLabel(inst.PaymentMethod),
		Amount:        inst.Amount,
		PaidFor:       fmt.Sprintf("Reserva factura #%s - %s", res.InvoiceNumber, res.CustomerName),
		ReceivedBy:    inst.CreatedBy,
		TotalPaid:     res.AmountPaid,
		BalanceDue:    res.BalanceDue,
		Notes:         inst.Notes,
	})
}

// ExpenseInstallmentReceipt renders the receipt of one expense abono.
func (s *Service) ExpenseInstallmentReceipt(ctx context.Context, expenseID, installmentID string) (Document, error) {
	inst, err := s.installments.GetForExpense(ctx, expenseID, installmentID)
	if err != nil {
		return Document{}, err
	}
	exp, err := s.expenses.Get(ctx, expenseID)
	if err != nil {
		return Document{}, err
	}

	return s.renderReceipt(ctx, ReceiptData{
		Issuer:        s.issuer,
		InvoiceNumber: inst.InvoiceNumber,
		DatePaid:      inst.PaymentDate,
		Currency:      inst.Currency,
		PaymentMethod: methodLabel(inst.PaymentMethod),
		Amount:        inst.Amount,
		PaidFor:       exp.Description,
		ReceivedBy:    inst.CreatedBy,
		TotalPaid:     exp.TotalPaid,
		BalanceDue:    exp.BalanceDue,
		Notes:         inst.Notes,
	})
}

func (s *Service) renderReceipt(ctx context.Context, data ReceiptData) (Document, error) {
	content, err := s.renderer.Receipt(ctx, data)
	if err != nil {
		s.log.Error("failed to render receipt", zap.String("invoice_number", data.InvoiceNumber), zap.Error(err))
		return Document{}, err
	}
	return Document{
		Filename: fmt.Sprintf("recibo-%s.pdf", data.InvoiceNumber),
		Content:  content,
	}, nil
}

func invoiceLines(res reservationdomain.Reservation) []Line {
	lines := []Line{{
		Description: "Alquiler " + rentalLabel(res.RentalType) + " " + res.VillaCode,
		Qty:         1,
		UnitPrice:   res.BasePrice,
		Amount:      res.BasePrice,
	}}
	if res.ExtraHours.IsPositive() {
		lines = append(lines, Line{
			Description: "Horas extra (" + res.ExtraHours.String() + ")",
			Qty:         1,
			UnitPrice:   res.ExtraHoursCost,
			Amount:      res.ExtraHoursCost,
		})
	}
	for _, extra := range res.ExtraServices {
		total := extra.Total
		if total.IsZero() {
			total = extra.UnitPrice.Mul(decimal.NewFromInt(int64(extra.Quantity)))
		}
		lines = append(lines, Line{
			Description: extra.ServiceName,
			Qty:         extra.Quantity,
			UnitPrice:   extra.UnitPrice,
			Amount:      total,
		})
	}
	return lines
}

func collapseExtras(lines []Line, res reservationdomain.Reservation) []Line {
	if len(res.ExtraServices) == 0 {
		return lines
	}
	kept := lines[:len(lines)-len(res.ExtraServices)]
	out := append([]Line(nil), kept...)
	total := res.ExtraServicesTotal
	if total.IsZero() {
		for _, line := range lines[len(kept):] {
			total = total.Add(line.Amount)
		}
	}
	return append(out, Line{
		Description: "Servicios adicionales",
		Qty:         1,
		UnitPrice:   total,
		Amount:      total,
	})
}

func rentalLabel(rt villadomain.RentalType) string {
	switch rt {
	case villadomain.RentalOvernight:
		return "Amanecida"
	case villadomain.RentalEvent:
		return "Evento"
	default:
		return "Pasadía"
	}
}

func methodLabel(raw string) string {
	method, ok := balance.ParsePaymentMethod(raw)
	if !ok {
		return raw
	}
	switch method {
	case balance.PaymentDeposit:
		return "Depósito"
	case balance.PaymentTransfer:
		return "Transferencia"
	case balance.PaymentMixed:
		return "Mixto"
	default:
		return "Efectivo"
	}
}
