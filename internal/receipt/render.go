package receipt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
)

type Line struct {
	Description string
	Qty         int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

type InvoiceData struct {
	Issuer        string
	InvoiceNumber string
	IssueDate     time.Time
	Currency      string

	CustomerName           string
	CustomerPhone          string
	CustomerIdentification string

	VillaCode        string
	VillaDescription string
	RentalType       string
	ReservationDate  time.Time
	CheckIn          string
	CheckOut         string
	Guests           int
	PaymentMethod    string

	Lines []Line

	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
	Deposit    decimal.Decimal
	AmountPaid decimal.Decimal
	BalanceDue decimal.Decimal
	Notes      string

	// Layout decides which fields print. Nil means the default layout.
	Layout *templatedomain.Template
	Logo   *Logo
}

// Logo is an image for the document header.
type Logo struct {
	Data      []byte
	Extension extension.Type
}

// NewLogo maps a stored image to a header logo. Unsupported types yield nil.
func NewLogo(data []byte, mimeType string) *Logo {
	var ext extension.Type
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		ext = extension.Png
	case "image/jpeg", "image/jpg":
		ext = extension.Jpg
	default:
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return &Logo{Data: data, Extension: ext}
}

type ReceiptData struct {
	Issuer        string
	InvoiceNumber string
	DatePaid      time.Time
	Currency      string
	PaymentMethod string
	Amount        decimal.Decimal

	// PaidFor names what the installment pays down, e.g. a reservation
	// invoice or an expense description.
	PaidFor    string
	ReceivedBy string
	TotalPaid  decimal.Decimal
	BalanceDue decimal.Decimal
	Notes      string
}

// Renderer produces PDF bytes.
type Renderer interface {
	Invoice(ctx context.Context, data InvoiceData) ([]byte, error)
	Receipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type marotoRenderer struct{}

func NewRenderer() Renderer {
	return &marotoRenderer{}
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (r *marotoRenderer) Invoice(ctx context.Context, data InvoiceData) ([]byte, error) {
	layout := templatedomain.DefaultTemplate()
	if data.Layout != nil {
		layout = *data.Layout
	}
	primary := parseColor(layout.PrimaryColor)
	secondary := parseColor(layout.SecondaryColor)

	m := newDocument()

	title := props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right, Color: primary}
	if data.Logo != nil && layout.ShowLogo {
		m.AddRow(24,
			image.NewFromBytesCol(3, data.Logo.Data, data.Logo.Extension, props.Rect{Percent: 85}),
			text.NewCol(5, data.Issuer, props.Text{Size: 16, Style: fontstyle.Bold, Top: 6, Color: primary}),
			text.NewCol(4, "Factura #"+data.InvoiceNumber, title),
		)
	} else {
		m.AddRow(12,
			text.NewCol(8, data.Issuer, props.Text{Size: 16, Style: fontstyle.Bold, Color: primary}),
			text.NewCol(4, "Factura #"+data.InvoiceNumber, title),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(4, "Fecha: "+formatDate(data.IssueDate), props.Text{Size: 9, Align: align.Right}),
	)

	var customer []string
	if layout.ShowCustomerName {
		customer = append(customer, data.CustomerName)
	}
	if layout.ShowCustomerPhone {
		customer = append(customer, data.CustomerPhone)
	}
	if layout.ShowCustomerIdentification {
		customer = append(customer, data.CustomerIdentification)
	}

	var villa []string
	var villaName []string
	if layout.ShowVillaCode {
		villaName = append(villaName, data.VillaCode)
	}
	if layout.ShowVillaDescription {
		villaName = append(villaName, data.VillaDescription)
	}
	if name := strings.TrimSpace(strings.Join(villaName, " ")); name != "" {
		villa = append(villa, name)
	}
	var when []string
	if layout.ShowRentalType {
		when = append(when, data.RentalType)
	}
	if layout.ShowReservationDate {
		when = append(when, formatDate(data.ReservationDate))
	}
	if len(when) > 0 {
		villa = append(villa, strings.Join(when, " - "))
	}
	var stay []string
	if layout.ShowCheckInTime {
		stay = append(stay, "Entrada "+dash(data.CheckIn))
	}
	if layout.ShowCheckOutTime {
		stay = append(stay, "Salida "+dash(data.CheckOut))
	}
	if layout.ShowGuests {
		stay = append(stay, fmt.Sprintf("%d personas", data.Guests))
	}
	if len(stay) > 0 {
		villa = append(villa, strings.Join(stay, " / "))
	}

	heading := props.Text{Style: fontstyle.Bold, Color: secondary}
	m.AddRow(float64(8+5*max(len(customer), len(villa))),
		block(6, "Cliente", customer, heading),
		block(6, "Villa", villa, heading),
	)

	m.AddRow(10,
		text.NewCol(6, "Descripción", props.Text{Style: fontstyle.Bold, Size: 9, Color: secondary}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: secondary}),
		text.NewCol(2, "Precio", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: secondary}),
		text.NewCol(2, "Monto", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: secondary}),
	)
	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(6, line.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", line.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatMoney(line.UnitPrice, data.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatMoney(line.Amount, data.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := []struct {
		label string
		value decimal.Decimal
		bold  bool
		shown bool
	}{
		{"Subtotal", data.Subtotal, false, true},
		{"Descuento", data.Discount, false, true},
		{"ITBIS", data.TaxAmount, false, true},
		{"Total", data.Total, true, true},
		{"Depósito", data.Deposit, false, layout.ShowDeposit},
		{"Pagado", data.AmountPaid, false, true},
		{"Pendiente", data.BalanceDue, true, true},
	}
	for _, row := range totals {
		if !row.shown {
			continue
		}
		style := props.Text{Size: 9}
		if row.bold {
			style = props.Text{Size: 9, Style: fontstyle.Bold, Color: primary}
		}
		amount := style
		amount.Align = align.Right
		m.AddRow(7,
			col.New(7),
			text.NewCol(2, row.label, style),
			text.NewCol(3, formatMoney(row.value, data.Currency), amount),
		)
	}

	if layout.ShowPaymentMethod {
		m.AddRow(8, text.NewCol(12, "Forma de pago: "+data.PaymentMethod, props.Text{Size: 9, Top: 3}))
	}
	for _, field := range customFields(layout) {
		m.AddRow(6, text.NewCol(12, field, props.Text{Size: 9}))
	}
	if data.Notes != "" {
		m.AddRow(12, text.NewCol(12, data.Notes, props.Text{Size: 8, Top: 2}))
	}

	if len(layout.Policies) > 0 {
		m.AddRow(8, text.NewCol(12, "Políticas", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3, Color: secondary}))
		for _, policy := range layout.Policies {
			m.AddRow(5, text.NewCol(12, "• "+policy, props.Text{Size: 8}))
		}
	}
	if note := strings.TrimSpace(layout.FooterNote); note != "" {
		m.AddRow(12, text.NewCol(12, note, props.Text{Size: 10, Style: fontstyle.Italic, Align: align.Center, Top: 4, Color: primary}))
	}

	return generate(m)
}

// block renders a titled column of lines, skipping blank ones.
func block(size int, title string, lines []string, heading props.Text) core.Col {
	c := col.New(size).Add(text.New(title, heading))
	top := 5.0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.Add(text.New(line, props.Text{Top: top}))
		top += 5
	}
	return c
}

func customFields(layout templatedomain.Template) []string {
	fields := layout.CustomFields.Data()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+": "+dash(fields[name]))
	}
	return out
}

// parseColor reads #RRGGBB. Anything else prints in the default black.
func parseColor(hex string) *props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}
	return &props.Color{
		Red:   int(value >> 16 & 0xff),
		Green: int(value >> 8 & 0xff),
		Blue:  int(value & 0xff),
	}
}

func (r *marotoRenderer) Receipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(8, data.Issuer, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "Recibo #"+data.InvoiceNumber, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(4, "Fecha de pago: "+formatDate(data.DatePaid), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(12, formatMoney(data.Amount, data.Currency)+" recibidos", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)
	m.AddRow(20,
		col.New(12).Add(
			text.New("Concepto: "+data.PaidFor, props.Text{Size: 10}),
			text.New("Forma de pago: "+data.PaymentMethod, props.Text{Size: 10, Top: 5}),
			text.New("Recibido por: "+dash(data.ReceivedBy), props.Text{Size: 10, Top: 10}),
		),
	)

	m.AddRow(7,
		col.New(7),
		text.NewCol(2, "Total pagado", props.Text{Size: 9}),
		text.NewCol(3, formatMoney(data.TotalPaid, data.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(7),
		text.NewCol(2, "Pendiente", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, formatMoney(data.BalanceDue, data.Currency), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	if data.Notes != "" {
		m.AddRow(12, text.NewCol(12, data.Notes, props.Text{Size: 8, Top: 2}))
	}

	return generate(m)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func formatMoney(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "DOP"
	}
	return currency + " " + amount.StringFixed(2)
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("02/01/2006")
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
