package receipt

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRenderInvoice(t *testing.T) {
	r := NewRenderer()
	content, err := r.Invoice(context.Background(), InvoiceData{
		Issuer:          "VillaDesk",
		InvoiceNumber:   "1600",
		IssueDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:        "DOP",
		CustomerName:    "Ana Pérez",
		VillaCode:       "ABC123",
		RentalType:      "Pasadía",
		ReservationDate: time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		CheckIn:         "09:00",
		CheckOut:        "18:00",
		Guests:          10,
		PaymentMethod:   "Efectivo",
		Lines: []Line{
			{Description: "Alquiler", Qty: 1, UnitPrice: decimal.NewFromInt(10000), Amount: decimal.NewFromInt(10000)},
		},
		Subtotal:   decimal.NewFromInt(10000),
		Total:      decimal.NewFromInt(10000),
		AmountPaid: decimal.NewFromInt(2000),
		BalanceDue: decimal.NewFromInt(8000),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestRenderReceipt(t *testing.T) {
	r := NewRenderer()
	content, err := r.Receipt(context.Background(), ReceiptData{
		Issuer:        "VillaDesk",
		InvoiceNumber: "1601",
		DatePaid:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Currency:      "USD",
		PaymentMethod: "Transferencia",
		Amount:        decimal.NewFromInt(500),
		PaidFor:       "Reserva factura #1600",
		TotalPaid:     decimal.NewFromInt(2500),
		BalanceDue:    decimal.NewFromInt(7500),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestInvoiceLines(t *testing.T) {
	res := reservationdomain.Reservation{
		VillaCode:      "ABC123",
		RentalType:     villadomain.RentalOvernight,
		BasePrice:      decimal.NewFromInt(10000),
		ExtraHours:     decimal.NewFromInt(2),
		ExtraHoursCost: decimal.NewFromInt(1000),
	}
	res.ExtraServices = append(res.ExtraServices, reservationdomain.ExtraServiceLine{
		ServiceName: "Chef",
		Quantity:    2,
		UnitPrice:   decimal.NewFromInt(750),
	})

	lines := invoiceLines(res)
	require.Len(t, lines, 3)
	assert.Equal(t, "Alquiler Amanecida ABC123", lines[0].Description)
	assert.True(t, lines[1].Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, lines[2].Amount.Equal(decimal.NewFromInt(1500)))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "DOP 1500.50", formatMoney(decimal.RequireFromString("1500.5"), ""))
	assert.Equal(t, "USD 0.00", formatMoney(decimal.Zero, "usd"))
	assert.Equal(t, "-", formatDate(time.Time{}))
	assert.Equal(t, "Transferencia", methodLabel("TRANSFER"))
	assert.Equal(t, "cheque", methodLabel("cheque"))
}

type layoutStub struct {
	templatedomain.Service
	layout templatedomain.Template
	logo   *templatedomain.Logo
}

func (s layoutStub) Template(context.Context) (templatedomain.Template, error) {
	return s.layout, nil
}

func (s layoutStub) Logo(context.Context) (*templatedomain.Logo, error) {
	return s.logo, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderInvoiceWithLayoutAndLogo(t *testing.T) {
	layout := templatedomain.DefaultTemplate()
	layout.ShowCustomerPhone = false
	layout.ShowDeposit = false
	layout.Policies = nil
	layout.CustomFields = datatypes.NewJSONType(map[string]string{"RNC": "131-00000-1"})
	layout.PrimaryColor = "#aa0000"

	content, err := NewRenderer().Invoice(context.Background(), InvoiceData{
		Issuer:        "VillaDesk",
		InvoiceNumber: "1700",
		CustomerName:  "Ana Pérez",
		Lines:         []Line{{Description: "Alquiler", Qty: 1, UnitPrice: decimal.NewFromInt(100), Amount: decimal.NewFromInt(100)}},
		Total:         decimal.NewFromInt(100),
		BalanceDue:    decimal.NewFromInt(100),
		Layout:        &layout,
		Logo:          NewLogo(pngBytes(t), "image/png"),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestApplyLayoutCollapsesHiddenExtras(t *testing.T) {
	layout := templatedomain.DefaultTemplate()
	layout.ShowExtraServices = false
	svc := &Service{templates: layoutStub{
		layout: layout,
		logo:   &templatedomain.Logo{Data: pngBytes(t), MimeType: "image/png"},
	}}

	res := reservationdomain.Reservation{
		VillaCode:          "ABC123",
		BasePrice:          decimal.NewFromInt(10000),
		ExtraServicesTotal: decimal.NewFromInt(2500),
	}
	res.ExtraServices = append(res.ExtraServices,
		reservationdomain.ExtraServiceLine{ServiceName: "Chef", Quantity: 1, UnitPrice: decimal.NewFromInt(1000), Total: decimal.NewFromInt(1000)},
		reservationdomain.ExtraServiceLine{ServiceName: "DJ", Quantity: 1, UnitPrice: decimal.NewFromInt(1500), Total: decimal.NewFromInt(1500)},
	)

	data := InvoiceData{Lines: invoiceLines(res)}
	require.NoError(t, svc.applyLayout(context.Background(), &data, res))

	require.Len(t, data.Lines, 2)
	assert.Equal(t, "Servicios adicionales", data.Lines[1].Description)
	assert.True(t, data.Lines[1].Amount.Equal(decimal.NewFromInt(2500)))
	require.NotNil(t, data.Layout)
	require.NotNil(t, data.Logo)
	assert.Equal(t, extension.Png, data.Logo.Extension)
}

func TestApplyLayoutSkipsLogoWhenHidden(t *testing.T) {
	layout := templatedomain.DefaultTemplate()
	layout.ShowLogo = false
	svc := &Service{templates: layoutStub{
		layout: layout,
		logo:   &templatedomain.Logo{Data: []byte{1}, MimeType: "image/png"},
	}}

	data := InvoiceData{}
	require.NoError(t, svc.applyLayout(context.Background(), &data, reservationdomain.Reservation{}))
	assert.Nil(t, data.Logo)
}

func TestLayoutHelpers(t *testing.T) {
	assert.Equal(t, &props.Color{Red: 37, Green: 99, Blue: 235}, parseColor("#2563eb"))
	assert.Nil(t, parseColor("blue"))
	assert.Nil(t, NewLogo([]byte{1}, "image/gif"))
	assert.Equal(t, extension.Jpg, NewLogo([]byte{1}, "image/jpeg").Extension)

	layout := templatedomain.DefaultTemplate()
	layout.CustomFields = datatypes.NewJSONType(map[string]string{"b": "2", "a": ""})
	assert.Equal(t, []string{"a: -", "b: 2"}, customFields(layout))
}
