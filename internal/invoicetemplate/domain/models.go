package domain

import (
	"time"

	"gorm.io/datatypes"
)

// The workspace has a single invoice layout and a single logo.
const (
	MainTemplateID = "main"
	MainLogoID     = "main"
)

// Template controls which reservation fields the printed invoice shows and
// the text printed under the totals.
type Template struct {
	ID string `gorm:"primaryKey;size:32" json:"-"`

	ShowCustomerName           bool `gorm:"not null" json:"show_customer_name"`
	ShowCustomerPhone          bool `gorm:"not null" json:"show_customer_phone"`
	ShowCustomerIdentification bool `gorm:"not null" json:"show_customer_identification"`
	ShowVillaCode              bool `gorm:"not null" json:"show_villa_code"`
	ShowVillaDescription       bool `gorm:"not null" json:"show_villa_description"`
	ShowRentalType             bool `gorm:"not null" json:"show_rental_type"`
	ShowReservationDate        bool `gorm:"not null" json:"show_reservation_date"`
	ShowCheckInTime            bool `gorm:"not null" json:"show_check_in_time"`
	ShowCheckOutTime           bool `gorm:"not null" json:"show_check_out_time"`
	ShowGuests                 bool `gorm:"not null" json:"show_guests"`
	ShowExtraServices          bool `gorm:"not null" json:"show_extra_services"`
	ShowPaymentMethod          bool `gorm:"not null" json:"show_payment_method"`
	ShowDeposit                bool `gorm:"not null" json:"show_deposit"`
	ShowLogo                   bool `gorm:"not null" json:"show_logo"`

	Policies       datatypes.JSONSlice[string]           `json:"policies"`
	CustomFields   datatypes.JSONType[map[string]string] `json:"custom_fields"`
	FooterNote     string                                `json:"footer_note"`
	PrimaryColor   string                                `gorm:"size:7;not null" json:"primary_color"`
	SecondaryColor string                                `gorm:"size:7;not null" json:"secondary_color"`

	UpdatedBy string    `gorm:"size:32" json:"updated_by,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string { return "invoice_templates" }

// DefaultTemplate is what invoices use until an admin saves a layout.
func DefaultTemplate() Template {
	return Template{
		ID:                         MainTemplateID,
		ShowCustomerName:           true,
		ShowCustomerPhone:          true,
		ShowCustomerIdentification: true,
		ShowVillaCode:              true,
		ShowVillaDescription:       true,
		ShowRentalType:             true,
		ShowReservationDate:        true,
		ShowCheckInTime:            true,
		ShowCheckOutTime:           true,
		ShowGuests:                 true,
		ShowExtraServices:          true,
		ShowPaymentMethod:          true,
		ShowDeposit:                true,
		ShowLogo:                   true,
		Policies: datatypes.JSONSlice[string]{
			"El depósito no es reembolsable",
			"Check-in: horario establecido | Check-out: horario establecido",
			"Capacidad máxima de personas debe respetarse",
			"Prohibido fumar dentro de las instalaciones",
			"El cliente es responsable de cualquier daño a la propiedad",
		},
		CustomFields:   datatypes.NewJSONType(map[string]string{}),
		FooterNote:     "¡Gracias por su preferencia!",
		PrimaryColor:   "#2563eb",
		SecondaryColor: "#1e40af",
	}
}

// Logo is the image printed in the invoice header.
type Logo struct {
	ID         string    `gorm:"primaryKey;size:32" json:"-"`
	Filename   string    `gorm:"not null" json:"logo_filename"`
	MimeType   string    `gorm:"size:32;not null" json:"logo_mimetype"`
	Data       []byte    `gorm:"not null" json:"-"`
	UploadedBy string    `gorm:"size:32" json:"uploaded_by,omitempty"`
	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
}

func (Logo) TableName() string { return "logos" }
