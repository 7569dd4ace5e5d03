package domain

import (
	"context"

	"github.com/smallbiznis/villadesk/internal/apperror"
)

// UpdateRequest patches the saved layout; nil fields keep their value.
type UpdateRequest struct {
	ShowCustomerName           *bool              `json:"show_customer_name"`
	ShowCustomerPhone          *bool              `json:"show_customer_phone"`
	ShowCustomerIdentification *bool              `json:"show_customer_identification"`
	ShowVillaCode              *bool              `json:"show_villa_code"`
	ShowVillaDescription       *bool              `json:"show_villa_description"`
	ShowRentalType             *bool              `json:"show_rental_type"`
	ShowReservationDate        *bool              `json:"show_reservation_date"`
	ShowCheckInTime            *bool              `json:"show_check_in_time"`
	ShowCheckOutTime           *bool              `json:"show_check_out_time"`
	ShowGuests                 *bool              `json:"show_guests"`
	ShowExtraServices          *bool              `json:"show_extra_services"`
	ShowPaymentMethod          *bool              `json:"show_payment_method"`
	ShowDeposit                *bool              `json:"show_deposit"`
	ShowLogo                   *bool              `json:"show_logo"`
	Policies                   *[]string          `json:"policies"`
	CustomFields               *map[string]string `json:"custom_fields"`
	FooterNote                 *string            `json:"footer_note"`
	PrimaryColor               *string            `json:"primary_color"`
	SecondaryColor             *string            `json:"secondary_color"`
}

// UploadLogoRequest carries the image base64 encoded, optionally as a data URL.
type UploadLogoRequest struct {
	LogoData string `json:"logo_data"`
	Filename string `json:"logo_filename"`
	MimeType string `json:"logo_mimetype"`
}

// LogoView is the logo as the settings screen reads it. Every field is null
// when no logo is stored.
type LogoView struct {
	LogoData *string `json:"logo_data"`
	Filename *string `json:"logo_filename"`
	MimeType *string `json:"logo_mimetype"`
}

type Service interface {
	// Template returns the saved layout, or the default one.
	Template(ctx context.Context) (Template, error)
	UpdateTemplate(ctx context.Context, req UpdateRequest) (Template, error)
	ResetTemplate(ctx context.Context) (Template, error)

	// Logo returns nil when no logo is stored.
	Logo(ctx context.Context) (*Logo, error)
	LogoView(ctx context.Context) (LogoView, error)
	UploadLogo(ctx context.Context, req UploadLogoRequest) (Logo, error)
	// DeleteLogo reports whether a logo was removed.
	DeleteLogo(ctx context.Context) (bool, error)
}

var (
	ErrInvalidColor    = apperror.Invalid("color", "invalid_color", "colors must be #RRGGBB")
	ErrInvalidField    = apperror.Invalid("custom_fields", "invalid_custom_field", "custom field names cannot be empty")
	ErrInvalidLogo     = apperror.Invalid("logo_data", "invalid_logo", "logo must be base64 encoded")
	ErrLogoType        = apperror.Invalid("logo_mimetype", "invalid_logo_type", "logo must be a png or jpeg image")
	ErrLogoTooLarge    = apperror.Invalid("logo_data", "logo_too_large", "logo exceeds the size limit")
	ErrInvalidFilename = apperror.Invalid("logo_filename", "invalid_logo_filename", "logo filename is required")
)
