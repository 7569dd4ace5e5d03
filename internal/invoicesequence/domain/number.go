package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/smallbiznis/villadesk/internal/apperror"
)

var ErrInvalidNumberFormat = apperror.Invalid("invoice_number", "invalid_invoice_number", "invoice number must be a string or an integer")

// ManualNumber is an operator supplied invoice number. Clients send it either
// as a JSON string or as a bare integer.
type ManualNumber string

func (n *ManualNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = ManualNumber(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return ErrInvalidNumberFormat
	}
	if _, err := num.Int64(); err != nil {
		return ErrInvalidNumberFormat
	}
	*n = ManualNumber(num.String())
	return nil
}

func (n ManualNumber) String() string { return strings.TrimSpace(string(n)) }

func (n ManualNumber) IsSet() bool { return n.String() != "" }
