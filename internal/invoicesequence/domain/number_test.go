package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualNumberAcceptsStringOrInteger(t *testing.T) {
	cases := []struct {
		name string
		body string
		want ManualNumber
	}{
		{name: "integer", body: `{"invoice_number": 9999}`, want: "9999"},
		{name: "string", body: `{"invoice_number": "9999"}`, want: "9999"},
		{name: "padded string", body: `{"invoice_number": " 1700 "}`, want: "1700"},
		{name: "null", body: `{"invoice_number": null}`, want: ""},
		{name: "omitted", body: `{}`, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req struct {
				InvoiceNumber ManualNumber `json:"invoice_number"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.want, req.InvoiceNumber)
			assert.Equal(t, tc.want != "", req.InvoiceNumber.IsSet())
		})
	}
}

func TestManualNumberRejectsFractionsAndObjects(t *testing.T) {
	for _, body := range []string{`{"invoice_number": 12.5}`, `{"invoice_number": {"n": 1}}`, `{"invoice_number": true}`} {
		var req struct {
			InvoiceNumber ManualNumber `json:"invoice_number"`
		}
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}
