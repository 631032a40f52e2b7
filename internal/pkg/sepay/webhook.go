// Package sepay models the SePay bank-transfer webhook: its payload, its
// authorization header and the raw delivery log.
package sepay

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

// ID is the gateway transaction id. SePay sends it as a JSON number, but
// strings are accepted too.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Webhook is one incoming transfer notification.
type Webhook struct {
	ID              ID      `json:"id"`
	Gateway         string  `json:"gateway"`
	TransactionDate string  `json:"transactionDate"`
	AccountNumber   string  `json:"accountNumber"`
	Code            *string `json:"code"`
	Content         string  `json:"content" validate:"required"`
	TransferType    string  `json:"transferType"`
	TransferAmount  int64   `json:"transferAmount" validate:"gt=0"`
	Accumulated     int64   `json:"accumulated"`
	SubAccount      *string `json:"subAccount"`
	ReferenceCode   string  `json:"referenceCode"`
	Description     string  `json:"description"`
}

var validate = validator.New()

// Decode parses and validates a webhook body. Every failure wraps
// ErrInvalidPayload.
func Decode(body []byte) (*Webhook, error) {
	var w Webhook
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	w.Content = strings.TrimSpace(w.Content)
	if err := validate.Struct(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &w, nil
}

// ExternalID is the dedup key of the delivery: the gateway id, or a hash of
// the raw body when the gateway sent none.
func (w *Webhook) ExternalID(body []byte) string {
	if id := strings.TrimSpace(string(w.ID)); id != "" {
		return id
	}
	sum := sha256.Sum256(body)
	return "hash:" + hex.EncodeToString(sum[:])
}

// Metadata returns the passthrough fields stored next to the donation.
func (w *Webhook) Metadata() map[string]any {
	m := map[string]any{
		"transferType":    w.TransferType,
		"accumulated":     strconv.FormatInt(w.Accumulated, 10),
		"referenceCode":   w.ReferenceCode,
		"description":     w.Description,
		"transactionDate": w.TransactionDate,
	}
	if w.Code != nil {
		m["code"] = *w.Code
	}
	if w.SubAccount != nil {
		m["subAccount"] = *w.SubAccount
	}
	return m
}
