package sepay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"id": 92704,
	"gateway": "Vietcombank",
	"transactionDate": "2025-12-19 23:36:00",
	"accountNumber": "0123499999",
	"code": null,
	"content": "NGUYEN VAN A chuyen tien",
	"transferType": "in",
	"transferAmount": 50000,
	"accumulated": 19077000,
	"subAccount": null,
	"referenceCode": "MBVCB.3278907687",
	"description": ""
}`

func TestDecode(t *testing.T) {
	w, err := Decode([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, ID("92704"), w.ID)
	assert.Equal(t, int64(50000), w.TransferAmount)
	assert.Equal(t, "Vietcombank", w.Gateway)
	assert.Nil(t, w.Code)
	assert.Equal(t, "92704", w.ExternalID([]byte(samplePayload)))

	meta := w.Metadata()
	assert.Equal(t, "MBVCB.3278907687", meta["referenceCode"])
	assert.Equal(t, "19077000", meta["accumulated"])
	assert.NotContains(t, meta, "code")
}

func TestDecodeStringID(t *testing.T) {
	w, err := Decode([]byte(`{"id":" abc-1 ","content":"x","transferAmount":1}`))
	require.NoError(t, err)
	assert.Equal(t, ID("abc-1"), w.ID)
}

func TestDecodeMissingIDFallsBackToHash(t *testing.T) {
	body := []byte(`{"content":"x","transferAmount":1}`)
	w, err := Decode(body)
	require.NoError(t, err)

	id := w.ExternalID(body)
	assert.Equal(t, "hash:", id[:5])
	assert.Len(t, id, 5+64)
	assert.Equal(t, id, w.ExternalID(body))
}

func TestDecodeInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":        `nope`,
		"zero amount":     `{"id":1,"content":"x","transferAmount":0}`,
		"negative amount": `{"id":1,"content":"x","transferAmount":-5}`,
		"empty content":   `{"id":1,"content":"   ","transferAmount":10}`,
		"missing content": `{"id":1,"transferAmount":10}`,
		"object id":       `{"id":{},"content":"x","transferAmount":10}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		header string
		secret string
		want   bool
	}{
		{"Apikey s3cret", "s3cret", true},
		{"apikey s3cret", "s3cret", true},
		{"Bearer s3cret", "s3cret", true},
		{"BEARER   s3cret  ", "s3cret", true},
		{"Apikey wrong", "s3cret", false},
		{"s3cret", "s3cret", false},
		{"Basic s3cret", "s3cret", false},
		{"", "s3cret", false},
		{"Apikey ", "", false},
		{"Bearer anything", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Authorize(tt.header, tt.secret), "%q", tt.header)
	}
}
