package processor

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestVerifySignature_RoundTrip(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	header := FormatSignatureHeader(secret, now.Unix(), body)
	assert.NoError(t, VerifySignature(secret, header, body, now))
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := FormatSignatureHeader(secret, now.Unix(), []byte(`{"amount_cents":100}`))

	err := VerifySignature(secret, header, []byte(`{"amount_cents":100000}`), now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := FormatSignatureHeader([]byte("other-secret"), now.Unix(), body)

	assert.ErrorIs(t, VerifySignature(secret, header, body, now), ErrBadSignature)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := FormatSignatureHeader(secret, signedAt.Unix(), body)

	assert.ErrorIs(t, VerifySignature(secret, header, body, time.Now()), ErrStaleSignature)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)
	for _, h := range []string{"", "t=,v1=", "v1=deadbeef", "t=123", "garbage"} {
		assert.ErrorIs(t, VerifySignature(secret, h, body, time.Now()), ErrBadSignature, "header %q", h)
	}
}

func TestMock_VerifyAndParseWebhook(t *testing.T) {
	m := NewMock("test-secret")
	body := []byte(`{"id":"evt_9","type":"transaction.updated","data":{"transaction_ref":"ptx_1","status":"paid","amount_cents":4000,"currency":"DZD"}}`)

	h := http.Header{}
	h.Set(SignatureHeader, FormatSignatureHeader(secret, time.Now().Unix(), body))

	ev, err := m.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)
	assert.Equal(t, "evt_9", ev.EventID)
	assert.Equal(t, "ptx_1", ev.TransactionRef)
	assert.Equal(t, "paid", ev.Status)
	assert.Equal(t, 4000, ev.AmountCents)

	// spoofed delivery is rejected, not ignored
	h.Set(SignatureHeader, FormatSignatureHeader([]byte("attacker"), time.Now().Unix(), body))
	_, err = m.VerifyAndParseWebhook(h, body)
	assert.Error(t, err)
}

func TestVerifyAndParse_MissingEventID(t *testing.T) {
	body := []byte(`{"type":"transaction.updated"}`)
	h := http.Header{}
	h.Set(SignatureHeader, FormatSignatureHeader(secret, time.Now().Unix(), body))

	_, err := verifyAndParse(secret, h, body)
	assert.Error(t, err)
}
