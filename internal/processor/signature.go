package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the webhook signature: "t=<unix>,v1=<hex>".
const SignatureHeader = "X-Processor-Signature"

// signatures older than this are rejected to blunt replay of captured
// deliveries (dedupe on event id is the second line of defense)
const signatureTolerance = 5 * time.Minute

var (
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrStaleSignature = errors.New("webhook signature timestamp out of tolerance")
)

func ComputeSignature(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func FormatSignatureHeader(secret []byte, t int64, body []byte) string {
	return "t=" + strconv.FormatInt(t, 10) + ",v1=" + ComputeSignature(secret, t, body)
}

func parseSignatureHeader(h string) (t int64, sig string, err error) {
	for _, part := range strings.Split(h, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			t, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", ErrBadSignature
			}
		case "v1":
			sig = v
		}
	}
	if t == 0 || sig == "" {
		return 0, "", ErrBadSignature
	}
	return t, sig, nil
}

// VerifySignature checks the header against the body. Constant-time
// comparison; fails closed on any malformed input.
func VerifySignature(secret []byte, header string, body []byte, now time.Time) error {
	t, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Sub(time.Unix(t, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrStaleSignature
	}

	want := ComputeSignature(secret, t, body)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}
