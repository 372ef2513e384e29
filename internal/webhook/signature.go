package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "creditflow/pkg/domain-errors"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)), optionally
// prefixed with "sha256=".
const SignatureHeader = "X-Signature"

// Sign returns the header value a provider sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature accepts any body when secret is empty.
func VerifySignature(secret string, body []byte, header string) error {
	if secret == "" {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(got) == 0 {
		return dErrors.New(dErrors.CodeUnauthorized, "missing or malformed webhook signature")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return dErrors.New(dErrors.CodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}
