package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks that the raw webhook body was signed with the
// shared secret. The signature header carries a hex-encoded HMAC-SHA256 of the
// exact bytes received; re-serialized payloads must never be used here because
// whitespace differences would break the MAC. hmac.Equal performs the
// constant-time comparison. Returns false (not an error) on a missing header,
// empty secret or mismatch; the caller rejects with 401.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
