package api

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
)

const signatureHeader = "X-Hub-Signature"

var ErrSignatureMismatch = errors.New("webhook signature mismatch")

// Sign returns the X-Hub-Signature value GitHub sends for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the header against an HMAC-SHA1 of the raw body.
func VerifySignature(secret, body []byte, header string) error {
	if !hmac.Equal([]byte(Sign(secret, body)), []byte(header)) {
		return ErrSignatureMismatch
	}
	return nil
}
