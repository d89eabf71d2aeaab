package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	signatureVersion = "v0"
	// Slack recommends rejecting requests older than five minutes to
	// blunt replay attacks.
	maxSignatureAge = 5 * time.Minute
)

var (
	errSignatureMissing = errors.New("missing signature headers")
	errSignatureStale   = errors.New("request timestamp too old")
	errSignatureInvalid = errors.New("signature mismatch")
)

// verifySignature checks a Slack request signature: an HMAC-SHA256 of
// "v0:{timestamp}:{body}" keyed with the app's signing secret.
func verifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return errSignatureMissing
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return errSignatureMissing
	}
	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > maxSignatureAge {
		return errSignatureStale
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	want := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return errSignatureInvalid
	}
	return nil
}
