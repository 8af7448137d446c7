// Package crypto holds the request-signing helpers shared by the venue
// adapters. Both venues authenticate with HMAC-SHA256, but over different
// messages and encodings.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// QuerySigner signs Binance-style requests: the signature is HMAC-SHA256 over
// the raw query string (which already carries the timestamp), hex-encoded and
// appended as the signature parameter.
type QuerySigner struct {
	Key    string // API key, sent in the X-MBX-APIKEY header
	Secret string
}

// Sign returns the hex signature for the given query string.
func (s *QuerySigner) Sign(query string) string {
	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (s *QuerySigner) String() string {
	return fmt.Sprintf("QuerySigner{key=%s}", redact(s.Key))
}

// HeaderSigner signs dYdX-style requests: HMAC-SHA256 over
// timestamp+method+path+body with the base64url-decoded secret, the result
// base64url-encoded into a set of DYDX-* headers.
type HeaderSigner struct {
	Key        string
	Secret     string // base64url-encoded
	Passphrase string
}

// Headers returns the authentication headers for one request.
func (h *HeaderSigner) Headers(method, path, body string) map[string]string {
	return h.HeadersAt(method, path, body, time.Now().UTC())
}

// HeadersAt is like Headers but lets the caller supply the timestamp, which
// keeps signatures deterministic in tests.
func (h *HeaderSigner) HeadersAt(method, path, body string, at time.Time) map[string]string {
	ts := at.Format("2006-01-02T15:04:05.000Z")

	secretBytes, err := base64.URLEncoding.DecodeString(h.Secret)
	if err != nil {
		// A malformed secret yields an obviously-wrong signature rather
		// than a panic.
		secretBytes = []byte(h.Secret)
	}

	message := ts + method + path + body
	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(message))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"DYDX-API-KEY":    h.Key,
		"DYDX-TIMESTAMP":  ts,
		"DYDX-PASSPHRASE": h.Passphrase,
		"DYDX-SIGNATURE":  sig,
	}
}

// String returns a redacted representation suitable for logging.
func (h *HeaderSigner) String() string {
	return fmt.Sprintf("HeaderSigner{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// Timestamp returns the current Unix epoch milliseconds as a decimal string,
// the format Binance expects in signed query strings.
func Timestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
