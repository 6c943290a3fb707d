package web

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// SignPayload returns the value a payment gateway sends in SignatureHeader.
func SignPayload(secret string, body []byte) string {
	return hex.EncodeToString(computeHMAC([]byte(secret), body))
}

// RequireSignature rejects requests whose body is not signed with secret.
// An empty secret refuses every request.
func RequireSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, r, "callback verification is not configured", "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable)
				return
			}
			value := strings.TrimSpace(r.Header.Get(SignatureHeader))
			if value == "" {
				writeError(w, r, "signature header missing", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			signature, err := hex.DecodeString(value)
			if err != nil {
				writeError(w, r, "signature must be hex encoded", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
					return
				}
				writeError(w, r, "unable to read request body", "BAD_REQUEST", http.StatusBadRequest)
				return
			}

			if !hmac.Equal(signature, computeHMAC([]byte(secret), body)) {
				writeError(w, r, "signature verification failed", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))
	return buf, nil
}

func computeHMAC(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(message)
	return mac.Sum(nil)
}
