package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// signatureEncodings are the accepted spellings of a digest. The provider
// sends standard base64; the other forms carry the same digest after a query
// string round-trip has dropped padding or swapped alphabets. Each encoding
// has exactly one spelling per digest.
var signatureEncodings = []*base64.Encoding{
	base64.StdEncoding.Strict(),
	base64.RawStdEncoding.Strict(),
	base64.URLEncoding.Strict(),
	base64.RawURLEncoding.Strict(),
}

// Verifier authenticates deliveries with a shared HMAC key. It is immutable
// and safe for concurrent use.
type Verifier struct {
	key []byte
}

// NewVerifier creates a Verifier for the given shared key
func NewVerifier(sharedKey []byte) (*Verifier, error) {
	if len(strings.TrimSpace(string(sharedKey))) == 0 {
		return nil, ErrMissingSharedKey
	}
	key := make([]byte, len(sharedKey))
	copy(key, sharedKey)
	return &Verifier{key: key}, nil
}

// Sign returns the base64 HMAC-SHA256 of rawBody, as the provider computes it
func Sign(rawBody, sharedKey []byte) string {
	return base64.StdEncoding.EncodeToString(digest(rawBody, sharedKey))
}

// Authenticate checks signature against rawBody without looking at the
// body's contents. A nil Verifier rejects everything.
func (v *Verifier) Authenticate(rawBody []byte, signature string) error {
	if v == nil || len(v.key) == 0 {
		return ErrMissingSharedKey
	}

	provided, err := normalizeSignature(signature)
	if err != nil {
		return err
	}

	// Compared as encoded text so no other spelling of the digest passes
	sum := digest(rawBody, v.key)
	matched := false
	for _, enc := range signatureEncodings {
		matched = hmac.Equal([]byte(enc.EncodeToString(sum)), provided) || matched
	}
	if matched {
		return nil
	}
	if !isBase64(provided) {
		return fmt.Errorf("%w: not base64", ErrMalformedSignature)
	}
	return ErrSignatureMismatch
}

// Verify authenticates rawBody and, only if the signature matches, parses
// it into events
func (v *Verifier) Verify(rawBody []byte, signature string) ([]Event, error) {
	if err := v.Authenticate(rawBody, signature); err != nil {
		return nil, err
	}
	return ParseEvents(rawBody)
}

func digest(rawBody, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(rawBody)
	return mac.Sum(nil)
}

// normalizeSignature undoes the one mangling a query string applies: an
// unescaped '+' decodes to a space.
func normalizeSignature(signature string) ([]byte, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}
	return []byte(strings.ReplaceAll(signature, " ", "+")), nil
}

func isBase64(signature []byte) bool {
	for _, enc := range signatureEncodings {
		if _, err := enc.DecodeString(string(signature)); err == nil {
			return true
		}
	}
	return false
}
