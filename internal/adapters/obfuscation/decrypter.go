package obfuscation

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Base64Decrypter reverses the payload wrapping the remote API applies to
// responses flagged as encrypted: the JSON document arrives as a single
// base64 blob.
type Base64Decrypter struct{}

// NewBase64Decrypter creates the decrypter.
func NewBase64Decrypter() *Base64Decrypter {
	return &Base64Decrypter{}
}

// Decrypt decodes the raw payload back into plain text.
func (d *Base64Decrypter) Decrypt(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(bytes.Trim(bytes.TrimSpace(raw), `"`))
	out := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.StdEncoding.Decode(out, trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return out[:n], nil
}
