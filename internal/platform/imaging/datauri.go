package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI and returns its bytes and mime type.
func ParseDataURI(value string) ([]byte, string, error) {
	raw := strings.TrimSpace(value)
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	comma := strings.Index(raw, ",")
	if comma <= len("data:") {
		return nil, "", fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	meta := raw[len("data:"):comma]
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, "", fmt.Errorf("%w: payload must be base64", ErrInvalidDataURI)
	}
	mimeType := strings.TrimSpace(meta[:len(meta)-len(";base64")])
	if mimeType == "" {
		return nil, "", fmt.Errorf("%w: missing mime type", ErrInvalidDataURI)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(decoded) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return decoded, mimeType, nil
}

// StripDataURIPrefix returns the encoded payload of a data URI. Values without
// a prefix are returned as given.
func StripDataURIPrefix(value string) string {
	raw := strings.TrimSpace(value)
	if !strings.HasPrefix(raw, "data:") {
		return raw
	}
	if comma := strings.Index(raw, ","); comma >= 0 {
		return raw[comma+1:]
	}
	return raw
}
