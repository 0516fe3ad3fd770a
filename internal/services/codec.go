package services

import (
	"encoding/base64"
	"strings"
)

// EncodePayload base64-encodes text for transport to the execution engine.
func EncodePayload(text string) string {
	if text == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodePayload reverses EncodePayload. Malformed input is returned unchanged.
func DecodePayload(blob string) string {
	if blob == "" {
		return ""
	}
	// the engine wraps long payloads
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(blob)
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return blob
	}
	return string(decoded)
}
