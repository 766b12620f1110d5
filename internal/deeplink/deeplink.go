// Package deeplink builds and parses the conductor://event/<token> URI that
// carries an encoded event to the mobile client.
package deeplink

import (
	"fmt"
	"strings"

	"conductor/internal/codec"
	"conductor/internal/model"
)

// Scheme is the custom URI scheme registered by the mobile client.
const Scheme = "conductor"

// EventPrefix is the fixed literal preceding the opaque token.
const EventPrefix = Scheme + "://event/"

// EventURL wraps an encoded token in the deep-link form. The same string is
// used verbatim as the QR payload; no additional framing is applied.
func EventURL(token string) string {
	return EventPrefix + token
}

// ParseEventURL extracts the opaque token from a deep-link URI. Everything
// after the fixed prefix is the token; no token characters are interpreted.
func ParseEventURL(uri string) (string, error) {
	token, ok := strings.CutPrefix(uri, EventPrefix)
	if !ok {
		return "", fmt.Errorf("deeplink: %q does not start with %q", uri, EventPrefix)
	}
	if token == "" {
		return "", fmt.Errorf("deeplink: %q carries an empty token", uri)
	}
	return token, nil
}

// Decode accepts either a full deep-link URI or a bare token and returns the
// reconstructed event. This is the consuming client's receive path.
func Decode(s string) (*model.Event, error) {
	if strings.HasPrefix(s, EventPrefix) {
		token, err := ParseEventURL(s)
		if err != nil {
			return nil, err
		}
		return codec.Decode(token)
	}
	return codec.Decode(s)
}
