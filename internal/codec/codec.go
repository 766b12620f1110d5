// Package codec implements the transport encoding for events: canonical
// compact JSON, gzip-compressed, then URL-safe base64 without padding. The
// resulting token contains only [A-Za-z0-9_-] and is safe inside a URI path
// segment and a QR payload. Decode is the exact inverse and reconstructs a
// structurally equal event, timeline order included.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"conductor/internal/model"
)

// CorruptPayloadError indicates a token whose transport layers could not be
// undone: invalid base64 content or a truncated/foreign compressed stream.
// Not retryable; the event inside, if any, is unrecoverable.
type CorruptPayloadError struct {
	Stage string // "base64" or "gzip"
	Err   error
}

func (e *CorruptPayloadError) Error() string {
	return fmt.Sprintf("codec: corrupt payload (%s): %v", e.Stage, e.Err)
}

func (e *CorruptPayloadError) Unwrap() error { return e.Err }

// Encode serializes ev to compact JSON, compresses it with gzip and encodes
// the bytes as unpadded URL-safe base64. The event is validated first so a
// malformed value fails here rather than on some future decode.
func Encode(ev *model.Event) (string, error) {
	if ev == nil {
		return "", errors.New("codec: event is nil")
	}

	// Work on a shallow copy so an absent timeline can be normalized to []
	// without mutating the caller's (immutable) event.
	e := *ev
	e.Normalize()

	if err := e.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return "", fmt.Errorf("codec: marshal failed: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return "", fmt.Errorf("codec: compress failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("codec: compress failed: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode is the exact inverse of Encode. Padded tokens are tolerated
// (trailing '=' is stripped before decoding). Failures are reported as
// *CorruptPayloadError when a transport layer cannot be undone, or as
// *model.SchemaError when the decompressed text does not conform to the
// event schema. A partial event is never returned.
func Decode(token string) (*model.Event, error) {
	if token == "" {
		return nil, &CorruptPayloadError{Stage: "base64", Err: errors.New("empty token")}
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, &CorruptPayloadError{Stage: "base64", Err: err}
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &CorruptPayloadError{Stage: "gzip", Err: err}
	}
	data, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &CorruptPayloadError{Stage: "gzip", Err: err}
	}

	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, schemaErrorFromJSON(err)
	}
	ev.Normalize()

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// schemaErrorFromJSON maps a json.Unmarshal failure onto a SchemaError,
// keeping the field path when the JSON layer knows it.
func schemaErrorFromJSON(err error) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "event"
		}
		return &model.SchemaError{
			Field:  field,
			Value:  ute.Value,
			Reason: fmt.Sprintf("cannot be decoded as %s", ute.Type),
		}
	}
	return &model.SchemaError{Field: "event", Reason: err.Error()}
}
