package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conductor/internal/builder"
	"conductor/internal/model"
	"conductor/internal/template"
)

var tokenAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// encodePayload wraps arbitrary bytes the way Encode would, so tests can
// craft schema-invalid but transport-valid tokens.
func encodePayload(t *testing.T, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return base64.RawURLEncoding.EncodeToString(buf.Bytes())
}

func representativeEvent(t *testing.T) *model.Event {
	t.Helper()
	tmpl, err := template.Builtin("inaugural")
	require.NoError(t, err)
	ev, err := builder.BuildAt(tmpl, 2*time.Minute, time.Date(2026, 8, 31, 17, 58, 0, 0, time.UTC))
	require.NoError(t, err)
	return ev
}

func TestRoundTrip(t *testing.T) {
	ev := representativeEvent(t)

	token, err := Encode(ev)
	require.NoError(t, err)

	back, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, ev, back)

	// Timeline order is load-bearing; make it explicit beyond deep equality.
	for i := range ev.Timeline {
		assert.Equal(t, ev.Timeline[i].ID, back.Timeline[i].ID, "timeline[%d]", i)
	}
}

func TestRoundTripEmptyTimeline(t *testing.T) {
	ev := &model.Event{
		Title:     "Quiet",
		StartTime: model.NewTimestamp(time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)),
		Timeline:  []model.Action{},
	}

	token, err := Encode(ev)
	require.NoError(t, err)

	back, err := Decode(token)
	require.NoError(t, err)
	require.NotNil(t, back.Timeline)
	assert.Len(t, back.Timeline, 0)
}

func TestRoundTripNilTimelineBecomesEmpty(t *testing.T) {
	ev := &model.Event{
		Title:     "Quiet",
		StartTime: model.NewTimestamp(time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)),
	}

	token, err := Encode(ev)
	require.NoError(t, err)
	// Encode must not mutate the caller's event.
	assert.Nil(t, ev.Timeline)

	back, err := Decode(token)
	require.NoError(t, err)
	require.NotNil(t, back.Timeline)
	assert.Len(t, back.Timeline, 0)
}

func TestRoundTripOptionalFieldsStayAbsent(t *testing.T) {
	ev := &model.Event{
		Title:     "Minimal",
		StartTime: model.NewTimestamp(time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)),
		Timeline: []model.Action{{
			ID:     "action-1",
			Time:   model.NewTimestamp(time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)),
			Action: "Wave",
			Style:  model.StyleNormal,
		}},
	}

	token, err := Encode(ev)
	require.NoError(t, err)

	back, err := Decode(token)
	require.NoError(t, err)

	a := back.Timeline[0]
	assert.Empty(t, a.Color)
	assert.Empty(t, a.Icon)
	assert.Empty(t, a.HapticPattern)
	assert.Nil(t, a.NoticeSeconds)
	assert.Nil(t, a.CountdownSeconds)
	assert.Nil(t, a.RelativeTime)
}

func TestTokenAlphabet(t *testing.T) {
	ev := representativeEvent(t)
	token, err := Encode(ev)
	require.NoError(t, err)
	assert.Regexp(t, tokenAlphabet, token)
	assert.NotContains(t, token, "=")
}

func TestCompressionActuallyApplied(t *testing.T) {
	ev := representativeEvent(t)

	token, err := Encode(ev)
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	uncompressed := base64.RawURLEncoding.EncodeToString(raw)

	assert.Less(t, len(token), len(uncompressed),
		"encoded token should be smaller than uncompressed base64 for a repeated-structure event")
}

func TestDecodeToleratesPadding(t *testing.T) {
	ev := representativeEvent(t)
	token, err := Encode(ev)
	require.NoError(t, err)

	padded := token
	for len(padded)%4 != 0 {
		padded += "="
	}

	back, err := Decode(padded)
	require.NoError(t, err)
	assert.Equal(t, ev, back)
}

func TestDecodeCorruptPayloads(t *testing.T) {
	notGzip := base64.RawURLEncoding.EncodeToString([]byte("plain text, no gzip header"))

	full, err := Encode(representativeEvent(t))
	require.NoError(t, err)
	// Keep the cut on a 4-char boundary so the base64 layer still decodes
	// and the gzip layer is what sees the truncation.
	truncated := full[:(len(full)/2)&^3]

	tests := []struct {
		name  string
		token string
		stage string
	}{
		{"empty token", "", "base64"},
		{"invalid base64 characters", "not*valid*base64!", "base64"},
		{"valid base64 but not gzip", notGzip, "gzip"},
		{"truncated stream", truncated, "gzip"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.token)
			require.Error(t, err)

			var cpe *CorruptPayloadError
			require.ErrorAs(t, err, &cpe)
			assert.Equal(t, tc.stage, cpe.Stage)
		})
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{
			"missing title",
			`{"startTime":"2026-08-31T18:00:00Z","timeline":[]}`,
			"title",
		},
		{
			"unknown style",
			`{"title":"t","startTime":"2026-08-31T18:00:00Z","timeline":[
				{"id":"action-1","time":"2026-08-31T18:00:00Z","action":"a",
				 "audioAnnounce":true,"announceActionName":true,"style":"shiny"}]}`,
			"timeline[0].style",
		},
		{
			"unknown haptic pattern",
			`{"title":"t","startTime":"2026-08-31T18:00:00Z","timeline":[
				{"id":"action-1","time":"2026-08-31T18:00:00Z","action":"a",
				 "audioAnnounce":false,"announceActionName":false,"style":"normal",
				 "hapticPattern":"quad"}]}`,
			"timeline[0].hapticPattern",
		},
		{
			"duplicate action ids",
			`{"title":"t","startTime":"2026-08-31T18:00:00Z","timeline":[
				{"id":"x","time":"2026-08-31T18:00:00Z","action":"a","audioAnnounce":false,"announceActionName":false,"style":"normal"},
				{"id":"x","time":"2026-08-31T18:00:05Z","action":"b","audioAnnounce":false,"announceActionName":false,"style":"normal"}]}`,
			"timeline[1].id",
		},
		{
			"non-monotonic countdown",
			`{"title":"t","startTime":"2026-08-31T18:00:00Z","timeline":[
				{"id":"x","time":"2026-08-31T18:00:00Z","action":"a","audioAnnounce":false,"announceActionName":false,"style":"normal",
				 "countdownSeconds":[1,3,5]}]}`,
			"timeline[0].countdownSeconds",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := encodePayload(t, []byte(tc.payload))

			_, err := Decode(token)
			require.Error(t, err)

			var se *model.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestDecodeMalformedTimestamp(t *testing.T) {
	token := encodePayload(t, []byte(`{"title":"t","startTime":"tomorrow-ish","timeline":[]}`))

	_, err := Decode(token)
	require.Error(t, err)

	var se *model.SchemaError
	require.ErrorAs(t, err, &se)
}

func TestDecodeNonJSONPayload(t *testing.T) {
	token := encodePayload(t, []byte("this is gzip but not json"))

	_, err := Decode(token)
	require.Error(t, err)

	var se *model.SchemaError
	require.ErrorAs(t, err, &se)
}

func TestEncodeRejectsInvalidEvent(t *testing.T) {
	ev := &model.Event{StartTime: model.NewTimestamp(time.Now())}

	_, err := Encode(ev)
	require.Error(t, err)

	var se *model.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "title", se.Field)
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
