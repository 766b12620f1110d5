package model

import (
	"fmt"
	"regexp"
	"time"
)

// TimeLayout is the wire format for all timestamps: UTC, second precision,
// trailing Z. Both startTime and per-action times use this layout.
const TimeLayout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC wall-clock time with second precision. It marshals to
// and from the fixed TimeLayout form; any other textual form is rejected at
// the schema boundary.
type Timestamp struct {
	t time.Time
}

// NewTimestamp normalizes t to UTC and truncates it to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// ParseTimestamp parses s against TimeLayout.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("model: invalid timestamp %q: %w", s, err)
	}
	return Timestamp{t: t}, nil
}

// Time returns the underlying time.Time (UTC).
func (ts Timestamp) Time() time.Time { return ts.t }

func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// Add returns a new Timestamp offset by d (truncated to whole seconds).
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return NewTimestamp(ts.t.Add(d))
}

// Sub returns the duration ts - other.
func (ts Timestamp) Sub(other Timestamp) time.Duration { return ts.t.Sub(other.t) }

func (ts Timestamp) String() string { return ts.t.UTC().Format(TimeLayout) }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("model: timestamp must be a string, got %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Style controls the presentation weight of an action. The set is closed;
// unknown values are rejected at the schema boundary rather than coerced.
type Style string

const (
	StyleNormal   Style = "normal"
	StyleEmphasis Style = "emphasis"
	StyleAlert    Style = "alert"
)

func (s Style) Valid() bool {
	switch s {
	case StyleNormal, StyleEmphasis, StyleAlert:
		return true
	}
	return false
}

// HapticPattern selects the vibration feedback played when an action fires.
// Empty means no haptic feedback.
type HapticPattern string

const (
	HapticSingle HapticPattern = "single"
	HapticDouble HapticPattern = "double"
	HapticTriple HapticPattern = "triple"
)

func (h HapticPattern) Valid() bool {
	switch h {
	case HapticSingle, HapticDouble, HapticTriple:
		return true
	}
	return false
}

// Action is a single timed instruction within an event timeline.
//
// Optional fields use pointer/omitempty forms so that "absent" survives a
// round trip distinct from "present with zero value".
type Action struct {
	// ID uniquely identifies the action within its event. The builder
	// assigns "action-<n>" but the codec treats it as an opaque string;
	// uniqueness is the only enforced invariant.
	ID string `json:"id"`

	// Time is the absolute UTC trigger time.
	Time Timestamp `json:"time"`

	// Action is the human-readable instruction text.
	Action string `json:"action"`

	AudioAnnounce      bool `json:"audioAnnounce"`
	AnnounceActionName bool `json:"announceActionName"`

	Style         Style         `json:"style"`
	HapticPattern HapticPattern `json:"hapticPattern,omitempty"`

	// Color is an optional #RRGGBB display color; absent means client default.
	Color string `json:"color,omitempty"`

	// Icon is an optional short glyph or label shown alongside the action.
	Icon string `json:"icon,omitempty"`

	// NoticeSeconds, if present, asks the client to surface an advance
	// warning that many seconds before Time.
	NoticeSeconds *int `json:"noticeSeconds,omitempty"`

	// CountdownSeconds names second-marks before Time at which the client
	// emits countdown ticks. Values must be non-negative and strictly
	// decreasing; empty/absent means no countdown.
	CountdownSeconds []int `json:"countdownSeconds,omitempty"`

	// RelativeTime is an optional passthrough of the template offset (in
	// seconds from startTime). The builder fills it for client convenience;
	// it is not required by the transport schema.
	RelativeTime *int `json:"relativeTime,omitempty"`
}

// Event is a titled, timed collection of ordered actions plus display
// metadata. Timeline order is presentation order and is preserved through
// encode/decode. An Event is immutable once built.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// StartTime is the absolute UTC start of the event.
	StartTime Timestamp `json:"startTime"`

	// Timezone is an IANA zone name used only for client-side display of
	// StartTime; it does not affect the stored UTC values.
	Timezone string `json:"timezone,omitempty"`

	Timeline []Action `json:"timeline"`
}

// SchemaError reports the first schema violation found in a decoded or
// validated event: a missing required field or a value outside its declared
// enumeration or range.
type SchemaError struct {
	Field  string // JSON path of the offending field, e.g. "timeline[2].style"
	Value  string // offending value, empty for missing fields
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("schema: field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema: field %q has invalid value %q: %s", e.Field, e.Value, e.Reason)
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Normalize fills structural defaults that do not affect meaning. A nil
// timeline becomes an empty one so that "no actions" always encodes as [].
func (e *Event) Normalize() {
	if e.Timeline == nil {
		e.Timeline = []Action{}
	}
}

// Validate checks the event against the transport schema and returns a
// *SchemaError describing the first violation, or nil. It never mutates the
// event and never returns a partial result.
func (e *Event) Validate() error {
	if e.Title == "" {
		return &SchemaError{Field: "title", Reason: "is required"}
	}
	if e.StartTime.IsZero() {
		return &SchemaError{Field: "startTime", Reason: "is required"}
	}

	seen := make(map[string]int, len(e.Timeline))
	for i, a := range e.Timeline {
		if err := validateAction(i, a, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateAction(i int, a Action, seen map[string]int) error {
	field := func(name string) string {
		return fmt.Sprintf("timeline[%d].%s", i, name)
	}

	if a.ID == "" {
		return &SchemaError{Field: field("id"), Reason: "is required"}
	}
	if prev, dup := seen[a.ID]; dup {
		return &SchemaError{
			Field:  field("id"),
			Value:  a.ID,
			Reason: fmt.Sprintf("duplicates timeline[%d].id", prev),
		}
	}
	seen[a.ID] = i

	if a.Time.IsZero() {
		return &SchemaError{Field: field("time"), Reason: "is required"}
	}
	if a.Action == "" {
		return &SchemaError{Field: field("action"), Reason: "is required"}
	}
	if !a.Style.Valid() {
		if a.Style == "" {
			return &SchemaError{Field: field("style"), Reason: "is required"}
		}
		return &SchemaError{
			Field:  field("style"),
			Value:  string(a.Style),
			Reason: "must be one of normal, emphasis, alert",
		}
	}
	if a.HapticPattern != "" && !a.HapticPattern.Valid() {
		return &SchemaError{
			Field:  field("hapticPattern"),
			Value:  string(a.HapticPattern),
			Reason: "must be one of single, double, triple",
		}
	}
	if a.Color != "" && !colorPattern.MatchString(a.Color) {
		return &SchemaError{
			Field:  field("color"),
			Value:  a.Color,
			Reason: "must match #RRGGBB",
		}
	}
	if a.NoticeSeconds != nil && *a.NoticeSeconds < 0 {
		return &SchemaError{
			Field:  field("noticeSeconds"),
			Value:  fmt.Sprint(*a.NoticeSeconds),
			Reason: "must be non-negative",
		}
	}
	if a.RelativeTime != nil && *a.RelativeTime < 0 {
		return &SchemaError{
			Field:  field("relativeTime"),
			Value:  fmt.Sprint(*a.RelativeTime),
			Reason: "must be non-negative",
		}
	}
	for j, sec := range a.CountdownSeconds {
		if sec < 0 {
			return &SchemaError{
				Field:  field("countdownSeconds"),
				Value:  fmt.Sprint(sec),
				Reason: "must be non-negative",
			}
		}
		if j > 0 && sec >= a.CountdownSeconds[j-1] {
			return &SchemaError{
				Field:  field("countdownSeconds"),
				Value:  fmt.Sprint(sec),
				Reason: "must be strictly decreasing",
			}
		}
	}
	return nil
}
