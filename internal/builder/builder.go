// Package builder turns an event template plus a start offset into a fully
// timed Event. All absolute action times are derived from the event's start
// time and each action's declared relative offset; nothing is entered
// independently, which is what upholds the "time >= startTime" invariant.
package builder

import (
	"errors"
	"fmt"
	"time"

	"conductor/internal/model"
)

// ActionTemplate describes a single timeline entry before absolute times are
// assigned. It carries every Action field except the absolute time, plus the
// relative offset used to compute it.
type ActionTemplate struct {
	// ID optionally overrides the generated "action-<n>" identifier.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// RelativeTime is the offset in seconds from the event's startTime.
	// Must be non-negative. Template authors conventionally list actions in
	// non-decreasing RelativeTime order; the builder preserves template
	// order either way and never re-sorts.
	RelativeTime int `yaml:"relativeTime" json:"relativeTime"`

	Action             string              `yaml:"action" json:"action"`
	AudioAnnounce      bool                `yaml:"audioAnnounce" json:"audioAnnounce"`
	AnnounceActionName bool                `yaml:"announceActionName" json:"announceActionName"`
	Style              model.Style         `yaml:"style" json:"style"`
	HapticPattern      model.HapticPattern `yaml:"hapticPattern,omitempty" json:"hapticPattern,omitempty"`
	Color              string              `yaml:"color,omitempty" json:"color,omitempty"`
	Icon               string              `yaml:"icon,omitempty" json:"icon,omitempty"`
	NoticeSeconds      *int                `yaml:"noticeSeconds,omitempty" json:"noticeSeconds,omitempty"`
	CountdownSeconds   []int               `yaml:"countdownSeconds,omitempty" json:"countdownSeconds,omitempty"`
}

// Template is the pre-build representation of an event.
type Template struct {
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description" json:"description"`
	Timezone    string           `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Actions     []ActionTemplate `yaml:"actions" json:"actions"`
}

// ValidationError reports a template that violates a build-time invariant.
// It is raised before any encoding is attempted and never silently corrected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("template: field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("template: field %q has invalid value %q: %s", e.Field, e.Value, e.Reason)
}

// Build constructs an Event whose start time is now(UTC) + startOffset.
// Reading the wall clock is the builder's only side effect.
func Build(tmpl Template, startOffset time.Duration) (*model.Event, error) {
	return BuildAt(tmpl, startOffset, time.Now())
}

// BuildAt is Build with an explicit "now", for deterministic callers and
// tests. Action templates are processed in declaration order: the n-th entry
// (1-based) gets id "action-<n>" unless it carries an explicit ID, and its
// absolute time is startTime + RelativeTime seconds.
func BuildAt(tmpl Template, startOffset time.Duration, now time.Time) (*model.Event, error) {
	if tmpl.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}

	start := model.NewTimestamp(now.Add(startOffset))

	timeline := make([]model.Action, 0, len(tmpl.Actions))
	seen := make(map[string]int, len(tmpl.Actions))

	for i, at := range tmpl.Actions {
		field := func(name string) string {
			return fmt.Sprintf("actions[%d].%s", i, name)
		}

		if at.Action == "" {
			return nil, &ValidationError{Field: field("action"), Reason: "is required"}
		}
		if at.RelativeTime < 0 {
			return nil, &ValidationError{
				Field:  field("relativeTime"),
				Value:  fmt.Sprint(at.RelativeTime),
				Reason: "must be non-negative",
			}
		}

		id := at.ID
		if id == "" {
			id = fmt.Sprintf("action-%d", i+1)
		}
		if prev, dup := seen[id]; dup {
			return nil, &ValidationError{
				Field:  field("id"),
				Value:  id,
				Reason: fmt.Sprintf("duplicates actions[%d].id", prev),
			}
		}
		seen[id] = i

		rel := at.RelativeTime
		timeline = append(timeline, model.Action{
			ID:                 id,
			Time:               start.Add(time.Duration(rel) * time.Second),
			Action:             at.Action,
			AudioAnnounce:      at.AudioAnnounce,
			AnnounceActionName: at.AnnounceActionName,
			Style:              at.Style,
			HapticPattern:      at.HapticPattern,
			Color:              at.Color,
			Icon:               at.Icon,
			NoticeSeconds:      copyIntPtr(at.NoticeSeconds),
			CountdownSeconds:   copyInts(at.CountdownSeconds),
			RelativeTime:       &rel,
		})
	}

	ev := &model.Event{
		Title:       tmpl.Title,
		Description: tmpl.Description,
		StartTime:   start,
		Timezone:    tmpl.Timezone,
		Timeline:    timeline,
	}
	ev.Normalize()

	// Schema-level checks (enum membership, color format, countdown order)
	// apply to built events too; surface them as build-time failures.
	if err := ev.Validate(); err != nil {
		var se *model.SchemaError
		if errors.As(err, &se) {
			return nil, &ValidationError{Field: se.Field, Value: se.Value, Reason: se.Reason}
		}
		return nil, err
	}

	return ev, nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(s))
	copy(out, s)
	return out
}
