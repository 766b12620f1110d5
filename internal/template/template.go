// Package template provides the built-in event templates and loads
// user-supplied templates from YAML files. Loaded templates are plain
// builder inputs; all validation happens at build time.
package template

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"conductor/internal/builder"
	"conductor/internal/model"
)

// Builtin returns a copy of the named built-in template. Known names are
// "inaugural", "diagnostic" and "smoke".
func Builtin(name string) (builder.Template, error) {
	switch name {
	case "inaugural":
		return inaugural(), nil
	case "diagnostic":
		return diagnostic(), nil
	case "smoke":
		return Smoke(15), nil
	}
	return builder.Template{}, fmt.Errorf("template: unknown built-in %q (have %v)", name, Names())
}

// Names lists the built-in template names in stable order.
func Names() []string {
	return []string{"diagnostic", "inaugural", "smoke"}
}

// LoadFile reads a template from a YAML file. Unknown keys are rejected so a
// typo in an optional field name fails loudly instead of silently dropping
// the field.
func LoadFile(path string) (builder.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return builder.Template{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML template bytes.
func Parse(data []byte) (builder.Template, error) {
	var tmpl builder.Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return builder.Template{}, fmt.Errorf("template: parse: %w", err)
	}
	return tmpl, nil
}

// Smoke builds the quick end-to-end test template: six short instructions
// separated by intervalSeconds, exercising announcements and all three
// haptic patterns.
func Smoke(intervalSeconds int) builder.Template {
	type entry struct {
		text  string
		style model.Style
	}
	entries := []entry{
		{"Raise hand", model.StyleEmphasis},
		{"Wave slowly", model.StyleNormal},
		{"Clap once", model.StyleAlert},
		{"Turn around", model.StyleNormal},
		{"Take a step forward", model.StyleNormal},
		{"Final pose", model.StyleEmphasis},
	}

	actions := make([]builder.ActionTemplate, 0, len(entries))
	for i, e := range entries {
		haptic := model.HapticTriple
		if e.style == model.StyleNormal {
			haptic = model.HapticDouble
		}
		actions = append(actions, builder.ActionTemplate{
			RelativeTime:       i * intervalSeconds,
			Action:             e.text,
			AudioAnnounce:      true,
			AnnounceActionName: true,
			Style:              e.style,
			HapticPattern:      haptic,
		})
	}

	return builder.Template{
		Title:       "Test Flash Mob",
		Description: "A test event for Conductor Mobile development",
		Timezone:    "America/New_York",
		Actions:     actions,
	}
}

func inaugural() builder.Template {
	return builder.Template{
		Title:       "Pantheon Inaugural",
		Description: "Your AI assistants present: a demonstration of synchronized coordination.",
		Timezone:    "America/Denver",
		Actions: []builder.ActionTemplate{
			{
				RelativeTime: 0, Action: "Take a deep breath. The Pantheon is online.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticSingle,
				Color: "#9C27B0", Icon: "🏛️",
				NoticeSeconds: intPtr(15), CountdownSeconds: []int{10, 5, 3, 2, 1},
			},
			{
				RelativeTime: 20, Action: "Raise your phone like a torch. You are the conductor now.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticDouble,
				Color: "#FF9800", Icon: "🔥",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 3, 2, 1},
			},
			{
				RelativeTime: 40, Action: "Look left, then right. You're part of something bigger.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleNormal, HapticPattern: model.HapticSingle,
				Color: "#2196F3", Icon: "👀",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 3, 2, 1},
			},
			{
				RelativeTime: 60, Action: "Clap once. The signal has been sent.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleAlert, HapticPattern: model.HapticTriple,
				Color: "#4CAF50", Icon: "👏",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 3, 2, 1},
			},
			{
				RelativeTime: 80, Action: "Final pose: arms crossed, slight nod. Test complete.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticDouble,
				Color: "#E91E63", Icon: "✨",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 3, 2, 1},
			},
		},
	}
}

func diagnostic() builder.Template {
	return builder.Template{
		Title:       "Pantheon Node Initialization",
		Description: "System diagnostic and welcome sequence for Conductor mobile node.",
		Timezone:    "America/Denver",
		Actions: []builder.ActionTemplate{
			{
				RelativeTime: 0, Action: "System Link Established",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleNormal, HapticPattern: model.HapticSingle,
				Color: "#4CAF50", Icon: "🔗",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 3, 2, 1},
			},
			{
				RelativeTime: 30, Action: "Audio Channel Diagnostic",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticDouble,
				Color: "#2196F3", Icon: "🔊",
				NoticeSeconds: intPtr(5), CountdownSeconds: []int{3, 2, 1},
			},
			{
				RelativeTime: 60, Action: "Haptic Array Stress Test",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleAlert, HapticPattern: model.HapticTriple,
				Color: "#FF9800", Icon: "📳",
				NoticeSeconds: intPtr(5), CountdownSeconds: []int{3, 2, 1},
			},
			{
				RelativeTime: 90, Action: "Visual Synchronization",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticTriple,
				Color: "#F44336", Icon: "👁️",
				NoticeSeconds: intPtr(5), CountdownSeconds: []int{3, 2, 1},
			},
			{
				RelativeTime: 120, Action: "Welcome to the Network, Operator.",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleEmphasis, HapticPattern: model.HapticDouble,
				Color: "#9C27B0", Icon: "🏛️",
				NoticeSeconds: intPtr(10), CountdownSeconds: []int{5, 4, 3, 2, 1},
			},
			{
				RelativeTime: 150, Action: "Entering Standby Mode",
				AudioAnnounce: true, AnnounceActionName: true,
				Style: model.StyleNormal, HapticPattern: model.HapticSingle,
				Color: "#607D8B", Icon: "💤",
				NoticeSeconds: intPtr(5), CountdownSeconds: []int{3, 2, 1},
			},
		},
	}
}

func intPtr(n int) *int { return &n }
