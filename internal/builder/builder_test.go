package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conductor/internal/model"
)

var buildNow = time.Date(2026, 8, 31, 17, 58, 0, 0, time.UTC)

func twoActionTemplate() Template {
	return Template{
		Title: "Scenario",
		Actions: []ActionTemplate{
			{RelativeTime: 0, Action: "A", Style: model.StyleNormal},
			{RelativeTime: 20, Action: "B", Style: model.StyleAlert},
		},
	}
}

func TestBuildScenario(t *testing.T) {
	ev, err := BuildAt(twoActionTemplate(), 2*time.Minute, buildNow)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-31T18:00:00Z", ev.StartTime.String())
	require.Len(t, ev.Timeline, 2)

	assert.Equal(t, "action-1", ev.Timeline[0].ID)
	assert.Equal(t, "action-2", ev.Timeline[1].ID)
	assert.True(t, ev.Timeline[0].Time.Equal(ev.StartTime))
	assert.Equal(t, 20*time.Second, ev.Timeline[1].Time.Sub(ev.Timeline[0].Time))
	assert.Equal(t, model.StyleNormal, ev.Timeline[0].Style)
	assert.Equal(t, model.StyleAlert, ev.Timeline[1].Style)
}

func TestBuildTimesNeverBeforeStart(t *testing.T) {
	ev, err := BuildAt(twoActionTemplate(), 5*time.Minute, buildNow)
	require.NoError(t, err)
	for i, a := range ev.Timeline {
		assert.False(t, a.Time.Time().Before(ev.StartTime.Time()), "timeline[%d]", i)
	}
}

func TestBuildMonotonicForSortedTemplate(t *testing.T) {
	tmpl := Template{
		Title: "Sorted",
		Actions: []ActionTemplate{
			{RelativeTime: 0, Action: "a", Style: model.StyleNormal},
			{RelativeTime: 15, Action: "b", Style: model.StyleNormal},
			{RelativeTime: 15, Action: "c", Style: model.StyleNormal},
			{RelativeTime: 90, Action: "d", Style: model.StyleNormal},
		},
	}
	ev, err := BuildAt(tmpl, time.Minute, buildNow)
	require.NoError(t, err)

	for i := 1; i < len(ev.Timeline); i++ {
		assert.False(t, ev.Timeline[i].Time.Time().Before(ev.Timeline[i-1].Time.Time()), "timeline[%d]", i)
	}
}

func TestBuildPreservesDeclarationOrder(t *testing.T) {
	// Out-of-order offsets are unusual but legal; the builder must not
	// re-sort them.
	tmpl := Template{
		Title: "Unsorted",
		Actions: []ActionTemplate{
			{RelativeTime: 30, Action: "late first", Style: model.StyleNormal},
			{RelativeTime: 0, Action: "early second", Style: model.StyleNormal},
		},
	}
	ev, err := BuildAt(tmpl, time.Minute, buildNow)
	require.NoError(t, err)

	assert.Equal(t, "late first", ev.Timeline[0].Action)
	assert.Equal(t, "early second", ev.Timeline[1].Action)
	assert.Equal(t, "action-1", ev.Timeline[0].ID)
}

func TestBuildRelativeTimePassthrough(t *testing.T) {
	ev, err := BuildAt(twoActionTemplate(), time.Minute, buildNow)
	require.NoError(t, err)

	require.NotNil(t, ev.Timeline[1].RelativeTime)
	assert.Equal(t, 20, *ev.Timeline[1].RelativeTime)
	require.NotNil(t, ev.Timeline[0].RelativeTime)
	assert.Equal(t, 0, *ev.Timeline[0].RelativeTime)
}

func TestBuildCopiesOptionalFields(t *testing.T) {
	notice := 10
	countdown := []int{5, 3, 2, 1}
	tmpl := Template{
		Title: "Copy",
		Actions: []ActionTemplate{{
			RelativeTime:     0,
			Action:           "a",
			Style:            model.StyleNormal,
			NoticeSeconds:    &notice,
			CountdownSeconds: countdown,
		}},
	}
	ev, err := BuildAt(tmpl, time.Minute, buildNow)
	require.NoError(t, err)

	// Mutating the template after build must not reach into the event.
	notice = 99
	countdown[0] = 99
	assert.Equal(t, 10, *ev.Timeline[0].NoticeSeconds)
	assert.Equal(t, []int{5, 3, 2, 1}, ev.Timeline[0].CountdownSeconds)
}

func TestBuildRejections(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  Template
		field string
	}{
		{
			"empty title",
			Template{Actions: []ActionTemplate{{RelativeTime: 0, Action: "a", Style: model.StyleNormal}}},
			"title",
		},
		{
			"negative relative time",
			Template{Title: "t", Actions: []ActionTemplate{
				{RelativeTime: -1, Action: "a", Style: model.StyleNormal},
			}},
			"actions[0].relativeTime",
		},
		{
			"empty action text",
			Template{Title: "t", Actions: []ActionTemplate{
				{RelativeTime: 0, Action: "", Style: model.StyleNormal},
			}},
			"actions[0].action",
		},
		{
			"duplicate explicit id",
			Template{Title: "t", Actions: []ActionTemplate{
				{ID: "cue", RelativeTime: 0, Action: "a", Style: model.StyleNormal},
				{ID: "cue", RelativeTime: 5, Action: "b", Style: model.StyleNormal},
			}},
			"actions[1].id",
		},
		{
			"explicit id colliding with generated id",
			Template{Title: "t", Actions: []ActionTemplate{
				{RelativeTime: 0, Action: "a", Style: model.StyleNormal},
				{ID: "action-1", RelativeTime: 5, Action: "b", Style: model.StyleNormal},
			}},
			"actions[1].id",
		},
		{
			"unknown style",
			Template{Title: "t", Actions: []ActionTemplate{
				{RelativeTime: 0, Action: "a", Style: "shouty"},
			}},
			"timeline[0].style",
		},
		{
			"bad color",
			Template{Title: "t", Actions: []ActionTemplate{
				{RelativeTime: 0, Action: "a", Style: model.StyleNormal, Color: "blue"},
			}},
			"timeline[0].color",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildAt(tc.tmpl, time.Minute, buildNow)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestBuildEmptyTimeline(t *testing.T) {
	ev, err := BuildAt(Template{Title: "No actions"}, time.Minute, buildNow)
	require.NoError(t, err)
	require.NotNil(t, ev.Timeline)
	assert.Len(t, ev.Timeline, 0)
}

func TestBuildUsesWallClock(t *testing.T) {
	before := time.Now()
	ev, err := Build(twoActionTemplate(), 2*time.Minute)
	require.NoError(t, err)
	after := time.Now()

	start := ev.StartTime.Time()
	assert.False(t, start.Before(before.Add(2*time.Minute).Truncate(time.Second)))
	assert.False(t, start.After(after.Add(2*time.Minute)))
}
