// Package ics exports a built event as an iCalendar file so the cue sheet
// can be previewed in a desktop calendar before the event runs.
package ics

import (
	"errors"
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"

	"conductor/internal/model"
)

// actionSlot is the nominal duration a cue occupies in the exported
// calendar; actions are instants, but zero-length VEVENTs render poorly.
const actionSlot = 10 * time.Second

// Export serializes the event's timeline as an iCalendar document with one
// VEVENT per action. Timeline order is carried by the action times
// themselves; iCalendar has no ordering of its own.
func Export(ev *model.Event) (string, error) {
	if ev == nil {
		return "", errors.New("ics: event is nil")
	}
	if err := ev.Validate(); err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//conductor//timeline export//EN")

	for i, a := range ev.Timeline {
		ve := cal.AddEvent(fmt.Sprintf("%s@conductor", a.ID))
		ve.SetDtStampTime(ev.StartTime.Time())
		ve.SetStartAt(a.Time.Time())

		end := a.Time.Time().Add(actionSlot)
		if i+1 < len(ev.Timeline) {
			if next := ev.Timeline[i+1].Time.Time(); next.After(a.Time.Time()) && next.Before(end) {
				end = next
			}
		}
		ve.SetEndAt(end)

		summary := a.Action
		if a.Icon != "" {
			summary = a.Icon + " " + a.Action
		}
		ve.SetSummary(summary)
		ve.SetDescription(ev.Title)
	}

	return cal.Serialize(), nil
}

// WriteFile exports ev to an .ics file at path.
func WriteFile(path string, ev *model.Event) error {
	doc, err := Export(ev)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("ics: write %s: %w", path, err)
	}
	return nil
}
