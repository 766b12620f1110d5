// Package report prints the operator-facing console summary for a generated
// event: timeline listing, encoded-token stats, deep link, optional terminal
// QR and testing instructions.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"conductor/internal/model"
)

const rule = "============================================================"

// Options selects the optional report sections.
type Options struct {
	URL     string // deep-link URL
	Token   string // raw encoded token, printed for manual QR generation
	QRPath  string // path of the written PNG, if any
	ICSPath string // path of the written .ics export, if any
	ASCIIQR string // pre-rendered terminal QR, empty to skip

	// Instructions appends the scan/install walkthrough.
	Instructions bool
}

// Write renders the full report for ev to w.
func Write(w io.Writer, ev *model.Event, opts Options) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  CONDUCTOR - %s\n", strings.ToUpper(ev.Title))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Event:    %s\n", ev.Title)
	fmt.Fprintf(w, "  Starts:   %s\n", ev.StartTime)
	if ev.Timezone != "" {
		fmt.Fprintf(w, "  Timezone: %s (display only)\n", ev.Timezone)
	}
	fmt.Fprintf(w, "  Actions:  %d\n", len(ev.Timeline))
	if n := len(ev.Timeline); n > 0 {
		last := ev.Timeline[n-1].Time.Sub(ev.StartTime)
		fmt.Fprintf(w, "  Duration: ~%d seconds\n", int(last.Seconds()))
	}
	fmt.Fprintln(w)

	if len(ev.Timeline) > 0 {
		fmt.Fprintln(w, "  TIMELINE:")
		WriteTimeline(w, ev)
		fmt.Fprintln(w)
	}

	if opts.Token != "" {
		fmt.Fprintln(w, "  ENCODED DATA:")
		fmt.Fprintf(w, "    Length: %d characters\n", len(opts.Token))
		fmt.Fprintln(w)
	}
	if opts.URL != "" {
		fmt.Fprintln(w, "  DEEP LINK URL:")
		fmt.Fprintf(w, "    %s\n", opts.URL)
		fmt.Fprintln(w)
	}
	if opts.QRPath != "" {
		fmt.Fprintf(w, "  QR Code: %s\n\n", opts.QRPath)
	}
	if opts.ICSPath != "" {
		fmt.Fprintf(w, "  Calendar export: %s\n\n", opts.ICSPath)
	}
	if opts.ASCIIQR != "" {
		fmt.Fprintln(w, "  QR CODE:")
		fmt.Fprintln(w)
		fmt.Fprint(w, opts.ASCIIQR)
		fmt.Fprintln(w)
	}
	if opts.Token != "" {
		fmt.Fprintln(w, "  RAW ENCODED DATA (paste into any QR generator):")
		fmt.Fprintln(w)
		fmt.Fprintln(w, opts.Token)
		fmt.Fprintln(w)
	}

	if opts.Instructions {
		writeInstructions(w)
	}
}

// WriteTimeline prints one aligned row per action with its offset from the
// event start.
func WriteTimeline(w io.Writer, ev *model.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range ev.Timeline {
		offset := int(a.Time.Sub(ev.StartTime).Seconds())
		fmt.Fprintf(tw, "    +%ds\t%s\t%s\n", offset, truncate(a.Action, 50), badges(a))
	}
	tw.Flush()
}

// badges summarizes an action's presentation hints in a compact suffix.
func badges(a model.Action) string {
	parts := []string{string(a.Style)}
	if a.HapticPattern != "" {
		parts = append(parts, "haptic:"+string(a.HapticPattern))
	}
	if a.NoticeSeconds != nil {
		parts = append(parts, fmt.Sprintf("notice:%ds", *a.NoticeSeconds))
	}
	if len(a.CountdownSeconds) > 0 {
		parts = append(parts, fmt.Sprintf("countdown:%d", len(a.CountdownSeconds)))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func writeInstructions(w io.Writer) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  TESTING INSTRUCTIONS:")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. If a QR code displayed above, scan it with the Conductor app")
	fmt.Fprintln(w, "  2. OR copy the raw encoded data into any QR generator and")
	fmt.Fprintln(w, "     prefix it with 'conductor://event/'")
	fmt.Fprintln(w, "  3. OR type the deep link URL into Chrome on Android")
	fmt.Fprintln(w, "     (Chrome will open the Conductor app)")
	fmt.Fprintln(w)
}
