package replay

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ayusman/padam/internal/gesture"
)

// Match pairs an expectation with the event that satisfied it.
type Match struct {
	Expectation Expectation   `json:"expectation"`
	Event       gesture.Event `json:"event"`
}

// Report is the outcome of replaying one recording.
type Report struct {
	Name       string          `json:"name"`
	Frames     int             `json:"frames"`
	Events     []gesture.Event `json:"events"`
	Matched    []Match         `json:"matched"`
	Missed     []Expectation   `json:"missed"`
	Unexpected []gesture.Event `json:"unexpected"`
}

// OK reports whether every expectation matched and nothing else fired.
func (r *Report) OK() bool {
	return len(r.Missed) == 0 && len(r.Unexpected) == 0
}

// Run replays rec through a fresh arbiter built from cfg.
func Run(cfg gesture.Config, rec *Recording, opts ...gesture.Option) (*Report, error) {
	a, err := gesture.NewArbiter(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create arbiter: %w", err)
	}
	defer a.Close()

	var events []gesture.Event
	for _, s := range rec.Samples {
		if ev, ok := a.Process(s); ok {
			events = append(events, ev)
		}
	}

	report := &Report{Name: rec.Name, Frames: len(rec.Samples), Events: events}
	report.match(rec.Expect)
	return report, nil
}

// RunPreset replays rec with the preset it names, or fallback when it names
// none.
func RunPreset(rec *Recording, fallback string, opts ...gesture.Option) (*Report, error) {
	name := rec.Preset
	if name == "" {
		name = fallback
	}
	cfg, err := gesture.Preset(name)
	if err != nil {
		return nil, err
	}
	return Run(cfg, rec, opts...)
}

// match assigns each expectation the earliest unused event with the same move
// inside its range.
func (r *Report) match(expect []Expectation) {
	used := make([]bool, len(r.Events))
	for _, e := range expect {
		found := false
		for i, ev := range r.Events {
			if used[i] || ev.Move != e.Move || ev.FrameIndex < e.From || ev.FrameIndex > e.To {
				continue
			}
			used[i] = true
			found = true
			r.Matched = append(r.Matched, Match{Expectation: e, Event: ev})
			break
		}
		if !found {
			r.Missed = append(r.Missed, e)
		}
	}
	for i, ev := range r.Events {
		if !used[i] {
			r.Unexpected = append(r.Unexpected, ev)
		}
	}
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) error {
	status := "PASS"
	if !r.OK() {
		status = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "%s  %s (%d frames, %d events)\n", status, r.Name, r.Frames, len(r.Events)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range r.Matched {
		fmt.Fprintf(tw, "  ok\t%s\tframe %d\t[%d..%d]\n", m.Event.Move, m.Event.FrameIndex, m.Expectation.From, m.Expectation.To)
	}
	for _, e := range r.Missed {
		fmt.Fprintf(tw, "  missed\t%s\t-\t[%d..%d]\n", e.Move, e.From, e.To)
	}
	for _, ev := range r.Unexpected {
		fmt.Fprintf(tw, "  unexpected\t%s\tframe %d\t\n", ev.Move, ev.FrameIndex)
	}
	return tw.Flush()
}
