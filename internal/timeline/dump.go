package timeline

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/tinydisplay/internal/action"
)

// Dump is a serializable snapshot of a compiled timeline, used by the CLI to
// inspect what a page compiles to.
type Dump struct {
	Period    int           `yaml:"period"`
	Periodic  bool          `yaml:"periodic"`
	StartTick int           `yaml:"start_tick"`
	Reset     string        `yaml:"reset"`
	Origin    [2]int        `yaml:"origin"`
	Final     [2]int        `yaml:"final"`
	Seam      *DumpSeam     `yaml:"seam,omitempty"`
	Segments  []DumpSegment `yaml:"segments"`
}

type DumpSeam struct {
	Span [2]int `yaml:"span"`
	From int    `yaml:"from"`
}

type DumpSegment struct {
	Start    int    `yaml:"start"`
	Ticks    int    `yaml:"ticks"`
	Kind     string `yaml:"kind"`
	Label    string `yaml:"label,omitempty"`
	From     [2]int `yaml:"from"`
	To       [2]int `yaml:"to"`
	Steps    int    `yaml:"steps"`
	Interval int    `yaml:"interval"`
	Easing   string `yaml:"easing,omitempty"`
}

// Snapshot describes t without exposing its internals.
func (t *Timeline) Snapshot() Dump {
	d := Dump{
		Period:    t.period,
		Periodic:  t.periodic,
		StartTick: t.startTick,
		Reset:     t.reset.String(),
		Origin:    [2]int{t.origin.X, t.origin.Y},
		Final:     [2]int{t.final.X, t.final.Y},
	}
	if t.periodic && t.reset == action.ResetSeamless {
		d.Seam = &DumpSeam{Span: [2]int{t.seam.Span.X, t.seam.Span.Y}, From: t.seam.From}
	}
	for _, s := range t.segments {
		end := s.end()
		ds := DumpSegment{
			Start:    s.start,
			Ticks:    s.ticks,
			Kind:     s.kind.String(),
			Label:    s.label,
			From:     [2]int{s.from.X, s.from.Y},
			To:       [2]int{end.X, end.Y},
			Steps:    s.steps,
			Interval: s.interval,
		}
		if s.delta.X != 0 || s.delta.Y != 0 {
			ds.Easing = s.easing.String()
		}
		d.Segments = append(d.Segments, ds)
	}
	return d
}

// WriteYAML writes the snapshot of t to w.
func (t *Timeline) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	return enc.Close()
}
