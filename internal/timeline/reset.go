package timeline

import (
	"image"

	"github.com/ivlev/tinydisplay/internal/action"
)

// Seam describes where a seamless loop needs a repeat copy of the content.
type Seam struct {
	// Span is the offset of the repeat copy relative to the content. Zero when
	// the loop returns to its origin by itself.
	Span image.Point
	// From is the first cycle tick at which the repeat copy overlaps the
	// container, or -1 if it never does.
	From int
}

// Seam returns the repeat-copy geometry of a periodic timeline.
func (t *Timeline) Seam() Seam { return t.seam }

// Sample is everything a renderer needs for one tick.
type Sample struct {
	Tick     int
	Position image.Point
	Started  bool
	Complete bool

	// Cycle counts completed cycles; Index is the tick within the cycle.
	Cycle int
	Index int

	// Wrapped is true on the first tick of every cycle after the first, for
	// instant and fade resets.
	Wrapped bool
	// Opacity is 1 except while a fade reset ramps around a wrap.
	Opacity float64
	// Duplicate is true when a seamless loop needs its repeat copy drawn.
	Duplicate bool

	// Phase is the label of the action active at this tick.
	Phase string
}

// Sample evaluates position plus reset-mode side information at tick.
func (t *Timeline) Sample(tick int) (Sample, error) {
	idx, err := t.index("timeline.Sample", tick)
	if err != nil {
		return Sample{}, err
	}

	s := Sample{Tick: tick, Position: t.positionAtIndex(idx), Opacity: 1}
	if idx < 0 {
		return s, nil
	}
	s.Started = true
	s.Index = idx
	if seg := t.segmentAt(idx); seg != nil {
		s.Phase = seg.label
	}

	if !t.periodic {
		s.Complete = idx == t.period-1
		return s, nil
	}

	s.Cycle = (tick - t.startTick) / t.period
	switch t.reset {
	case action.ResetInstant:
		s.Wrapped = s.Cycle > 0 && idx == 0
	case action.ResetFade:
		s.Wrapped = s.Cycle > 0 && idx == 0
		s.Opacity = t.fadeOpacity(s.Cycle, idx)
	case action.ResetSeamless:
		s.Duplicate = t.seam.From >= 0 && idx >= t.seam.From
	}
	return s, nil
}

// fadeOpacity ramps 1→0 over the fade ticks ending at each wrap and 0→1 over
// the same number of ticks after it.
func (t *Timeline) fadeOpacity(cycle, idx int) float64 {
	f := t.fadeTicks
	if f <= 0 {
		return 1
	}
	op := 1.0
	if out := t.period - idx; out <= f {
		op = float64(out) / float64(f)
	}
	if cycle > 0 && idx <= f {
		op = min(op, float64(idx)/float64(f))
	}
	return op
}
