// Package timeline compiles action lists into tick-indexed position tables and
// evaluates them.
//
// A Timeline is immutable after Compile. Every query is a pure function of the
// timeline and the tick, so frames may be evaluated in any order and from any
// number of goroutines.
package timeline

import (
	"errors"
	"image"
	"sort"
	"sync/atomic"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
)

var errTerminal = errors.New("return_to_start follows a terminal until-boundary move")

type disposeFlag struct{ atomic.Bool }

// Timeline maps ticks to content offsets.
type Timeline struct {
	segments  []segment
	period    int
	periodic  bool
	origin    image.Point
	final     image.Point
	startTick int
	reset     action.ResetMode
	fadeTicks int
	seam      Seam
	def       action.Definition
	disposed  *disposeFlag
}

// Period is the number of ticks in one cycle. For finite timelines it includes
// the final tick that shows the arrival position.
func (t *Timeline) Period() int { return t.period }

// Periodic reports whether the timeline repeats forever.
func (t *Timeline) Periodic() bool { return t.periodic }

// Origin is the position before the animation starts.
func (t *Timeline) Origin() image.Point { return t.origin }

// Final is the position at the end of the last action.
func (t *Timeline) Final() image.Point { return t.final }

// StartTick is the tick at which cycle index 0 is shown.
func (t *Timeline) StartTick() int { return t.startTick }

// ResetMode returns the wrap behavior the timeline was compiled with.
func (t *Timeline) ResetMode() action.ResetMode { return t.reset }

// Definition returns a copy of the definition the timeline was compiled from.
func (t *Timeline) Definition() action.Definition { return cloneDefinition(t.def) }

// CompleteTick returns the first tick at which a finite timeline reports
// completion. ok is false for periodic timelines.
func (t *Timeline) CompleteTick() (tick int, ok bool) {
	if t.periodic {
		return 0, false
	}
	return t.startTick + t.period - 1, true
}

// WithStart returns a timeline sharing t's compiled data but starting at
// start. Disposing either disposes both.
func (t *Timeline) WithStart(start int) *Timeline {
	c := *t
	c.startTick = max(start, 0)
	c.def.StartTick = c.startTick
	return &c
}

// Dispose marks the timeline unusable. Later queries return ErrDisposed.
func (t *Timeline) Dispose() { t.disposed.Store(true) }

// PositionAt returns the content offset at tick.
func (t *Timeline) PositionAt(tick int) (image.Point, error) {
	idx, err := t.index("timeline.PositionAt", tick)
	if err != nil {
		return image.Point{}, err
	}
	return t.positionAtIndex(idx), nil
}

// IsCompleteAt reports whether a finite timeline has reached its final
// position at tick. Periodic timelines never complete.
func (t *Timeline) IsCompleteAt(tick int) (bool, error) {
	if err := t.check("timeline.IsCompleteAt", tick); err != nil {
		return false, err
	}
	if t.periodic {
		return false, nil
	}
	return tick-t.startTick >= t.period-1, nil
}

// Table materializes one cycle of positions. Intended for short periods and
// debugging; PositionAt never needs it.
func (t *Timeline) Table() []image.Point {
	out := make([]image.Point, t.period)
	for i := range out {
		out[i] = t.positionAtIndex(i)
	}
	return out
}

func (t *Timeline) check(op string, tick int) error {
	if t.disposed.Load() {
		return animerr.New(op, animerr.KindDisposed, "timeline used after Dispose")
	}
	if tick < 0 {
		return animerr.New(op, animerr.KindInvalidTick, "tick %d is negative", tick)
	}
	return nil
}

// index maps tick to a cycle index, or -1 before the start tick.
func (t *Timeline) index(op string, tick int) (int, error) {
	if err := t.check(op, tick); err != nil {
		return 0, err
	}
	rel := tick - t.startTick
	switch {
	case rel < 0:
		return -1, nil
	case t.periodic:
		return rel % t.period, nil
	case rel >= t.period-1:
		return t.period - 1, nil
	}
	return rel, nil
}

func (t *Timeline) positionAtIndex(idx int) image.Point {
	if idx < 0 {
		return t.origin
	}
	s := t.segmentAt(idx)
	if s == nil {
		return t.final
	}
	return s.at(idx - s.start)
}

// segmentAt returns the segment covering cycle index idx, or nil for the
// arrival tick of a finite timeline.
func (t *Timeline) segmentAt(idx int) *segment {
	i := sort.Search(len(t.segments), func(i int) bool {
		return t.segments[i].start+t.segments[i].ticks > idx
	})
	if i == len(t.segments) {
		return nil
	}
	return &t.segments[i]
}
