package timeline

import (
	"image"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
)

// segment is one compiled action: steps entries, each held interval ticks.
type segment struct {
	start    int // first tick of the segment within a cycle
	ticks    int
	from     image.Point
	delta    image.Point // signed total travel
	steps    int
	step     int
	interval int
	easing   action.Easing
	kind     action.Kind
	label    string
}

// at returns the position local ticks into the segment.
func (s *segment) at(local int) image.Point {
	if s.steps == 0 || (s.delta.X == 0 && s.delta.Y == 0) {
		return s.from
	}
	k := local / s.interval
	return image.Point{
		X: s.from.X + travel(s.delta.X, k, s.steps, s.step, s.easing),
		Y: s.from.Y + travel(s.delta.Y, k, s.steps, s.step, s.easing),
	}
}

func (s *segment) end() image.Point { return s.from.Add(s.delta) }

// Compile turns a definition into a timeline. It is a pure function of def.
func Compile(def action.Definition) (*Timeline, error) {
	const op = "timeline.Compile"
	if err := def.Validate(); err != nil {
		return nil, err
	}

	loops := def.Loops()
	pos := def.Start
	cursor := 0
	terminal := false
	segs := make([]segment, 0, len(def.Actions))

	for i, a := range def.Actions {
		if terminal {
			if a.Kind == action.KindReturnToStart {
				return nil, &animerr.Error{Op: op, Kind: animerr.KindUnreachableOrigin, Index: i,
					Err: errTerminal}
			}
			return nil, animerr.Action(op, i, "%s follows a terminal until-boundary move", a.Kind)
		}

		seg := segment{start: cursor, from: pos, kind: a.Kind, label: a.Label, easing: a.Easing}
		switch a.Kind {
		case action.KindMove:
			dist := a.Distance
			if a.UntilBoundary {
				dist = boundaryDistance(pos, a.Direction, def.Container, def.Content)
				terminal = true
			} else if loops {
				dist += a.Gap
			}
			seg.delta = a.Direction.Unit().Mul(dist)
			seg.step, seg.interval = a.Step, a.Interval
			seg.steps = ceilDiv(dist, a.Step)
		case action.KindPause:
			seg.steps, seg.interval, seg.step = 1, a.Ticks, 0
			if a.Ticks == 0 {
				seg.steps = 0
			}
		case action.KindReturnToStart:
			d := def.Start.Sub(pos)
			switch a.Axis {
			case action.AxisHorizontal:
				d.Y = 0
			case action.AxisVertical:
				d.X = 0
			}
			seg.delta = d
			seg.step, seg.interval = a.Step, a.Interval
			seg.steps = ceilDiv(max(abs(d.X), abs(d.Y)), a.Step)
		}

		seg.ticks = seg.steps * seg.interval
		if seg.ticks == 0 {
			// zero-length actions are no-ops
			continue
		}
		segs = append(segs, seg)
		cursor += seg.ticks
		pos = seg.end()
	}

	t := &Timeline{
		segments:  segs,
		origin:    def.Start,
		final:     pos,
		startTick: def.StartTick,
		reset:     def.Reset,
		def:       cloneDefinition(def),
		disposed:  new(disposeFlag),
	}

	switch {
	case cursor == 0:
		// static: nothing moves, complete as soon as it starts
		t.period = 1
	case loops:
		t.periodic = true
		t.period = cursor
		t.fadeTicks = min(def.FadeTicks, cursor/2)
		t.seam = computeSeam(t, def)
	default:
		// one extra tick shows the arrival position
		t.period = cursor + 1
	}
	return t, nil
}

// boundaryDistance is how far content at pos must travel in dir until no part
// of it overlaps the container.
func boundaryDistance(pos image.Point, dir action.Direction, container, content image.Point) int {
	var d int
	switch dir {
	case action.Left:
		d = pos.X + content.X
	case action.Right:
		d = container.X - pos.X
	case action.Up:
		d = pos.Y + content.Y
	case action.Down:
		d = container.Y - pos.Y
	}
	return max(d, 0)
}

// computeSeam locates the repeat copy of a looping timeline and the first
// cycle tick at which it overlaps the container.
func computeSeam(t *Timeline, def action.Definition) Seam {
	net := t.final.Sub(t.origin)
	if net == (image.Point{}) {
		return Seam{From: -1}
	}
	seam := Seam{Span: net.Mul(-1), From: -1}
	container := image.Rectangle{Max: def.Container}
	for i := range t.segments {
		s := &t.segments[i]
		for k := 0; k < max(s.steps, 1); k++ {
			p := s.at(k * s.interval)
			copyRect := image.Rectangle{Min: p.Add(seam.Span), Max: p.Add(seam.Span).Add(def.Content)}
			if copyRect.Overlaps(container) {
				seam.From = s.start + k*s.interval
				return seam
			}
		}
	}
	return seam
}

func cloneDefinition(def action.Definition) action.Definition {
	def.Actions = append([]action.Action(nil), def.Actions...)
	return def
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
