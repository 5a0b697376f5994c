package marquee

import (
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// SlideMode selects which halves of a slide run.
type SlideMode int

const (
	SlideIn SlideMode = iota
	SlideOut
	SlideInOut
)

func (m SlideMode) String() string {
	switch m {
	case SlideIn:
		return "IN"
	case SlideOut:
		return "OUT"
	case SlideInOut:
		return "IN_OUT"
	default:
		return fmt.Sprintf("SlideMode(%d)", int(m))
	}
}

// ParseSlideMode accepts "in", "out" and "in_out" in any case.
func ParseSlideMode(s string) (SlideMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "in":
		return SlideIn, nil
	case "out":
		return SlideOut, nil
	case "in_out", "inout":
		return SlideInOut, nil
	}
	return 0, fmt.Errorf("unknown slide mode %q", s)
}

// Slide moves content into view, out of view, or both. Direction is the
// direction of travel for both halves.
type Slide struct {
	Mode      SlideMode
	Direction action.Direction
	Step      int
	Interval  int
	Easing    action.Easing
	// Delay holds the content off screen before entering.
	Delay int
	// Pause holds the content at rest between entering and exiting, or
	// before exiting in OUT mode.
	Pause int
	// Repeat restarts the slide after it finishes.
	Repeat bool
}

func (Slide) Kind() Kind { return KindSlide }
func (Slide) sealed()    {}

// entryOrigin is where content must start to be fully outside the container
// before sliding in dir to rest, and the distance to get there.
func entryOrigin(rest image.Point, dir action.Direction, container, content image.Point) (image.Point, int) {
	d := offBoundary(rest, dir.Opposite(), container, content)
	return rest.Sub(dir.Unit().Mul(d)), d
}

func (s Slide) Definition(g Geometry) (action.Definition, error) {
	const op = "marquee.Slide"
	if err := validateMotion(op, s.Step, s.Interval); err != nil {
		return action.Definition{}, err
	}
	if s.Delay < 0 || s.Pause < 0 {
		return action.Definition{}, animerr.New(op, animerr.KindInvalidAction, "negative delay %d or pause %d", s.Delay, s.Pause)
	}
	if s.Mode < SlideIn || s.Mode > SlideInOut {
		return action.Definition{}, animerr.New(op, animerr.KindInvalidAction, "unknown slide mode %d", int(s.Mode))
	}

	def := action.Definition{
		Start:     g.Rest,
		Container: g.Container,
		Content:   g.Content,
		StartTick: g.StartTick,
		Reset:     action.ResetNone,
	}
	if s.Repeat {
		def.Reset = action.ResetInstant
	}

	move := func(dist int, label State) action.Action {
		return action.Move(s.Direction, dist, s.Step, s.Interval).WithEasing(s.Easing).WithLabel(label.String())
	}
	exit := func() action.Action {
		if s.Repeat {
			return move(offBoundary(g.Rest, s.Direction, g.Container, g.Content), StateExiting)
		}
		return action.MoveUntilBoundary(s.Direction, s.Step, s.Interval).WithEasing(s.Easing).WithLabel(StateExiting.String())
	}

	if s.Mode != SlideOut {
		origin, dist := entryOrigin(g.Rest, s.Direction, g.Container, g.Content)
		def.Start = origin
		def.Actions = append(def.Actions,
			action.Pause(s.Delay).WithLabel(StateOffScreen.String()),
			move(dist, StateEntering))
	}

	switch s.Mode {
	case SlideIn:
		if s.Repeat {
			def.Actions = append(def.Actions, action.Pause(s.Pause).WithLabel(StateVisible.String()))
		}
	case SlideOut:
		def.Actions = append(def.Actions,
			action.Pause(s.Pause).WithLabel(StatePausing.String()),
			exit())
	case SlideInOut:
		def.Actions = append(def.Actions,
			action.Pause(s.Pause).WithLabel(StatePausing.String()),
			exit())
	}
	return def, nil
}

// StateAt follows the action labels. A finished slide rests visible after IN
// and off screen after OUT or IN_OUT.
func (s Slide) StateAt(tl *timeline.Timeline, tick int) (State, error) {
	smp, err := tl.Sample(tick)
	if err != nil {
		return 0, err
	}
	switch {
	case !smp.Started:
		if s.Mode == SlideOut {
			return StateVisible, nil
		}
		return StateOffScreen, nil
	case smp.Complete:
		if s.Mode == SlideIn {
			return StateVisible, nil
		}
		return StateOffScreen, nil
	}
	if st, ok := stateFromPhase(smp.Phase); ok {
		return st, nil
	}
	return StateVisible, nil
}
