package action

import (
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/tinydisplay/internal/animerr"
)

// ResetMode controls what happens when a looping timeline wraps.
type ResetMode int

const (
	// ResetSeamless bakes the wrap into the timeline; the renderer draws a
	// repeat copy so no discontinuity is visible.
	ResetSeamless ResetMode = iota
	// ResetInstant jumps back to the start and flags the wrap tick.
	ResetInstant
	// ResetFade fades out before the wrap and back in after it.
	ResetFade
	// ResetNone never wraps; the timeline is finite.
	ResetNone
)

func (m ResetMode) String() string {
	switch m {
	case ResetSeamless:
		return "seamless"
	case ResetInstant:
		return "instant"
	case ResetFade:
		return "fade"
	case ResetNone:
		return "none"
	default:
		return fmt.Sprintf("ResetMode(%d)", int(m))
	}
}

// ParseResetMode parses a reset mode name. Empty means seamless.
func ParseResetMode(s string) (ResetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "seamless":
		return ResetSeamless, nil
	case "instant":
		return ResetInstant, nil
	case "fade":
		return ResetFade, nil
	case "none":
		return ResetNone, nil
	}
	return 0, fmt.Errorf("unknown reset mode %q", s)
}

// Definition is everything the compiler needs to build a timeline.
type Definition struct {
	Actions []Action

	Start     image.Point // initial offset of the content inside the container
	Container image.Point // container width and height
	Content   image.Point // content width and height

	StartTick int
	Reset     ResetMode
	// FadeTicks is the ramp length for ResetFade, required to be at least 1
	// there. The compiler caps it at half the loop period.
	FadeTicks int
}

// Loops reports whether the definition compiles to a periodic timeline.
func (d Definition) Loops() bool {
	if d.Reset == ResetNone {
		return false
	}
	for _, a := range d.Actions {
		if a.Kind == KindMove && a.UntilBoundary {
			return false
		}
	}
	return true
}

// Validate checks every parameter the compiler relies on.
func (d Definition) Validate() error {
	const op = "action.Validate"
	if d.StartTick < 0 {
		return animerr.New(op, animerr.KindInvalidAction, "start tick %d is negative", d.StartTick)
	}
	if d.FadeTicks < 0 {
		return animerr.New(op, animerr.KindInvalidAction, "fade ticks %d is negative", d.FadeTicks)
	}
	if d.Container.X < 0 || d.Container.Y < 0 || d.Content.X < 0 || d.Content.Y < 0 {
		return animerr.New(op, animerr.KindInvalidAction, "negative size: container %v content %v", d.Container, d.Content)
	}
	if d.Reset < ResetSeamless || d.Reset > ResetNone {
		return animerr.New(op, animerr.KindInvalidAction, "unknown reset mode %d", int(d.Reset))
	}

	for i, a := range d.Actions {
		if err := a.validate(op, i); err != nil {
			return err
		}
		if a.Kind == KindMove && a.UntilBoundary && d.Reset != ResetNone {
			return animerr.Action(op, i, "until-boundary move cannot loop with reset mode %s", d.Reset)
		}
	}
	if d.Reset == ResetFade && d.FadeTicks < 1 {
		return animerr.New(op, animerr.KindInvalidAction, "fade reset needs fade ticks >= 1, got %d", d.FadeTicks)
	}
	return nil
}

func (a Action) validate(op string, i int) error {
	switch a.Kind {
	case KindMove:
		if !a.Direction.valid() {
			return animerr.Action(op, i, "unknown direction %d", int(a.Direction))
		}
		if !a.UntilBoundary && a.Distance < 0 {
			return animerr.Action(op, i, "distance %d is negative", a.Distance)
		}
		if a.Gap < 0 {
			return animerr.Action(op, i, "gap %d is negative", a.Gap)
		}
		return a.validateMotion(op, i)
	case KindPause:
		if a.Ticks < 0 {
			return animerr.Action(op, i, "pause ticks %d is negative", a.Ticks)
		}
		return nil
	case KindReturnToStart:
		if a.Axis < AxisBoth || a.Axis > AxisVertical {
			return animerr.Action(op, i, "unknown axis %d", int(a.Axis))
		}
		return a.validateMotion(op, i)
	}
	return animerr.Action(op, i, "unknown action kind %d", int(a.Kind))
}

func (a Action) validateMotion(op string, i int) error {
	if a.Step < 1 {
		return animerr.Action(op, i, "step size %d must be >= 1", a.Step)
	}
	if a.Interval < 1 {
		return animerr.Action(op, i, "interval %d must be >= 1", a.Interval)
	}
	if a.Easing < Linear || a.Easing > EaseInOut {
		return animerr.Action(op, i, "unknown easing %d", int(a.Easing))
	}
	return nil
}
