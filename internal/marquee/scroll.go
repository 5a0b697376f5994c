package marquee

import (
	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Scroll moves content continuously across the container, one content length
// plus Gap per cycle.
type Scroll struct {
	Direction action.Direction
	Step      int
	Interval  int
	Gap       int
	Easing    action.Easing
	Reset     action.ResetMode // seamless unless set
	FadeTicks int
	// OnlyWhenOverflowing keeps content that fits the container still.
	OnlyWhenOverflowing bool
}

func (Scroll) Kind() Kind { return KindScroll }
func (Scroll) sealed()    {}

func (s Scroll) Definition(g Geometry) (action.Definition, error) {
	const op = "marquee.Scroll"
	if err := validateMotion(op, s.Step, s.Interval); err != nil {
		return action.Definition{}, err
	}
	if s.Reset == action.ResetNone {
		return action.Definition{}, animerr.New(op, animerr.KindInvalidAction, "scroll always loops; reset mode none is not allowed")
	}

	def := action.Definition{
		Start:     g.Rest,
		Container: g.Container,
		Content:   g.Content,
		StartTick: g.StartTick,
		Reset:     s.Reset,
		FadeTicks: s.FadeTicks,
	}

	length, room := g.Content.Y, g.Container.Y
	if s.Direction.Horizontal() {
		length, room = g.Content.X, g.Container.X
	}
	if s.OnlyWhenOverflowing && length <= room {
		return def, nil
	}
	def.Actions = []action.Action{
		action.Move(s.Direction, length, s.Step, s.Interval).
			WithGap(s.Gap).
			WithEasing(s.Easing).
			WithLabel(StateScrolling.String()),
	}
	return def, nil
}

// StateAt is idle before the start tick and for content that does not need
// to move, scrolling otherwise.
func (s Scroll) StateAt(tl *timeline.Timeline, tick int) (State, error) {
	smp, err := tl.Sample(tick)
	if err != nil {
		return 0, err
	}
	if !smp.Started || !tl.Periodic() {
		return StateIdle, nil
	}
	return StateScrolling, nil
}
