package marquee

import (
	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Popup alternates between showing the top and the bottom of content taller
// than its container, dwelling TopDelay and BottomDelay ticks at each end.
type Popup struct {
	TopDelay    int
	BottomDelay int
	Step        int
	Interval    int
	Easing      action.Easing
	// Distance overrides the travel; zero means content height minus
	// container height.
	Distance int
}

func (Popup) Kind() Kind { return KindPopup }
func (Popup) sealed()    {}

func (p Popup) Definition(g Geometry) (action.Definition, error) {
	const op = "marquee.Popup"
	if err := validateMotion(op, p.Step, p.Interval); err != nil {
		return action.Definition{}, err
	}
	if p.TopDelay < 0 || p.BottomDelay < 0 || p.Distance < 0 {
		return action.Definition{}, animerr.New(op, animerr.KindInvalidAction,
			"negative top_delay %d, bottom_delay %d or distance %d", p.TopDelay, p.BottomDelay, p.Distance)
	}
	dist := p.Distance
	if dist == 0 {
		dist = max(g.Content.Y-g.Container.Y, 0)
	}
	if dist == 0 && p.TopDelay == 0 && p.BottomDelay == 0 {
		return action.Definition{}, animerr.New(op, animerr.KindInvalidAction, "popup has neither travel nor dwell time")
	}

	return action.Definition{
		Actions: []action.Action{
			action.Pause(p.TopDelay).WithLabel(StateTop.String()),
			action.Move(action.Up, dist, p.Step, p.Interval).WithEasing(p.Easing).WithLabel(StateTransitioningUp.String()),
			action.Pause(p.BottomDelay).WithLabel(StateBottom.String()),
			action.ReturnToStart(action.AxisVertical, p.Step, p.Interval).WithEasing(p.Easing).WithLabel(StateTransitioningDown.String()),
		},
		Start:     g.Rest,
		Container: g.Container,
		Content:   g.Content,
		StartTick: g.StartTick,
		// the cycle ends where it began, so no repeat copy is ever needed
		Reset: action.ResetSeamless,
	}, nil
}

// StateAt follows the action labels; before the start tick the popup shows
// its top.
func (p Popup) StateAt(tl *timeline.Timeline, tick int) (State, error) {
	smp, err := tl.Sample(tick)
	if err != nil {
		return 0, err
	}
	if !smp.Started {
		return StateTop, nil
	}
	if st, ok := stateFromPhase(smp.Phase); ok {
		return st, nil
	}
	return StateTop, nil
}
