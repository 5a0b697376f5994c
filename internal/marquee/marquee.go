// Package marquee provides the three animation variants a widget can declare:
// continuous scroll, slide and popup.
//
// A variant only produces an action.Definition. Its state at a tick is derived
// from the compiled timeline and the tick, never stored.
package marquee

import (
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Kind identifies a variant.
type Kind int

const (
	KindScroll Kind = iota
	KindSlide
	KindPopup
)

func (k Kind) String() string {
	switch k {
	case KindScroll:
		return "scroll"
	case KindSlide:
		return "slide"
	case KindPopup:
		return "popup"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is the derived state of a variant at a tick.
type State int

const (
	StateIdle State = iota
	StateScrolling

	StateOffScreen
	StateEntering
	StateVisible
	StatePausing
	StateExiting

	StateTop
	StateTransitioningUp
	StateBottom
	StateTransitioningDown
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateScrolling:         "scrolling",
	StateOffScreen:         "off_screen",
	StateEntering:          "entering",
	StateVisible:           "visible",
	StatePausing:           "pausing",
	StateExiting:           "exiting",
	StateTop:               "top",
	StateTransitioningUp:   "transitioning_up",
	StateBottom:            "bottom",
	StateTransitioningDown: "transitioning_down",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func stateFromPhase(phase string) (State, bool) {
	for s, n := range stateNames {
		if n == phase {
			return s, true
		}
	}
	return 0, false
}

// Geometry is the layout a variant is compiled against.
type Geometry struct {
	Container image.Point
	Content   image.Point
	// Rest is where the content sits when not animating.
	Rest      image.Point
	StartTick int
}

// Variant is implemented by Scroll, Slide and Popup only.
type Variant interface {
	Kind() Kind
	// Definition builds the action list for g.
	Definition(g Geometry) (action.Definition, error)
	// StateAt derives the variant state from a timeline compiled from
	// Definition.
	StateAt(tl *timeline.Timeline, tick int) (State, error)

	sealed()
}

// Compile builds v's definition for g and compiles it.
func Compile(v Variant, g Geometry) (*timeline.Timeline, error) {
	def, err := v.Definition(g)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.Compile(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Kind(), err)
	}
	return tl, nil
}

// Animated pairs a variant with its compiled timeline.
type Animated struct {
	Variant  Variant
	Timeline *timeline.Timeline
}

// StateAt is shorthand for a.Variant.StateAt(a.Timeline, tick).
func (a Animated) StateAt(tick int) (State, error) {
	return a.Variant.StateAt(a.Timeline, tick)
}

func validateMotion(op string, step, interval int) error {
	if step < 1 {
		return animerr.New(op, animerr.KindInvalidAction, "step size %d must be >= 1", step)
	}
	if interval < 1 {
		return animerr.New(op, animerr.KindInvalidAction, "interval %d must be >= 1", interval)
	}
	return nil
}

// offBoundary returns how far content resting at pos must travel in dir to
// leave the container completely.
func offBoundary(pos image.Point, dir action.Direction, container, content image.Point) int {
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

// ParseKind parses "scroll", "slide" or "popup".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scroll", "marquee":
		return KindScroll, nil
	case "slide":
		return KindSlide, nil
	case "popup":
		return KindPopup, nil
	}
	return 0, fmt.Errorf("unknown animation kind %q", s)
}
