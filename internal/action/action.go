// Package action holds the declarative movement instructions a widget hands to
// the timeline compiler, and the animation definition that groups them.
package action

import (
	"fmt"
	"image"
	"strings"
)

// Kind is the instruction type of an Action.
type Kind int

const (
	KindMove Kind = iota
	KindPause
	KindReturnToStart
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindPause:
		return "pause"
	case KindReturnToStart:
		return "return_to_start"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Direction is the travel direction of a move. Screen coordinates grow to the
// right and downwards.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Unit returns the unit vector for d.
func (d Direction) Unit() image.Point {
	switch d {
	case Left:
		return image.Point{X: -1}
	case Right:
		return image.Point{X: 1}
	case Up:
		return image.Point{Y: -1}
	case Down:
		return image.Point{Y: 1}
	}
	return image.Point{}
}

// Horizontal reports whether d moves along the x axis.
func (d Direction) Horizontal() bool { return d == Left || d == Right }

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	default:
		return Up
	}
}

func (d Direction) valid() bool { return d >= Left && d <= Down }

// Axis selects the coordinates a return-to-start restores.
type Axis int

const (
	AxisBoth Axis = iota
	AxisHorizontal
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisBoth:
		return "both"
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Easing identifies the integer interpolation applied inside a move.
type Easing int

const (
	Linear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
)

func (e Easing) String() string {
	switch e {
	case Linear:
		return "linear"
	case EaseIn:
		return "ease_in"
	case EaseOut:
		return "ease_out"
	case EaseInOut:
		return "ease_in_out"
	default:
		return fmt.Sprintf("Easing(%d)", int(e))
	}
}

// Action is a single immutable movement instruction.
type Action struct {
	Kind Kind

	// Move fields.
	Direction     Direction
	Distance      int  // total pixels; ignored when UntilBoundary is set
	UntilBoundary bool // travel until the content has fully left the container
	Gap           int  // extra dead travel appended when the timeline loops

	// Shared by move and return_to_start.
	Step     int // pixels per step, >= 1
	Interval int // ticks each step is held, >= 1
	Easing   Easing

	// Pause field.
	Ticks int

	// Return-to-start field.
	Axis Axis

	// Label names the phase this action belongs to (e.g. "entering").
	Label string
}

// Move returns a move of distance pixels in dir.
func Move(dir Direction, distance, step, interval int) Action {
	return Action{Kind: KindMove, Direction: dir, Distance: distance, Step: step, Interval: interval}
}

// MoveUntilBoundary returns a move that stops once the content has left the
// container. Timelines containing one are finite.
func MoveUntilBoundary(dir Direction, step, interval int) Action {
	return Action{Kind: KindMove, Direction: dir, UntilBoundary: true, Step: step, Interval: interval}
}

// Pause holds the current position for ticks ticks.
func Pause(ticks int) Action {
	return Action{Kind: KindPause, Ticks: ticks}
}

// ReturnToStart moves back to the origin along axis.
func ReturnToStart(axis Axis, step, interval int) Action {
	return Action{Kind: KindReturnToStart, Axis: axis, Step: step, Interval: interval}
}

// WithLabel returns a copy of a labelled as label.
func (a Action) WithLabel(label string) Action {
	a.Label = label
	return a
}

// WithGap returns a copy of a with gap pixels of loop spacing.
func (a Action) WithGap(gap int) Action {
	a.Gap = gap
	return a
}

// WithEasing returns a copy of a using easing e.
func (a Action) WithEasing(e Easing) Action {
	a.Easing = e
	return a
}

func (a Action) String() string {
	switch a.Kind {
	case KindMove:
		if a.UntilBoundary {
			return fmt.Sprintf("MOVE(%s, boundary){step=%d, interval=%d}", a.Direction, a.Step, a.Interval)
		}
		return fmt.Sprintf("MOVE(%s, %d){step=%d, interval=%d, gap=%d}", a.Direction, a.Distance, a.Step, a.Interval, a.Gap)
	case KindPause:
		return fmt.Sprintf("PAUSE(%d)", a.Ticks)
	case KindReturnToStart:
		return fmt.Sprintf("RESET_POSITION(%s){step=%d, interval=%d}", a.Axis, a.Step, a.Interval)
	}
	return a.Kind.String()
}

// ParseDirection parses "left", "right", "up" or "down" (any case).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// ParseAxis parses "both", "horizontal"/"x" or "vertical"/"y". Empty means both.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "xy":
		return AxisBoth, nil
	case "horizontal", "x":
		return AxisHorizontal, nil
	case "vertical", "y":
		return AxisVertical, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// ParseEasing parses an easing identifier. Empty means linear.
func ParseEasing(s string) (Easing, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "", "linear":
		return Linear, nil
	case "ease_in":
		return EaseIn, nil
	case "ease_out":
		return EaseOut, nil
	case "ease_in_out":
		return EaseInOut, nil
	}
	return 0, fmt.Errorf("unknown easing %q", s)
}
