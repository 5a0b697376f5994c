package marquee

import (
	"errors"
	"image"
	"testing"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
)

type stateCase struct {
	tick  int
	state State
	pos   image.Point
}

func checkStates(t *testing.T, a Animated, cases []stateCase) {
	t.Helper()
	for _, c := range cases {
		st, err := a.StateAt(c.tick)
		if err != nil {
			t.Fatalf("StateAt(%d) failed: %v", c.tick, err)
		}
		if st != c.state {
			t.Errorf("StateAt(%d) = %s, want %s", c.tick, st, c.state)
		}
		p, err := a.Timeline.PositionAt(c.tick)
		if err != nil {
			t.Fatalf("PositionAt(%d) failed: %v", c.tick, err)
		}
		if p != c.pos {
			t.Errorf("PositionAt(%d) = %v, want %v", c.tick, p, c.pos)
		}
	}
}

func animate(t *testing.T, v Variant, g Geometry) Animated {
	t.Helper()
	tl, err := Compile(v, g)
	if err != nil {
		t.Fatalf("Compile(%s) failed: %v", v.Kind(), err)
	}
	return Animated{Variant: v, Timeline: tl}
}

func TestScroll(t *testing.T) {
	a := animate(t, Scroll{Direction: action.Left, Step: 1, Interval: 1, Gap: 10}, Geometry{
		Container: image.Pt(100, 16),
		Content:   image.Pt(250, 16),
		StartTick: 5,
	})
	if !a.Timeline.Periodic() || a.Timeline.Period() != 260 {
		t.Fatalf("period = %d periodic = %v, want 260 periodic", a.Timeline.Period(), a.Timeline.Periodic())
	}
	checkStates(t, a, []stateCase{
		{0, StateIdle, image.Pt(0, 0)},
		{4, StateIdle, image.Pt(0, 0)},
		{5, StateScrolling, image.Pt(0, 0)},
		{6, StateScrolling, image.Pt(-1, 0)},
		{264, StateScrolling, image.Pt(-259, 0)},
		{265, StateScrolling, image.Pt(0, 0)},
	})
}

func TestScrollFitsStaysIdle(t *testing.T) {
	a := animate(t, Scroll{Direction: action.Left, Step: 1, Interval: 1, OnlyWhenOverflowing: true}, Geometry{
		Container: image.Pt(100, 16),
		Content:   image.Pt(60, 16),
		Rest:      image.Pt(20, 0),
	})
	checkStates(t, a, []stateCase{
		{0, StateIdle, image.Pt(20, 0)},
		{500, StateIdle, image.Pt(20, 0)},
	})
}

func TestSlideIn(t *testing.T) {
	a := animate(t, Slide{Mode: SlideIn, Direction: action.Left, Step: 4, Interval: 1, Delay: 2}, Geometry{
		Container: image.Pt(128, 32),
		Content:   image.Pt(50, 32),
	})
	if a.Timeline.Periodic() {
		t.Fatal("slide without repeat must be finite")
	}
	checkStates(t, a, []stateCase{
		{0, StateOffScreen, image.Pt(128, 0)},
		{2, StateEntering, image.Pt(128, 0)},
		{3, StateEntering, image.Pt(124, 0)},
		{33, StateEntering, image.Pt(4, 0)},
		{34, StateVisible, image.Pt(0, 0)},
		{1000, StateVisible, image.Pt(0, 0)},
	})
}

func TestSlideInOut(t *testing.T) {
	a := animate(t, Slide{Mode: SlideInOut, Direction: action.Left, Step: 4, Interval: 1, Delay: 2, Pause: 5}, Geometry{
		Container: image.Pt(128, 32),
		Content:   image.Pt(50, 32),
	})
	checkStates(t, a, []stateCase{
		{1, StateOffScreen, image.Pt(128, 0)},
		{34, StatePausing, image.Pt(0, 0)},
		{38, StatePausing, image.Pt(0, 0)},
		{39, StateExiting, image.Pt(0, 0)},
		{40, StateExiting, image.Pt(-4, 0)},
		{51, StateExiting, image.Pt(-48, 0)},
		{52, StateOffScreen, image.Pt(-50, 0)},
	})
	done, err := a.Timeline.IsCompleteAt(52)
	if err != nil || !done {
		t.Errorf("IsCompleteAt(52) = %v, %v; want true", done, err)
	}
}

func TestSlideOutRepeat(t *testing.T) {
	a := animate(t, Slide{Mode: SlideOut, Direction: action.Up, Step: 5, Interval: 1, Pause: 3, Repeat: true}, Geometry{
		Container: image.Pt(64, 50),
		Content:   image.Pt(64, 50),
		StartTick: 10,
	})
	if !a.Timeline.Periodic() || a.Timeline.Period() != 13 {
		t.Fatalf("period = %d periodic = %v, want 13 periodic", a.Timeline.Period(), a.Timeline.Periodic())
	}
	checkStates(t, a, []stateCase{
		{0, StateVisible, image.Pt(0, 0)},
		{10, StatePausing, image.Pt(0, 0)},
		{13, StateExiting, image.Pt(0, 0)},
		{22, StateExiting, image.Pt(0, -45)},
		{23, StatePausing, image.Pt(0, 0)},
	})
	smp, err := a.Timeline.Sample(23)
	if err != nil {
		t.Fatal(err)
	}
	if !smp.Wrapped {
		t.Error("expected instant wrap at tick 23")
	}
}

func TestPopup(t *testing.T) {
	a := animate(t, Popup{TopDelay: 10, BottomDelay: 5, Step: 2, Interval: 1}, Geometry{
		Container: image.Pt(128, 16),
		Content:   image.Pt(128, 48),
	})
	if !a.Timeline.Periodic() || a.Timeline.Period() != 47 {
		t.Fatalf("period = %d periodic = %v, want 47 periodic", a.Timeline.Period(), a.Timeline.Periodic())
	}
	checkStates(t, a, []stateCase{
		{0, StateTop, image.Pt(0, 0)},
		{9, StateTop, image.Pt(0, 0)},
		{10, StateTransitioningUp, image.Pt(0, 0)},
		{11, StateTransitioningUp, image.Pt(0, -2)},
		{26, StateBottom, image.Pt(0, -32)},
		{31, StateTransitioningDown, image.Pt(0, -32)},
		{46, StateTransitioningDown, image.Pt(0, -2)},
		{47, StateTop, image.Pt(0, 0)},
	})
	if seam := a.Timeline.Seam(); seam.From != -1 {
		t.Errorf("popup should never need a repeat copy, got %+v", seam)
	}
}

func TestVariantErrors(t *testing.T) {
	g := Geometry{Container: image.Pt(10, 10), Content: image.Pt(10, 10)}
	tests := []struct {
		name string
		v    Variant
	}{
		{"scroll zero step", Scroll{Step: 0, Interval: 1}},
		{"scroll no reset", Scroll{Step: 1, Interval: 1, Reset: action.ResetNone}},
		{"slide zero interval", Slide{Step: 1}},
		{"slide negative pause", Slide{Step: 1, Interval: 1, Pause: -1}},
		{"popup nothing to do", Popup{Step: 1, Interval: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.v, g)
			if !errors.Is(err, animerr.ErrInvalidAction) {
				t.Errorf("Compile error = %v, want ErrInvalidAction", err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if k, err := ParseKind("Popup"); err != nil || k != KindPopup {
		t.Errorf("ParseKind(Popup) = %v, %v", k, err)
	}
	if _, err := ParseKind("bounce"); err == nil {
		t.Error("ParseKind(bounce) should fail")
	}
	if m, err := ParseSlideMode("in-out"); err != nil || m != SlideInOut {
		t.Errorf("ParseSlideMode(in-out) = %v, %v", m, err)
	}
	if StateTransitioningDown.String() != "transitioning_down" {
		t.Errorf("unexpected state name %q", StateTransitioningDown)
	}
}
