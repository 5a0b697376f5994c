package timeline

import (
	"image"
	"math"
	"testing"

	"github.com/ivlev/tinydisplay/internal/action"
)

func mustSample(t *testing.T, tl *Timeline, tick int) Sample {
	t.Helper()
	s, err := tl.Sample(tick)
	if err != nil {
		t.Fatalf("Sample(%d) failed: %v", tick, err)
	}
	return s
}

func loopDef(reset action.ResetMode) action.Definition {
	return action.Definition{
		Actions:   []action.Action{action.Move(action.Left, 12, 1, 1)},
		Container: image.Pt(20, 5),
		Content:   image.Pt(5, 5),
		Reset:     reset,
	}
}

func TestFadeOpacityAroundWrap(t *testing.T) {
	def := loopDef(action.ResetFade)
	def.FadeTicks = 3
	tl := mustCompile(t, def)
	if tl.Period() != 12 {
		t.Fatalf("Period = %d, want 12", tl.Period())
	}

	tests := []struct {
		tick    int
		opacity float64
		wrapped bool
	}{
		{0, 1, false},
		{1, 1, false},
		{8, 1, false},
		{9, 1, false},
		{10, 2.0 / 3, false},
		{11, 1.0 / 3, false},
		{12, 0, true},
		{13, 1.0 / 3, false},
		{14, 2.0 / 3, false},
		{15, 1, false},
		{22, 2.0 / 3, false},
		{23, 1.0 / 3, false},
		{24, 0, true},
	}
	for _, tt := range tests {
		s := mustSample(t, tl, tt.tick)
		if math.Abs(s.Opacity-tt.opacity) > 1e-9 {
			t.Errorf("tick %d: Opacity = %.3f, want %.3f", tt.tick, s.Opacity, tt.opacity)
		}
		if s.Wrapped != tt.wrapped {
			t.Errorf("tick %d: Wrapped = %v, want %v", tt.tick, s.Wrapped, tt.wrapped)
		}
	}
}

func TestFadeTicksCappedAtHalfPeriod(t *testing.T) {
	def := loopDef(action.ResetFade)
	def.FadeTicks = 100
	tl := mustCompile(t, def)

	// ramp length becomes 6, so the fade-out starts halfway through the cycle
	if s := mustSample(t, tl, 5); s.Opacity != 1 {
		t.Errorf("tick 5: Opacity = %.3f, want 1", s.Opacity)
	}
	if s := mustSample(t, tl, 9); math.Abs(s.Opacity-0.5) > 1e-9 {
		t.Errorf("tick 9: Opacity = %.3f, want 0.5", s.Opacity)
	}
}

func TestInstantWrapped(t *testing.T) {
	tl := mustCompile(t, loopDef(action.ResetInstant))

	for tick := 0; tick < 40; tick++ {
		s := mustSample(t, tl, tick)
		want := tick > 0 && tick%12 == 0
		if s.Wrapped != want {
			t.Errorf("tick %d: Wrapped = %v, want %v", tick, s.Wrapped, want)
		}
		if s.Opacity != 1 {
			t.Errorf("tick %d: Opacity = %.3f, want 1", tick, s.Opacity)
		}
		if s.Cycle != tick/12 || s.Index != tick%12 {
			t.Errorf("tick %d: Cycle/Index = %d/%d", tick, s.Cycle, s.Index)
		}
	}
}

func TestSeamlessDuplicate(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions:   []action.Action{action.Move(action.Left, 14, 1, 1)},
		Container: image.Pt(10, 5),
		Content:   image.Pt(4, 5),
		Reset:     action.ResetSeamless,
	})

	seam := tl.Seam()
	if seam.Span != image.Pt(14, 0) {
		t.Errorf("Seam.Span = %v, want (14,0)", seam.Span)
	}
	// the copy enters the container once content has moved 5 pixels left
	if seam.From != 5 {
		t.Fatalf("Seam.From = %d, want 5", seam.From)
	}

	tests := []struct {
		tick int
		dup  bool
	}{
		{0, false},
		{4, false},
		{5, true},
		{13, true},
		{14, false},
		{18, false},
		{19, true},
	}
	for _, tt := range tests {
		s := mustSample(t, tl, tt.tick)
		if s.Duplicate != tt.dup {
			t.Errorf("tick %d: Duplicate = %v, want %v", tt.tick, s.Duplicate, tt.dup)
		}
		if s.Wrapped {
			t.Errorf("tick %d: seamless loop reported Wrapped", tt.tick)
		}
	}
}
