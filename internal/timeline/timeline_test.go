package timeline

import (
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/animerr"
)

func mustCompile(t *testing.T, def action.Definition) *Timeline {
	t.Helper()
	tl, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return tl
}

func mustPos(t *testing.T, tl *Timeline, tick int) image.Point {
	t.Helper()
	p, err := tl.PositionAt(tick)
	if err != nil {
		t.Fatalf("PositionAt(%d) failed: %v", tick, err)
	}
	return p
}

func mustComplete(t *testing.T, tl *Timeline, tick int) bool {
	t.Helper()
	done, err := tl.IsCompleteAt(tick)
	if err != nil {
		t.Fatalf("IsCompleteAt(%d) failed: %v", tick, err)
	}
	return done
}

func TestMoveLeftEndToEnd(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Move(action.Left, 100, 5, 2)},
		Reset:   action.ResetNone,
	})

	tests := []struct {
		tick int
		x    int
	}{
		{0, 0},
		{1, 0},
		{2, -5},
		{3, -5},
		{39, -95},
		{40, -100},
		{1000, -100},
	}
	for _, tt := range tests {
		if got := mustPos(t, tl, tt.tick); got.X != tt.x || got.Y != 0 {
			t.Errorf("PositionAt(%d) = %v, want (%d, 0)", tt.tick, got, tt.x)
		}
	}

	if mustComplete(t, tl, 39) {
		t.Error("IsCompleteAt(39) = true, want false")
	}
	if !mustComplete(t, tl, 40) {
		t.Error("IsCompleteAt(40) = false, want true")
	}
	if tl.Period() != 41 {
		t.Errorf("Period() = %d, want 41", tl.Period())
	}
}

func TestDistanceExactness(t *testing.T) {
	tests := []struct {
		distance, step int
		dir            action.Direction
	}{
		{100, 7, action.Left},
		{10, 3, action.Right},
		{13, 4, action.Up},
		{1, 5, action.Down},
		{99, 1, action.Left},
	}
	for _, tt := range tests {
		start := image.Pt(3, -2)
		tl := mustCompile(t, action.Definition{
			Actions: []action.Action{action.Move(tt.dir, tt.distance, tt.step, 1)},
			Start:   start,
			Reset:   action.ResetNone,
		})
		got := mustPos(t, tl, tl.Period()+5)
		want := start.Add(tt.dir.Unit().Mul(tt.distance))
		if got != want {
			t.Errorf("%s %d step %d: final = %v, want %v", tt.dir, tt.distance, tt.step, got, want)
		}
	}
}

func TestEasedMoveStaysExact(t *testing.T) {
	for _, e := range []action.Easing{action.EaseIn, action.EaseOut, action.EaseInOut} {
		tl := mustCompile(t, action.Definition{
			Actions: []action.Action{action.Move(action.Right, 37, 4, 1).WithEasing(e)},
			Reset:   action.ResetNone,
		})
		prev := 0
		for tick := 0; tick < tl.Period(); tick++ {
			x := mustPos(t, tl, tick).X
			if x < prev {
				t.Errorf("%s: position went backwards at tick %d: %d < %d", e, tick, x, prev)
			}
			prev = x
		}
		if prev != 37 {
			t.Errorf("%s: final x = %d, want 37", e, prev)
		}
	}
}

func TestPeriodicity(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{
			action.Pause(3),
			action.Move(action.Up, 8, 2, 3),
			action.Pause(4),
			action.ReturnToStart(action.AxisVertical, 4, 1),
		},
		Reset: action.ResetInstant,
	})
	if !tl.Periodic() {
		t.Fatal("expected periodic timeline")
	}
	p := tl.Period()
	for tick := 0; tick < 3*p; tick++ {
		a, b := mustPos(t, tl, tick), mustPos(t, tl, tick+p)
		if a != b {
			t.Fatalf("PositionAt(%d) = %v but PositionAt(%d) = %v", tick, a, tick+p, b)
		}
		if mustComplete(t, tl, tick) {
			t.Fatalf("periodic timeline reported complete at %d", tick)
		}
	}
}

func TestBoundaryClamping(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions:   []action.Action{action.Pause(2), action.MoveUntilBoundary(action.Left, 3, 1)},
		Start:     image.Pt(5, 0),
		Container: image.Pt(20, 8),
		Content:   image.Pt(10, 8),
		Reset:     action.ResetNone,
	})
	p := tl.Period()
	last := mustPos(t, tl, p-1)
	if last.X != -10 {
		t.Errorf("final x = %d, want -10 (content fully left of container)", last.X)
	}
	for tick := p; tick < p+20; tick++ {
		if got := mustPos(t, tl, tick); got != last {
			t.Errorf("PositionAt(%d) = %v, want %v", tick, got, last)
		}
	}
	for tick := p - 1; tick < p+5; tick++ {
		if !mustComplete(t, tl, tick) {
			t.Errorf("IsCompleteAt(%d) = false, want true", tick)
		}
	}
	if mustComplete(t, tl, p-2) {
		t.Errorf("IsCompleteAt(%d) = true, want false", p-2)
	}
}

func TestGapSpacing(t *testing.T) {
	const content, gap, container = 30, 10, 20
	tl := mustCompile(t, action.Definition{
		Actions:   []action.Action{action.Move(action.Left, content, 1, 1).WithGap(gap)},
		Container: image.Pt(container, 8),
		Content:   image.Pt(content, 8),
		Reset:     action.ResetSeamless,
	})
	if tl.Period() != content+gap {
		t.Fatalf("Period() = %d, want %d", tl.Period(), content+gap)
	}

	seam := tl.Seam()
	if seam.Span.X-content != gap {
		t.Errorf("repeat copy sits %d px after the content tail, want %d", seam.Span.X-content, gap)
	}

	// Tick where the trailing edge clears the container's left edge.
	trailingClear := -1
	for tick := 0; tick < tl.Period(); tick++ {
		if mustPos(t, tl, tick).X+content == 0 {
			trailingClear = tick
			break
		}
	}
	if trailingClear < 0 {
		t.Fatal("trailing edge never cleared the container")
	}
	// The repeat's leading edge reaches the same edge when the cycle wraps.
	wrap := tl.Period()
	if got := mustPos(t, tl, wrap); got != tl.Origin() {
		t.Fatalf("PositionAt(wrap) = %v, want origin %v", got, tl.Origin())
	}
	lastStep := mustPos(t, tl, wrap-1).X - 1
	traveled := mustPos(t, tl, trailingClear).X - lastStep
	if traveled != gap {
		t.Errorf("travel between tail clearing and repeat entering = %d, want %d", traveled, gap)
	}
}

func TestGapIgnoredWhenFinite(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Move(action.Left, 30, 1, 1).WithGap(10)},
		Reset:   action.ResetNone,
	})
	if got := tl.Final().X; got != -30 {
		t.Errorf("Final().X = %d, want -30", got)
	}
}

func TestReturnToStart(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{
			action.Move(action.Right, 9, 3, 1),
			action.Move(action.Down, 4, 1, 1),
			action.ReturnToStart(action.AxisBoth, 2, 1),
		},
		Start: image.Pt(1, 1),
		Reset: action.ResetNone,
	})
	if got := tl.Final(); got != image.Pt(1, 1) {
		t.Errorf("Final() = %v, want (1,1)", got)
	}

	horizontal := mustCompile(t, action.Definition{
		Actions: []action.Action{
			action.Move(action.Right, 9, 3, 1),
			action.Move(action.Down, 4, 1, 1),
			action.ReturnToStart(action.AxisHorizontal, 2, 1),
		},
		Reset: action.ResetNone,
	})
	if got := horizontal.Final(); got != image.Pt(0, 4) {
		t.Errorf("horizontal return Final() = %v, want (0,4)", got)
	}
}

func TestZeroDistanceReturnIsNoop(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Pause(2), action.ReturnToStart(action.AxisBoth, 1, 1)},
		Reset:   action.ResetNone,
	})
	if tl.Period() != 3 {
		t.Errorf("Period() = %d, want 3 (pause plus arrival tick)", tl.Period())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		def  action.Definition
		want error
	}{
		{"zero step", action.Definition{Actions: []action.Action{action.Move(action.Left, 10, 0, 1)}}, animerr.ErrInvalidAction},
		{"zero interval", action.Definition{Actions: []action.Action{action.Move(action.Left, 10, 1, 0)}}, animerr.ErrInvalidAction},
		{"negative pause", action.Definition{Actions: []action.Action{action.Pause(-1)}}, animerr.ErrInvalidAction},
		{"looping boundary move", action.Definition{
			Actions: []action.Action{action.MoveUntilBoundary(action.Left, 1, 1)},
			Reset:   action.ResetInstant,
		}, animerr.ErrInvalidAction},
		{"return after boundary move", action.Definition{
			Actions: []action.Action{action.MoveUntilBoundary(action.Left, 1, 1), action.ReturnToStart(action.AxisBoth, 1, 1)},
			Reset:   action.ResetNone,
		}, animerr.ErrUnreachableOrigin},
		{"move after boundary move", action.Definition{
			Actions: []action.Action{action.MoveUntilBoundary(action.Left, 1, 1), action.Pause(3)},
			Reset:   action.ResetNone,
		}, animerr.ErrInvalidAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.def)
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTickErrors(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Move(action.Left, 10, 1, 1)},
	})
	if _, err := tl.PositionAt(-1); !errors.Is(err, animerr.ErrInvalidTick) {
		t.Errorf("PositionAt(-1) error = %v, want ErrInvalidTick", err)
	}

	derived := tl.WithStart(5)
	tl.Dispose()
	if _, err := derived.PositionAt(3); !errors.Is(err, animerr.ErrDisposed) {
		t.Errorf("PositionAt on disposed timeline error = %v, want ErrDisposed", err)
	}
}

func TestBeforeStartTick(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions:   []action.Action{action.Move(action.Left, 10, 1, 1)},
		Start:     image.Pt(4, 0),
		StartTick: 10,
	})
	for tick := 0; tick <= 10; tick++ {
		if got := mustPos(t, tl, tick); got != image.Pt(4, 0) {
			t.Errorf("PositionAt(%d) = %v, want initial (4,0)", tick, got)
		}
	}
	if got := mustPos(t, tl, 11); got.X != 3 {
		t.Errorf("PositionAt(11).X = %d, want 3", got.X)
	}
}

func TestStaticTimeline(t *testing.T) {
	tl := mustCompile(t, action.Definition{Start: image.Pt(2, 2)})
	if tl.Periodic() {
		t.Error("empty action list should be static, not periodic")
	}
	if !mustComplete(t, tl, 0) {
		t.Error("static timeline should be complete at its start tick")
	}
	if got := mustPos(t, tl, 50); got != image.Pt(2, 2) {
		t.Errorf("PositionAt(50) = %v, want (2,2)", got)
	}
}

func TestDeterminismAcrossGoroutines(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{
			action.Move(action.Left, 57, 3, 2).WithGap(7),
			action.Pause(5),
		},
		Container: image.Pt(40, 10),
		Content:   image.Pt(57, 10),
		Reset:     action.ResetFade,
		FadeTicks: 4,
	})

	const ticks = 500
	want := make([]Sample, ticks)
	for tick := range want {
		s, err := tl.Sample(tick)
		if err != nil {
			t.Fatalf("Sample(%d): %v", tick, err)
		}
		want[tick] = s
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// walk in a different order per goroutine
			for i := 0; i < ticks; i++ {
				tick := (i*7 + w*31) % ticks
				s, err := tl.Sample(tick)
				if err != nil || s != want[tick] {
					errs <- "mismatch"
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestWithStartSharesPositions(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Move(action.Right, 12, 2, 1)},
		Reset:   action.ResetInstant,
	})
	shifted := tl.WithStart(20)
	for tick := 0; tick < 40; tick++ {
		if got, want := mustPos(t, shifted, tick+20), mustPos(t, tl, tick); got != want {
			t.Errorf("shifted(%d) = %v, want %v", tick+20, got, want)
		}
	}
	if shifted.StartTick() != 20 || tl.StartTick() != 0 {
		t.Errorf("start ticks = %d/%d, want 20/0", shifted.StartTick(), tl.StartTick())
	}
}

func TestTable(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{action.Move(action.Down, 4, 2, 2)},
		Reset:   action.ResetNone,
	})
	want := []image.Point{{0, 0}, {0, 0}, {0, 2}, {0, 2}, {0, 4}}
	got := tl.Table()
	if len(got) != len(want) {
		t.Fatalf("Table() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Table()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWriteYAML(t *testing.T) {
	tl := mustCompile(t, action.Definition{
		Actions: []action.Action{
			action.Pause(4).WithLabel("top"),
			action.Move(action.Up, 8, 2, 1).WithLabel("transitioning_up"),
		},
		Reset: action.ResetNone,
	})
	var b strings.Builder
	if err := tl.WriteYAML(&b); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	out := b.String()
	t.Logf("dump:\n%s", out)
	for _, want := range []string{"period: 9", "reset: none", "label: transitioning_up", "kind: pause"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q", want)
		}
	}
}
