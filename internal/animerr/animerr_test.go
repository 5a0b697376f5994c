package animerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindInvalidAction, "invalid_action"},
		{KindInvalidTick, "invalid_tick"},
		{KindUnreachableOrigin, "unreachable_origin"},
		{KindCoordination, "coordination"},
		{KindDisposed, "disposed"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("compile page: %w", Action("timeline.Compile", 2, "step size %d must be >= 1", 0))

	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected %v to match ErrInvalidAction", err)
	}
	if errors.Is(err, ErrInvalidTick) {
		t.Errorf("invalid action must not match ErrInvalidTick")
	}
	if got := KindOf(err); got != KindInvalidAction {
		t.Errorf("KindOf = %v, want %v", got, KindInvalidAction)
	}
	if !strings.Contains(err.Error(), "action=2") {
		t.Errorf("error string %q should name the action index", err.Error())
	}
}

func TestErrorWithoutIndex(t *testing.T) {
	err := New("timeline.PositionAt", KindInvalidTick, "tick %d is negative", -3)
	want := "timeline.PositionAt [invalid_tick]: tick -3 is negative"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Errorf("plain errors should have KindUnknown")
	}
}
