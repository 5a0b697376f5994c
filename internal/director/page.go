package director

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/tinydisplay/internal/expr"
)

// CurrentVersion is the page file format this package reads and writes.
const CurrentVersion = 1

// Page is one screen of widgets and their coordination plan.
type Page struct {
	Version      int               `yaml:"version"`
	Display      Display           `yaml:"display"`
	Widgets      []WidgetSpec      `yaml:"widgets"`
	Coordination *CoordinationSpec `yaml:"coordination,omitempty"`
}

// Display is the physical display the page is laid out for.
type Display struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background,omitempty"`
}

// Rectangle is a widget window in display pixels.
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Point is a pixel offset.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type WidgetSpec struct {
	ID         string         `yaml:"id"`
	Rect       Rectangle      `yaml:"rect"`
	Background string         `yaml:"background,omitempty"`
	Content    ContentSpec    `yaml:"content"`
	Start      Point          `yaml:"start,omitempty"`
	StartTick  int            `yaml:"start_tick,omitempty"`
	Animation  *AnimationSpec `yaml:"animation,omitempty"`
}

// ContentSpec selects and configures the widget's content source.
type ContentSpec struct {
	Type string `yaml:"type"` // text, image, pdf, qr

	// text and qr; {name} placeholders are filled from host data
	Text       string `yaml:"text,omitempty"`
	Font       string `yaml:"font,omitempty"`
	Color      string `yaml:"color,omitempty"`
	Background string `yaml:"background,omitempty"`
	Cells      bool   `yaml:"cells,omitempty"`

	// image and pdf
	Path string `yaml:"path,omitempty"`
	Page int    `yaml:"page,omitempty"`
	DPI  int    `yaml:"dpi,omitempty"`
	Trim string `yaml:"trim,omitempty"` // detector variant; empty keeps margins
	Fit  *Point `yaml:"fit,omitempty"`  // scale to x by y, zero keeps aspect

	// qr
	Level  string `yaml:"level,omitempty"`
	Module int    `yaml:"module,omitempty"`
	Border bool   `yaml:"border,omitempty"`
}

// AnimationSpec is exactly one of the variant shorthands or a raw action
// list.
type AnimationSpec struct {
	Scroll  *ScrollSpec  `yaml:"scroll,omitempty"`
	Slide   *SlideSpec   `yaml:"slide,omitempty"`
	Popup   *PopupSpec   `yaml:"popup,omitempty"`
	Actions []ActionSpec `yaml:"actions,omitempty"`

	// raw action lists only
	Reset     string `yaml:"reset,omitempty"`
	FadeTicks int    `yaml:"fade_ticks,omitempty"`
}

type ScrollSpec struct {
	Direction           string `yaml:"direction"`
	Step                int    `yaml:"step,omitempty"`
	Interval            int    `yaml:"interval,omitempty"`
	Gap                 int    `yaml:"gap,omitempty"`
	Easing              string `yaml:"easing,omitempty"`
	Reset               string `yaml:"reset,omitempty"`
	FadeTicks           int    `yaml:"fade_ticks,omitempty"`
	OnlyWhenOverflowing bool   `yaml:"only_when_overflowing,omitempty"`
}

type SlideSpec struct {
	Mode      string `yaml:"mode"`
	Direction string `yaml:"direction"`
	Step      int    `yaml:"step,omitempty"`
	Interval  int    `yaml:"interval,omitempty"`
	Easing    string `yaml:"easing,omitempty"`
	Delay     int    `yaml:"delay,omitempty"`
	Pause     int    `yaml:"pause,omitempty"`
	Repeat    bool   `yaml:"repeat,omitempty"`
}

type PopupSpec struct {
	TopDelay    int    `yaml:"top_delay"`
	BottomDelay int    `yaml:"bottom_delay"`
	Step        int    `yaml:"step,omitempty"`
	Interval    int    `yaml:"interval,omitempty"`
	Easing      string `yaml:"easing,omitempty"`
	Distance    int    `yaml:"distance,omitempty"`
}

// ActionSpec is one entry of a raw action list: exactly one field is set.
type ActionSpec struct {
	Move          *MoveSpec   `yaml:"move,omitempty"`
	Pause         *PauseSpec  `yaml:"pause,omitempty"`
	ReturnToStart *ReturnSpec `yaml:"return_to_start,omitempty"`
	Loop          *LoopSpec   `yaml:"loop,omitempty"`
	If            *IfSpec     `yaml:"if,omitempty"`
}

type MoveSpec struct {
	Direction     string  `yaml:"direction"`
	Distance      IntExpr `yaml:"distance,omitempty"`
	UntilBoundary bool    `yaml:"until_boundary,omitempty"`
	Step          int     `yaml:"step,omitempty"`
	Interval      int     `yaml:"interval,omitempty"`
	Gap           IntExpr `yaml:"gap,omitempty"`
	Easing        string  `yaml:"easing,omitempty"`
	Label         string  `yaml:"label,omitempty"`
}

type PauseSpec struct {
	Ticks IntExpr `yaml:"ticks"`
	Label string  `yaml:"label,omitempty"`
}

type ReturnSpec struct {
	Axis     string `yaml:"axis,omitempty"`
	Step     int    `yaml:"step,omitempty"`
	Interval int    `yaml:"interval,omitempty"`
	Label    string `yaml:"label,omitempty"`
}

// LoopSpec repeats Actions Count times.
type LoopSpec struct {
	Count   IntExpr      `yaml:"count"`
	Actions []ActionSpec `yaml:"actions"`
}

// IfSpec picks the first branch whose condition holds.
type IfSpec struct {
	Cond string       `yaml:"cond"`
	Then []ActionSpec `yaml:"then"`
	Elif []ElifSpec   `yaml:"elif,omitempty"`
	Else []ActionSpec `yaml:"else,omitempty"`
}

type ElifSpec struct {
	Cond string       `yaml:"cond"`
	Then []ActionSpec `yaml:"then"`
}

type CoordinationSpec struct {
	Syncs     []SyncSpec     `yaml:"syncs,omitempty"`
	Barriers  []BarrierSpec  `yaml:"barriers,omitempty"`
	Sequences []SequenceSpec `yaml:"sequences,omitempty"`
	Triggers  []TriggerSpec  `yaml:"triggers,omitempty"`
}

type SyncSpec struct {
	Name         string   `yaml:"name"`
	Target       int      `yaml:"target"`
	Participants []string `yaml:"participants"`
}

type BarrierSpec struct {
	Name         string   `yaml:"name"`
	Target       int      `yaml:"target"`
	Participants []string `yaml:"participants"`
	Gated        []string `yaml:"gated"`
}

type SequenceSpec struct {
	Name    string      `yaml:"name"`
	Start   int         `yaml:"start"`
	Entries []EntrySpec `yaml:"entries"`
}

type EntrySpec struct {
	ID     string `yaml:"id"`
	Offset int    `yaml:"offset"`
}

type TriggerSpec struct {
	Name    string   `yaml:"name"`
	When    string   `yaml:"when"`
	Targets []string `yaml:"targets"`
	Action  string   `yaml:"action,omitempty"`
	Rearm   bool     `yaml:"rearm,omitempty"`
}

// IntExpr is an integer written either as a literal or as an expression over
// widget metrics, e.g. "content.width + 8".
type IntExpr string

func (e *IntExpr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected integer or expression", node.Line)
	}
	*e = IntExpr(node.Value)
	return nil
}

func (e IntExpr) MarshalYAML() (any, error) {
	if n, err := strconv.Atoi(string(e)); err == nil {
		return n, nil
	}
	return string(e), nil
}

// Eval returns the value of e in env. Empty means zero.
func (e IntExpr) Eval(env expr.Env) (int, error) {
	s := strings.TrimSpace(string(e))
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	x, err := expr.Parse(s)
	if err != nil {
		return 0, err
	}
	return x.Int(env)
}
