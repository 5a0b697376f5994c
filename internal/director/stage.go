package director

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/analyzer"
	"github.com/ivlev/tinydisplay/internal/binding"
	"github.com/ivlev/tinydisplay/internal/coordination"
	"github.com/ivlev/tinydisplay/internal/effects"
	"github.com/ivlev/tinydisplay/internal/expr"
	"github.com/ivlev/tinydisplay/internal/marquee"
	"github.com/ivlev/tinydisplay/internal/renderer"
	"github.com/ivlev/tinydisplay/internal/source"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Options configure staging.
type Options struct {
	// BaseDir resolves relative content paths, usually the page's directory.
	BaseDir string
	// Data supplies {name} placeholders and trigger predicates. May be nil.
	Data binding.Source
	// Scale is the output upscale factor.
	Scale int
}

type staged struct {
	spec    WidgetSpec
	src     source.Source
	variant marquee.Variant
	// dynamic widgets are recompiled when host data changes
	dynamic bool
	bg      color.Color
	tl      *timeline.Timeline
	widget  *renderer.Widget
}

// Stage is a page brought to life: rendered content, compiled timelines and
// the coordination group that places them on every tick.
type Stage struct {
	Page     *Page
	Renderer *renderer.Renderer
	Group    *coordination.Group

	opts    Options
	mu      sync.RWMutex
	staged  []*staged
	widgets []*renderer.Widget
	version uint64
}

// NewStage renders every widget, compiles its timeline and builds the
// coordination group.
func NewStage(page *Page, opts Options) (*Stage, error) {
	bg, err := parseOptionalColor(page.Display.Background)
	if err != nil {
		return nil, fmt.Errorf("display background: %w", err)
	}

	s := &Stage{
		Page: page,
		Renderer: &renderer.Renderer{
			Width:      page.Display.Width,
			Height:     page.Display.Height,
			Background: bg,
			Scale:      max(opts.Scale, 1),
		},
		opts: opts,
	}
	if opts.Data != nil {
		s.Group = coordination.NewGroup(opts.Data)
		s.version = opts.Data.Version()
	} else {
		s.Group = coordination.NewGroup(nil)
	}

	for _, spec := range page.Widgets {
		st, err := s.stageWidget(spec)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("widget %q: %w", spec.ID, err)
		}
		if err := s.Group.Add(spec.ID, st.tl); err != nil {
			st.src.Close()
			s.Close()
			return nil, err
		}
		s.staged = append(s.staged, st)
		s.widgets = append(s.widgets, st.widget)
	}

	if err := s.addCoordination(page.Coordination); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Group.Validate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Widgets returns the current widget snapshot. The slice and its widgets are
// never modified; Restage installs a new slice.
func (s *Stage) Widgets() []*renderer.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.widgets
}

// Timeline returns the compiled timeline of a widget.
func (s *Stage) Timeline(id string) (*timeline.Timeline, bool) {
	st := s.find(id)
	if st == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return st.tl, true
}

// State returns the variant state of a widget on tick. ok is false for
// widgets animated by raw action lists or not animated at all.
func (s *Stage) State(id string, tick int) (state marquee.State, ok bool, err error) {
	st := s.find(id)
	if st == nil || st.variant == nil {
		return 0, false, nil
	}
	s.mu.RLock()
	tl := st.tl
	s.mu.RUnlock()
	state, err = st.variant.StateAt(tl, tick)
	return state, true, err
}

func (s *Stage) find(id string) *staged {
	for _, st := range s.staged {
		if st.spec.ID == id {
			return st
		}
	}
	return nil
}

// Restage re-renders widgets that depend on host data once the data version
// has moved. A widget whose content size changed is recompiled and replaced
// in the group; its start tick is preserved. Returns the ids re-rendered.
// Not safe to call concurrently with Group.Evaluate.
func (s *Stage) Restage() ([]string, error) {
	if s.opts.Data == nil {
		return nil, nil
	}
	v := s.opts.Data.Version()
	if v == s.version {
		return nil, nil
	}
	s.version = v

	var changed []string
	widgets := append([]*renderer.Widget(nil), s.Widgets()...)
	for i, st := range s.staged {
		if !st.dynamic {
			continue
		}
		img, err := s.renderContent(st)
		if err != nil {
			return changed, fmt.Errorf("widget %q: %w", st.spec.ID, err)
		}

		tl := st.tl
		if img.Bounds().Size() != tl.Definition().Content || len(st.spec.actions()) > 0 {
			tl, err = s.compile(st, img.Bounds().Size())
			if err != nil {
				return changed, fmt.Errorf("widget %q: %w", st.spec.ID, err)
			}
			if err := s.Group.Replace(st.spec.ID, tl); err != nil {
				return changed, err
			}
			log.Printf("[*] Виджет %s перекомпилирован: контент %v, период %d", st.spec.ID, img.Bounds().Size(), tl.Period())
		}

		w := s.newWidget(st, img, tl)
		s.mu.Lock()
		st.tl = tl
		st.widget = w
		s.mu.Unlock()
		widgets[i] = w
		changed = append(changed, st.spec.ID)
	}

	s.mu.Lock()
	s.widgets = widgets
	s.mu.Unlock()
	return changed, nil
}

func (s *Stage) stageWidget(spec WidgetSpec) (*staged, error) {
	bg, err := parseOptionalColor(spec.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	src, err := s.newSource(spec.Content)
	if err != nil {
		return nil, err
	}
	st := &staged{spec: spec, src: src, bg: bg}
	st.dynamic = len(spec.actions()) > 0 ||
		(spec.Content.Type == "text" || spec.Content.Type == "qr") && len(binding.Placeholders(spec.Content.Text)) > 0

	if a := spec.Animation; a != nil && len(a.Actions) == 0 {
		if st.variant, err = newVariant(a); err != nil {
			src.Close()
			return nil, err
		}
	}

	img, err := s.renderContent(st)
	if err != nil {
		src.Close()
		return nil, err
	}
	if st.tl, err = s.compile(st, img.Bounds().Size()); err != nil {
		src.Close()
		return nil, err
	}
	st.widget = s.newWidget(st, img, st.tl)
	return st, nil
}

func (s *Stage) newWidget(st *staged, content image.Image, tl *timeline.Timeline) *renderer.Widget {
	eff, err := effects.NewEffect(tl.ResetMode())
	if err != nil {
		eff = effects.PlainEffect{}
	}
	r := st.spec.Rect
	return &renderer.Widget{
		ID:         st.spec.ID,
		Rect:       image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H),
		Content:    content,
		Background: st.bg,
		Effect:     eff,
		Seam:       tl.Seam(),
	}
}

func (s *Stage) compile(st *staged, content image.Point) (*timeline.Timeline, error) {
	spec := st.spec
	container := image.Pt(spec.Rect.W, spec.Rect.H)
	start := image.Pt(spec.Start.X, spec.Start.Y)

	if st.variant != nil {
		return marquee.Compile(st.variant, marquee.Geometry{
			Container: container,
			Content:   content,
			Rest:      start,
			StartTick: spec.StartTick,
		})
	}

	def := action.Definition{
		Start:     start,
		Container: container,
		Content:   content,
		StartTick: spec.StartTick,
		Reset:     action.ResetNone,
	}
	if a := spec.Animation; a != nil {
		env := expr.Chain{Metrics(container, content, start)}
		if s.opts.Data != nil {
			env = append(env, s.opts.Data)
		}
		acts, err := ExpandActions(a.Actions, env)
		if err != nil {
			return nil, err
		}
		mode, err := action.ParseResetMode(a.Reset)
		if err != nil {
			return nil, err
		}
		if a.Reset == "" && untilBoundary(acts) {
			mode = action.ResetNone
		}
		def.Actions = acts
		def.Reset = mode
		def.FadeTicks = a.FadeTicks
	}
	return timeline.Compile(def)
}

func (s *Stage) renderContent(st *staged) (image.Image, error) {
	img, err := st.src.Render()
	if err != nil {
		return nil, err
	}
	c := st.spec.Content
	if c.Trim != "" {
		d, err := analyzer.NewDetector(c.Trim)
		if err != nil {
			return nil, err
		}
		if img, err = analyzer.Trim(img, d); err != nil {
			return nil, err
		}
	}
	if c.Fit != nil {
		img = renderer.Fit(img, image.Pt(c.Fit.X, c.Fit.Y))
	}
	return img, nil
}

func (s *Stage) newSource(c ContentSpec) (source.Source, error) {
	fg, err := parseOptionalColor(c.Color)
	if err != nil {
		return nil, err
	}
	bg, err := parseOptionalColor(c.Background)
	if err != nil {
		return nil, err
	}

	switch c.Type {
	case "text":
		face, err := source.ParseFace(c.Font)
		if err != nil {
			return nil, err
		}
		return &source.Text{Template: c.Text, Data: s.opts.Data, Face: face, Color: fg, Background: bg, Cells: c.Cells}, nil
	case "qr":
		level, err := source.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		return &source.QR{Template: c.Text, Data: s.opts.Data, Level: level, Module: c.Module, Border: c.Border, Color: fg, Background: bg}, nil
	case "image":
		return source.NewImageSource(ResolvePath(s.opts.BaseDir, c.Path), c.Page)
	case "pdf":
		return source.NewFitzPDFSource(ResolvePath(s.opts.BaseDir, c.Path), c.Page, c.DPI)
	}
	return nil, fmt.Errorf("unknown content type %q", c.Type)
}

func newVariant(a *AnimationSpec) (marquee.Variant, error) {
	switch {
	case a.Scroll != nil:
		sc := a.Scroll
		dir, err := action.ParseDirection(sc.Direction)
		if err != nil {
			return nil, err
		}
		easing, err := action.ParseEasing(sc.Easing)
		if err != nil {
			return nil, err
		}
		reset, err := action.ParseResetMode(sc.Reset)
		if err != nil {
			return nil, err
		}
		return marquee.Scroll{
			Direction:           dir,
			Step:                orOne(sc.Step),
			Interval:            orOne(sc.Interval),
			Gap:                 sc.Gap,
			Easing:              easing,
			Reset:               reset,
			FadeTicks:           sc.FadeTicks,
			OnlyWhenOverflowing: sc.OnlyWhenOverflowing,
		}, nil
	case a.Slide != nil:
		sl := a.Slide
		mode, err := marquee.ParseSlideMode(sl.Mode)
		if err != nil {
			return nil, err
		}
		dir, err := action.ParseDirection(sl.Direction)
		if err != nil {
			return nil, err
		}
		easing, err := action.ParseEasing(sl.Easing)
		if err != nil {
			return nil, err
		}
		return marquee.Slide{
			Mode:      mode,
			Direction: dir,
			Step:      orOne(sl.Step),
			Interval:  orOne(sl.Interval),
			Easing:    easing,
			Delay:     sl.Delay,
			Pause:     sl.Pause,
			Repeat:    sl.Repeat,
		}, nil
	case a.Popup != nil:
		p := a.Popup
		easing, err := action.ParseEasing(p.Easing)
		if err != nil {
			return nil, err
		}
		return marquee.Popup{
			TopDelay:    p.TopDelay,
			BottomDelay: p.BottomDelay,
			Step:        orOne(p.Step),
			Interval:    orOne(p.Interval),
			Easing:      easing,
			Distance:    p.Distance,
		}, nil
	}
	return nil, fmt.Errorf("animation has no variant")
}

func (s *Stage) addCoordination(c *CoordinationSpec) error {
	if c == nil {
		return nil
	}
	for _, sy := range c.Syncs {
		if err := s.Group.AddSync(coordination.Sync{Name: sy.Name, Target: sy.Target, Participants: sy.Participants}); err != nil {
			return err
		}
	}
	for _, b := range c.Barriers {
		if err := s.Group.AddBarrier(coordination.Barrier{Name: b.Name, Target: b.Target, Participants: b.Participants, Gated: b.Gated}); err != nil {
			return err
		}
	}
	for _, sq := range c.Sequences {
		seq := coordination.Sequence{Name: sq.Name, Start: sq.Start}
		for _, e := range sq.Entries {
			seq.Entries = append(seq.Entries, coordination.SequenceEntry{ID: e.ID, Offset: e.Offset})
		}
		if err := s.Group.AddSequence(seq); err != nil {
			return err
		}
	}
	for _, t := range c.Triggers {
		when, err := expr.Parse(t.When)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", t.Name, err)
		}
		act, err := coordination.ParseTriggerAction(t.Action)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", t.Name, err)
		}
		if err := s.Group.AddTrigger(coordination.Trigger{Name: t.Name, When: when, Targets: t.Targets, Action: act, Rearm: t.Rearm}); err != nil {
			return err
		}
	}
	return nil
}

// TimelineDump is one widget's entry in a stage dump.
type TimelineDump struct {
	ID       string        `yaml:"id"`
	State    string        `yaml:"state,omitempty"`
	Timeline timeline.Dump `yaml:"timeline"`
}

// WriteDump writes every widget's compiled timeline as YAML, with the
// variant state at tick.
func (s *Stage) WriteDump(w io.Writer, tick int) error {
	var out []TimelineDump
	for _, st := range s.staged {
		tl, _ := s.Timeline(st.spec.ID)
		d := TimelineDump{ID: st.spec.ID, Timeline: tl.Snapshot()}
		if state, ok, err := s.State(st.spec.ID, tick); err != nil {
			return err
		} else if ok {
			d.State = state.String()
		}
		out = append(out, d)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// Close releases content sources.
func (s *Stage) Close() error {
	var first error
	for _, st := range s.staged {
		if err := st.src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (w WidgetSpec) actions() []ActionSpec {
	if w.Animation == nil {
		return nil
	}
	return w.Animation.Actions
}

func untilBoundary(acts []action.Action) bool {
	for _, a := range acts {
		if a.Kind == action.KindMove && a.UntilBoundary {
			return true
		}
	}
	return false
}

func parseOptionalColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := source.ParseColor(s)
	if err != nil {
		return nil, err
	}
	return c, nil
}
