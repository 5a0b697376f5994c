package coordination

import (
	"fmt"
	"strings"

	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/expr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Placement is a track's state on one tick after coordination.
type Placement struct {
	ID string
	timeline.Sample
	// Start is the effective start tick.
	Start int
	// Held is true while a barrier or start trigger keeps the track at its
	// start position.
	Held bool
	// Stopped is true once a stop trigger froze the track.
	Stopped bool
}

// Frame is the result of evaluating a group on one tick.
type Frame struct {
	Tick       int
	Placements []Placement // insertion order
	// Fired names the triggers that fired on this tick.
	Fired []string
	// Released names the barriers whose release tick is this tick.
	Released []string
}

// Get returns the placement of id.
func (f Frame) Get(id string) (Placement, bool) {
	for _, p := range f.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

type resolved struct {
	tl     *timeline.Timeline
	held   bool
	stopAt int
}

// evaluation resolves effective starts for one tick. Not safe for reuse
// across ticks.
type evaluation struct {
	g        *Group
	tick     int
	memo     map[string]*resolved
	visiting map[string]bool
}

func (g *Group) newEvaluation(tick int) *evaluation {
	return &evaluation{g: g, tick: tick, memo: make(map[string]*resolved), visiting: make(map[string]bool)}
}

// Evaluate computes every track's placement at tick and then evaluates the
// armed triggers. Triggers that fire take effect on this same tick. Call it
// once per rendered frame with non-decreasing ticks.
func (g *Group) Evaluate(tick int) (Frame, error) {
	const op = "coordination.Evaluate"
	if tick < 0 {
		return Frame{}, animerr.New(op, animerr.KindInvalidTick, "tick %d is negative", tick)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.trigMu.Lock()
	defer g.trigMu.Unlock()
	if tick < g.retiredAt {
		return Frame{}, animerr.New(op, animerr.KindInvalidTick, "tick %d precedes retired state at %d", tick, g.retiredAt)
	}

	frame, err := g.newEvaluation(tick).frame()
	if err != nil {
		return Frame{}, err
	}
	fired, err := g.fireTriggers(frame)
	if err != nil {
		return Frame{}, err
	}
	if len(fired) > 0 {
		if frame, err = g.newEvaluation(tick).frame(); err != nil {
			return Frame{}, err
		}
		frame.Fired = fired
	}
	return frame, nil
}

func (e *evaluation) frame() (Frame, error) {
	f := Frame{Tick: e.tick, Placements: make([]Placement, 0, len(e.g.order))}
	for _, id := range e.g.order {
		p, err := e.placement(id)
		if err != nil {
			return Frame{}, err
		}
		f.Placements = append(f.Placements, p)
	}
	for _, b := range e.g.barriers {
		at, ok, err := e.release(b)
		if err != nil {
			return Frame{}, err
		}
		if ok && at == e.tick {
			f.Released = append(f.Released, b.Name)
		}
	}
	return f, nil
}

func (e *evaluation) placement(id string) (Placement, error) {
	r, err := e.resolve(id)
	if err != nil {
		return Placement{}, err
	}
	p := Placement{ID: id, Start: r.tl.StartTick(), Held: r.held}
	if r.held {
		p.Sample = timeline.Sample{Tick: e.tick, Position: r.tl.Origin(), Opacity: 1}
		return p, nil
	}
	at := e.tick
	if r.stopAt >= 0 && r.stopAt <= e.tick {
		at = r.stopAt
		p.Stopped = true
	}
	s, err := r.tl.Sample(at)
	if err != nil {
		return Placement{}, fmt.Errorf("track %q: %w", id, err)
	}
	if p.Stopped {
		s.Tick, s.Wrapped = e.tick, false
	}
	p.Sample = s
	return p, nil
}

// resolve applies, in increasing precedence, sequences, syncs, barriers and
// triggers to the track's own start tick.
func (e *evaluation) resolve(id string) (*resolved, error) {
	if r, ok := e.memo[id]; ok {
		return r, nil
	}
	if e.visiting[id] {
		return nil, coordErr("coordination.Evaluate", "circular wait involving track %q", id)
	}
	e.visiting[id] = true
	defer delete(e.visiting, id)

	t := e.g.tracks[id]
	start := t.tl.StartTick()
	if s, ok := e.g.sequencedStart(id); ok {
		start = s
	}

	syncAt := -1
	for _, s := range e.g.syncs {
		if s.Target <= e.tick && contains(s.Participants, id) {
			syncAt = max(syncAt, s.Target)
		}
	}
	if syncAt >= 0 {
		start = syncAt
	}

	held := false
	releaseAt := -1
	for _, b := range e.g.barriers {
		if !contains(b.Gated, id) {
			continue
		}
		at, ok, err := e.release(b)
		if err != nil {
			return nil, err
		}
		if !ok {
			held = true
			continue
		}
		releaseAt = max(releaseAt, at)
	}
	if !held && releaseAt >= 0 {
		start = releaseAt
	}

	stopAt := t.stopAt
	lastStart, startTargeted := -1, false
	for i, tr := range e.g.triggers {
		if !contains(tr.Targets, id) {
			continue
		}
		last := -1
		for _, f := range e.g.trigState[i].fires {
			if f <= e.tick {
				last = f
			}
		}
		switch tr.Action {
		case TriggerStart:
			startTargeted = true
			lastStart = max(lastStart, last)
		case TriggerStop:
			stopAt = max(stopAt, last)
		}
	}
	if startTargeted && !t.started {
		held = lastStart < 0
	}
	if lastStart >= 0 {
		start, held = lastStart, false
	}
	if lastStart >= 0 && stopAt < lastStart {
		stopAt = -1
	}

	r := &resolved{tl: t.tl, held: held, stopAt: stopAt}
	if start != t.tl.StartTick() {
		r.tl = t.tl.WithStart(start)
	}
	e.memo[id] = r
	return r, nil
}

// release returns the release tick of b and whether it has been reached.
func (e *evaluation) release(b Barrier) (int, bool, error) {
	at := b.Target
	for _, p := range b.Participants {
		if _, ok := e.g.tracks[p]; !ok {
			continue
		}
		r, err := e.resolve(p)
		if err != nil {
			return 0, false, err
		}
		if r.tl.Periodic() {
			return 0, false, coordErr("coordination.Evaluate", "barrier %q waits on periodic track %q", b.Name, p)
		}
		if r.held {
			return 0, false, nil
		}
		done, _ := r.tl.CompleteTick()
		if r.stopAt >= 0 {
			done = min(done, r.stopAt)
		}
		at = max(at, done)
	}
	return at, at <= e.tick, nil
}

// fireTriggers evaluates armed triggers against frame. Caller holds trigMu.
func (g *Group) fireTriggers(frame Frame) ([]string, error) {
	env := expr.Chain{frameEnv(frame), g.env}
	var fired []string
	for i, tr := range g.triggers {
		st := g.trigState[i]
		if n := len(st.fires); n > 0 && st.fires[n-1] >= frame.Tick {
			continue
		}
		ok, err := tr.When.Bool(env)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", tr.Name, err)
		}
		if !st.armed {
			if tr.Rearm && !ok {
				st.armed = true
			}
			continue
		}
		if ok {
			st.fires = append(st.fires, frame.Tick)
			st.armed = false
			fired = append(fired, tr.Name)
		}
	}
	return fired, nil
}

// frameEnv exposes "tick" and "<track>.<field>" to trigger predicates.
type frameEnv Frame

func (f frameEnv) Lookup(name string) (any, bool) {
	if name == "tick" {
		return f.Tick, true
	}
	id, field, ok := strings.Cut(name, ".")
	if !ok {
		return nil, false
	}
	p, ok := Frame(f).Get(id)
	if !ok {
		return nil, false
	}
	switch field {
	case "x":
		return p.Position.X, true
	case "y":
		return p.Position.Y, true
	case "started":
		return p.Started, true
	case "complete":
		return p.Complete, true
	case "held":
		return p.Held, true
	case "stopped":
		return p.Stopped, true
	case "cycle":
		return p.Cycle, true
	case "index":
		return p.Index, true
	case "phase":
		return p.Phase, true
	}
	return nil, false
}
