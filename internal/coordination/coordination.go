// Package coordination lets independently animated widgets share one tick
// clock: synchronized restarts, barriers that hold widgets until others
// finish, fixed-offset sequences and expression triggers.
//
// Primitives refer to tracks by id only. A primitive naming a track that is
// not in the group ignores it. Everything except trigger state is a pure
// function of the configuration and the tick.
package coordination

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ivlev/tinydisplay/internal/animerr"
	"github.com/ivlev/tinydisplay/internal/expr"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

var idPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Sync restarts every participant at Target, so each shows its start position
// on that tick.
type Sync struct {
	Name         string
	Target       int
	Participants []string
}

// Barrier holds the Gated tracks until Target has passed and every
// participant has completed. Gated tracks start on the release tick.
type Barrier struct {
	Name         string
	Target       int
	Participants []string
	Gated        []string
}

// SequenceEntry starts ID at Offset ticks after the sequence start.
type SequenceEntry struct {
	ID     string
	Offset int
}

// Sequence starts its entries at fixed offsets from Start.
type Sequence struct {
	Name    string
	Start   int
	Entries []SequenceEntry
}

// TriggerAction is what a trigger does to its targets when it fires.
type TriggerAction int

const (
	// TriggerStart holds targets at their start position until the trigger
	// fires, then starts them on the firing tick.
	TriggerStart TriggerAction = iota
	// TriggerStop freezes targets at their position on the firing tick.
	TriggerStop
)

func (a TriggerAction) String() string {
	if a == TriggerStop {
		return "stop"
	}
	return "start"
}

// ParseTriggerAction parses "start" or "stop".
func ParseTriggerAction(s string) (TriggerAction, error) {
	switch s {
	case "", "start":
		return TriggerStart, nil
	case "stop":
		return TriggerStop, nil
	}
	return 0, fmt.Errorf("unknown trigger action %q", s)
}

// Trigger fires the first evaluated tick at which When is true. With Rearm
// set it may fire again once When has been false for a tick.
type Trigger struct {
	Name    string
	When    *expr.Expr
	Targets []string
	Action  TriggerAction
	Rearm   bool
}

type triggerState struct {
	armed bool
	fires []int // ascending
}

type track struct {
	id      string
	tl      *timeline.Timeline
	baked   bool // start adjusted by a retired primitive
	started bool // a retired start trigger already released it
	stopAt  int  // -1 unless a retired stop trigger froze it
}

// Group is the coordination plan for one page.
type Group struct {
	mu        sync.RWMutex // configuration
	tracks    map[string]*track
	order     []string
	syncs     []Sync
	barriers  []Barrier
	sequences []Sequence
	triggers  []Trigger
	env       expr.Env

	trigMu    sync.Mutex // trigger state and retirement
	trigState []*triggerState
	retiredAt int
}

// NewGroup returns an empty group. env supplies host data to trigger
// predicates and may be nil.
func NewGroup(env expr.Env) *Group {
	return &Group{tracks: make(map[string]*track), env: env}
}

// Add registers a track under id.
func (g *Group) Add(id string, tl *timeline.Timeline) error {
	if !idPattern.MatchString(id) {
		return coordErr("coordination.Add", "invalid track id %q", id)
	}
	if tl == nil {
		return coordErr("coordination.Add", "track %q has no timeline", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tracks[id]; ok {
		return coordErr("coordination.Add", "duplicate track id %q", id)
	}
	g.tracks[id] = &track{id: id, tl: tl, stopAt: -1}
	g.order = append(g.order, id)
	return nil
}

// Replace swaps the timeline of an existing track, keeping any start a
// retired primitive baked into it. The previous timeline is disposed.
func (g *Group) Replace(id string, tl *timeline.Timeline) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tracks[id]
	if !ok {
		return coordErr("coordination.Replace", "unknown track %q", id)
	}
	old := t.tl
	if t.baked {
		tl = tl.WithStart(old.StartTick())
	}
	t.tl = tl
	old.Dispose()
	return nil
}

// Remove drops a track. Primitives naming it stop seeing it.
func (g *Group) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tracks[id]; !ok {
		return
	}
	delete(g.tracks, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Timeline returns the current timeline of a track.
func (g *Group) Timeline(id string) (*timeline.Timeline, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tracks[id]
	if !ok {
		return nil, false
	}
	return t.tl, true
}

// IDs returns track ids in insertion order.
func (g *Group) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

func (g *Group) AddSync(s Sync) error {
	const op = "coordination.AddSync"
	if s.Target < 0 {
		return coordErr(op, "sync %q: target tick %d is negative", s.Name, s.Target)
	}
	if len(s.Participants) == 0 {
		return coordErr(op, "sync %q has no participants", s.Name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.syncs = append(g.syncs, s)
	return nil
}

func (g *Group) AddBarrier(b Barrier) error {
	const op = "coordination.AddBarrier"
	if b.Target < 0 {
		return coordErr(op, "barrier %q: target tick %d is negative", b.Name, b.Target)
	}
	if len(b.Gated) == 0 {
		return coordErr(op, "barrier %q gates nothing", b.Name)
	}
	for _, p := range b.Participants {
		for _, q := range b.Gated {
			if p == q {
				return coordErr(op, "barrier %q: %q both waits and is waited on", b.Name, p)
			}
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.barriers = append(g.barriers, b)
	return nil
}

func (g *Group) AddSequence(s Sequence) error {
	const op = "coordination.AddSequence"
	if s.Start < 0 {
		return coordErr(op, "sequence %q: start tick %d is negative", s.Name, s.Start)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[string]bool)
	for _, e := range s.Entries {
		if e.Offset < 0 {
			return coordErr(op, "sequence %q: offset %d for %q is negative", s.Name, e.Offset, e.ID)
		}
		if _, dup := g.sequencedStart(e.ID); seen[e.ID] || dup {
			return coordErr(op, "sequence %q: %q is already sequenced", s.Name, e.ID)
		}
		seen[e.ID] = true
	}
	g.sequences = append(g.sequences, s)
	return nil
}

func (g *Group) AddTrigger(t Trigger) error {
	const op = "coordination.AddTrigger"
	if t.When == nil {
		return coordErr(op, "trigger %q has no condition", t.Name)
	}
	if len(t.Targets) == 0 {
		return coordErr(op, "trigger %q has no targets", t.Name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trigMu.Lock()
	defer g.trigMu.Unlock()
	g.triggers = append(g.triggers, t)
	g.trigState = append(g.trigState, &triggerState{armed: true})
	return nil
}

// Rearm lets a fired trigger fire again.
func (g *Group) Rearm(name string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.trigMu.Lock()
	defer g.trigMu.Unlock()
	for i, t := range g.triggers {
		if t.Name == name {
			g.trigState[i].armed = true
			return nil
		}
	}
	return coordErr("coordination.Rearm", "unknown trigger %q", name)
}

// Validate reports primitives that name tracks the group does not have.
// Evaluation tolerates them; staging a page does not.
func (g *Group) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	check := func(kind, name string, ids []string) error {
		for _, id := range ids {
			if _, ok := g.tracks[id]; !ok {
				return coordErr("coordination.Validate", "%s %q references unknown track %q", kind, name, id)
			}
		}
		return nil
	}
	for _, s := range g.syncs {
		if err := check("sync", s.Name, s.Participants); err != nil {
			return err
		}
	}
	for _, b := range g.barriers {
		if err := check("barrier", b.Name, append(append([]string(nil), b.Participants...), b.Gated...)); err != nil {
			return err
		}
		for _, p := range b.Participants {
			if t, ok := g.tracks[p]; ok && t.tl.Periodic() {
				return coordErr("coordination.Validate", "barrier %q waits on periodic track %q", b.Name, p)
			}
		}
	}
	for _, s := range g.sequences {
		for _, e := range s.Entries {
			if err := check("sequence", s.Name, []string{e.ID}); err != nil {
				return err
			}
		}
	}
	for _, t := range g.triggers {
		if err := check("trigger", t.Name, t.Targets); err != nil {
			return err
		}
	}
	return nil
}

// sequencedStart returns the absolute start tick a sequence assigns to id.
func (g *Group) sequencedStart(id string) (int, bool) {
	for _, s := range g.sequences {
		for _, e := range s.Entries {
			if e.ID == id {
				return s.Start + e.Offset, true
			}
		}
	}
	return 0, false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func coordErr(op, format string, args ...any) error {
	return animerr.New(op, animerr.KindCoordination, format, args...)
}
