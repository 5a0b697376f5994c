package coordination

import "github.com/ivlev/tinydisplay/internal/animerr"

// Retire bakes the effect of every primitive that can no longer change a
// track's future into that track's timeline and drops the primitive. A
// primitive is dropped only when all tracks it acts on are otherwise settled.
// Evaluating a tick before tick afterwards is an error. Retire returns the
// number of primitives dropped.
func (g *Group) Retire(tick int) (int, error) {
	const op = "coordination.Retire"
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trigMu.Lock()
	defer g.trigMu.Unlock()
	if tick < g.retiredAt {
		return 0, animerr.New(op, animerr.KindInvalidTick, "tick %d precedes retired state at %d", tick, g.retiredAt)
	}

	ev := g.newEvaluation(tick)
	// retirable and subjects per primitive, indexed in one list
	type prim struct {
		subjects  []string
		retirable bool
		drop      bool
	}
	var prims []prim

	for _, s := range g.sequences {
		p := prim{retirable: true}
		for _, e := range s.Entries {
			p.subjects = append(p.subjects, e.ID)
		}
		prims = append(prims, p)
	}
	for _, s := range g.syncs {
		prims = append(prims, prim{subjects: s.Participants, retirable: s.Target <= tick})
	}
	for _, b := range g.barriers {
		_, ok, err := ev.release(b)
		if err != nil {
			return 0, err
		}
		prims = append(prims, prim{subjects: b.Gated, retirable: ok})
	}
	for i, t := range g.triggers {
		st := g.trigState[i]
		prims = append(prims, prim{subjects: t.Targets, retirable: !t.Rearm && !st.armed && len(st.fires) > 0})
	}

	// a track is settled when every primitive acting on it is retirable
	settled := make(map[string]bool)
	for id := range g.tracks {
		settled[id] = true
	}
	for _, p := range prims {
		if !p.retirable {
			for _, id := range p.subjects {
				settled[id] = false
			}
		}
	}
	for i := range prims {
		if !prims[i].retirable {
			continue
		}
		prims[i].drop = true
		for _, id := range prims[i].subjects {
			if _, ok := g.tracks[id]; ok && !settled[id] {
				prims[i].drop = false
				break
			}
		}
	}

	// bake tracks whose every primitive is being dropped
	free := make(map[string]bool)
	for id := range g.tracks {
		free[id] = true
	}
	for _, p := range prims {
		if !p.drop {
			for _, id := range p.subjects {
				free[id] = false
			}
		}
	}
	touched := make(map[string]bool)
	for _, p := range prims {
		if p.drop {
			for _, id := range p.subjects {
				touched[id] = true
			}
		}
	}
	baked := make(map[string]*resolved)
	for id := range g.tracks {
		if !touched[id] || !free[id] {
			continue
		}
		r, err := ev.resolve(id)
		if err != nil {
			return 0, err
		}
		baked[id] = r
	}
	for id, r := range baked {
		t := g.tracks[id]
		t.tl = r.tl
		t.baked = true
		t.started = !r.held
		t.stopAt = r.stopAt
	}

	dropped := 0
	n := 0
	keepSeq := g.sequences[:0]
	for _, s := range g.sequences {
		if !prims[n].drop {
			keepSeq = append(keepSeq, s)
		}
		n++
	}
	keepSync := g.syncs[:0]
	for _, s := range g.syncs {
		if !prims[n].drop {
			keepSync = append(keepSync, s)
		}
		n++
	}
	keepBar := g.barriers[:0]
	for _, b := range g.barriers {
		if !prims[n].drop {
			keepBar = append(keepBar, b)
		}
		n++
	}
	keepTrig := g.triggers[:0]
	keepState := g.trigState[:0]
	for i, t := range g.triggers {
		if !prims[n].drop {
			keepTrig = append(keepTrig, t)
			keepState = append(keepState, g.trigState[i])
		}
		n++
	}
	for _, p := range prims {
		if p.drop {
			dropped++
		}
	}
	g.sequences, g.syncs, g.barriers = keepSeq, keepSync, keepBar
	g.triggers, g.trigState = keepTrig, keepState
	g.retiredAt = tick
	return dropped, nil
}
