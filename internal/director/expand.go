package director

import (
	"fmt"
	"image"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/expr"
)

// maxExpanded bounds the action count a page may expand to.
const maxExpanded = 10000

// Metrics exposes a widget's layout to page expressions as container.width,
// container.height, content.width, content.height, start.x and start.y.
func Metrics(container, content, start image.Point) expr.Vars {
	return expr.Vars{
		"container.width":  container.X,
		"container.height": container.Y,
		"content.width":    content.X,
		"content.height":   content.Y,
		"start.x":          start.X,
		"start.y":          start.Y,
	}
}

// ExpandActions flattens loops and conditionals into a plain action list.
func ExpandActions(specs []ActionSpec, env expr.Env) ([]action.Action, error) {
	var out []action.Action
	if err := expandInto(&out, specs, env, "actions"); err != nil {
		return nil, err
	}
	return out, nil
}

func expandInto(out *[]action.Action, specs []ActionSpec, env expr.Env, path string) error {
	for i, s := range specs {
		at := fmt.Sprintf("%s[%d]", path, i)
		if n := s.count(); n != 1 {
			return fmt.Errorf("%s: exactly one of move, pause, return_to_start, loop, if must be set (got %d)", at, n)
		}

		switch {
		case s.Move != nil:
			a, err := s.Move.action(env)
			if err != nil {
				return fmt.Errorf("%s: %w", at, err)
			}
			*out = append(*out, a)
		case s.Pause != nil:
			n, err := s.Pause.Ticks.Eval(env)
			if err != nil {
				return fmt.Errorf("%s: ticks: %w", at, err)
			}
			*out = append(*out, action.Pause(n).WithLabel(s.Pause.Label))
		case s.ReturnToStart != nil:
			r := s.ReturnToStart
			axis, err := action.ParseAxis(r.Axis)
			if err != nil {
				return fmt.Errorf("%s: %w", at, err)
			}
			*out = append(*out, action.ReturnToStart(axis, orOne(r.Step), orOne(r.Interval)).WithLabel(r.Label))
		case s.Loop != nil:
			n, err := s.Loop.Count.Eval(env)
			if err != nil {
				return fmt.Errorf("%s: count: %w", at, err)
			}
			if n < 0 {
				return fmt.Errorf("%s: negative loop count %d", at, n)
			}
			for k := range n {
				if err := expandInto(out, s.Loop.Actions, env, fmt.Sprintf("%s.loop#%d", at, k)); err != nil {
					return err
				}
			}
		case s.If != nil:
			branch, name, err := s.If.choose(env)
			if err != nil {
				return fmt.Errorf("%s: %w", at, err)
			}
			if err := expandInto(out, branch, env, at+"."+name); err != nil {
				return err
			}
		}

		if len(*out) > maxExpanded {
			return fmt.Errorf("%s: expands to more than %d actions", at, maxExpanded)
		}
	}
	return nil
}

func (s ActionSpec) count() int {
	n := 0
	for _, set := range []bool{s.Move != nil, s.Pause != nil, s.ReturnToStart != nil, s.Loop != nil, s.If != nil} {
		if set {
			n++
		}
	}
	return n
}

func (m *MoveSpec) action(env expr.Env) (action.Action, error) {
	dir, err := action.ParseDirection(m.Direction)
	if err != nil {
		return action.Action{}, err
	}
	easing, err := action.ParseEasing(m.Easing)
	if err != nil {
		return action.Action{}, err
	}
	gap, err := m.Gap.Eval(env)
	if err != nil {
		return action.Action{}, fmt.Errorf("gap: %w", err)
	}

	var a action.Action
	if m.UntilBoundary {
		a = action.MoveUntilBoundary(dir, orOne(m.Step), orOne(m.Interval))
	} else {
		dist, err := m.Distance.Eval(env)
		if err != nil {
			return action.Action{}, fmt.Errorf("distance: %w", err)
		}
		a = action.Move(dir, dist, orOne(m.Step), orOne(m.Interval))
	}
	return a.WithGap(gap).WithEasing(easing).WithLabel(m.Label), nil
}

type branch struct {
	cond string
	then []ActionSpec
	name string
}

func (f *IfSpec) choose(env expr.Env) ([]ActionSpec, string, error) {
	branches := []branch{{f.Cond, f.Then, "then"}}
	for i, e := range f.Elif {
		branches = append(branches, branch{e.Cond, e.Then, fmt.Sprintf("elif[%d]", i)})
	}

	for _, b := range branches {
		x, err := expr.Parse(b.cond)
		if err != nil {
			return nil, "", err
		}
		ok, err := x.Bool(env)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return b.then, b.name, nil
		}
	}
	return f.Else, "else", nil
}

// orOne defaults an unset step or interval to 1. Explicit negative values
// are kept so validation reports them.
func orOne(n int) int {
	if n == 0 {
		return 1
	}
	return n
}
