// Package expr evaluates the small expression language used by page
// conditions and coordination triggers.
//
// Expressions are parsed into an explicit AST. Only the operators
// || && ! == != < <= > >= + - * / % and the functions min, max, abs, len and
// clamp exist; there is no way to call into host code. Values are int64,
// bool or string. Identifiers are resolved through an Env at evaluation time.
package expr

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrType              = errors.New("type mismatch")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrSyntax            = errors.New("syntax error")
)

// SyntaxError reports a parse failure at a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
	err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() []error {
	if e.err != nil {
		return []error{ErrSyntax, e.err}
	}
	return []error{ErrSyntax}
}

// Env resolves identifiers. Lookup may return int, int64, bool, string or a
// float64 holding a whole number.
type Env interface {
	Lookup(name string) (any, bool)
}

// Vars is a map-backed Env.
type Vars map[string]any

func (v Vars) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// Chain resolves names against each Env in order.
type Chain []Env

func (c Chain) Lookup(name string) (any, bool) {
	for _, e := range c {
		if e == nil {
			continue
		}
		if v, ok := e.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Expr is a parsed expression. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	root node
}

// Parse compiles src.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parse(precLowest)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
	}
	return &Expr{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error. For fixed expressions only.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string { return e.src }

// Eval evaluates e against env.
func (e *Expr) Eval(env Env) (any, error) {
	return e.root.eval(env)
}

// Bool evaluates e and requires a boolean result.
func (e *Expr) Bool(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q yields %s, want bool", ErrType, e.src, typeName(v))
	}
	return b, nil
}

// Int evaluates e and requires an integer result.
func (e *Expr) Int(env Env) (int, error) {
	v, err := e.Eval(env)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %q yields %s, want int", ErrType, e.src, typeName(v))
	}
	return int(i), nil
}

// Idents returns the sorted, de-duplicated identifiers e refers to.
func (e *Expr) Idents() []string {
	names := e.root.idents(nil)
	sort.Strings(names)
	out := names[:0]
	for _, n := range names {
		if len(out) == 0 || n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

func normalize(v any) (any, error) {
	switch x := v.(type) {
	case int64, bool, string:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
		return nil, fmt.Errorf("%w: non-integer number %s", ErrType, strconv.FormatFloat(x, 'g', -1, 64))
	}
	return nil, fmt.Errorf("%w: unsupported value %T", ErrType, v)
}
