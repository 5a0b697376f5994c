package expr

import (
	"fmt"
	"strings"
)

type node interface {
	eval(env Env) (any, error)
	idents(dst []string) []string
}

type literal struct{ val any }

func (n *literal) eval(Env) (any, error)        { return n.val, nil }
func (n *literal) idents(dst []string) []string { return dst }

type ident struct {
	name string
	pos  int
}

func (n *ident) eval(env Env) (any, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, n.name)
	}
	v, ok := env.Lookup(n.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, n.name)
	}
	nv, err := normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.name, err)
	}
	return nv, nil
}

func (n *ident) idents(dst []string) []string { return append(dst, n.name) }

type unary struct {
	op      string
	operand node
	pos     int
}

func (n *unary) eval(env Env) (any, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		b, ok := v.(bool)
		if !ok {
			return nil, typeError("!", v)
		}
		return !b, nil
	default:
		i, ok := v.(int64)
		if !ok {
			return nil, typeError("-", v)
		}
		return -i, nil
	}
}

func (n *unary) idents(dst []string) []string { return n.operand.idents(dst) }

type binary struct {
	op          string
	left, right node
	pos         int
}

func (n *binary) idents(dst []string) []string {
	return n.right.idents(n.left.idents(dst))
}

func (n *binary) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}

	// && and || short-circuit
	if n.op == "&&" || n.op == "||" {
		lb, ok := l.(bool)
		if !ok {
			return nil, typeError(n.op, l)
		}
		if (n.op == "&&" && !lb) || (n.op == "||" && lb) {
			return lb, nil
		}
		r, err := n.right.eval(env)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, typeError(n.op, r)
		}
		return rb, nil
	}

	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(l, r)
	case "!=":
		eq, err := equal(l, r)
		if err != nil {
			return nil, err
		}
		return !eq, nil
	}

	switch lv := l.(type) {
	case int64:
		rv, ok := r.(int64)
		if !ok {
			return nil, typeError(n.op, l, r)
		}
		return intOp(n.op, lv, rv)
	case string:
		rv, ok := r.(string)
		if !ok {
			return nil, typeError(n.op, l, r)
		}
		return stringOp(n.op, lv, rv)
	}
	return nil, typeError(n.op, l, r)
}

func intOp(op string, l, r int64) (any, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		if op == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return nil, typeError(op, l, r)
}

func stringOp(op string, l, r string) (any, error) {
	switch op {
	case "+":
		return l + r, nil
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return nil, typeError(op, l, r)
}

func equal(l, r any) (bool, error) {
	switch lv := l.(type) {
	case int64:
		if rv, ok := r.(int64); ok {
			return lv == rv, nil
		}
	case string:
		if rv, ok := r.(string); ok {
			return lv == rv, nil
		}
	case bool:
		if rv, ok := r.(bool); ok {
			return lv == rv, nil
		}
	}
	return false, typeError("==", l, r)
}

type call struct {
	name string
	fn   function
	args []node
	pos  int
}

func (n *call) eval(env Env) (any, error) {
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := n.fn.call(args)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", n.name, err)
	}
	return v, nil
}

func (n *call) idents(dst []string) []string {
	for _, a := range n.args {
		dst = a.idents(dst)
	}
	return dst
}

func typeError(op string, vals ...any) error {
	types := make([]string, len(vals))
	for i, v := range vals {
		types[i] = typeName(v)
	}
	return fmt.Errorf("%w: %s on %s", ErrType, op, strings.Join(types, ", "))
}

func typeName(v any) string {
	switch v.(type) {
	case int64:
		return "int"
	case string:
		return "string"
	case bool:
		return "bool"
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
