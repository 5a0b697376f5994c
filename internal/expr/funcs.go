package expr

import (
	"fmt"
	"unicode/utf8"
)

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	call             func(args []any) (any, error)
}

// functions is the complete whitelist. Anything else is rejected at parse time.
var functions = map[string]function{
	"min":   {minArgs: 1, maxArgs: -1, call: fold(func(a, b int64) int64 { return min(a, b) })},
	"max":   {minArgs: 1, maxArgs: -1, call: fold(func(a, b int64) int64 { return max(a, b) })},
	"abs":   {minArgs: 1, maxArgs: 1, call: absFn},
	"len":   {minArgs: 1, maxArgs: 1, call: lenFn},
	"clamp": {minArgs: 3, maxArgs: 3, call: clampFn},
}

func ints(args []any) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, ok := a.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is %s, want int", ErrType, i+1, typeName(a))
		}
		out[i] = v
	}
	return out, nil
}

func fold(f func(a, b int64) int64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		vs, err := ints(args)
		if err != nil {
			return nil, err
		}
		acc := vs[0]
		for _, v := range vs[1:] {
			acc = f(acc, v)
		}
		return acc, nil
	}
}

func absFn(args []any) (any, error) {
	vs, err := ints(args)
	if err != nil {
		return nil, err
	}
	if vs[0] < 0 {
		return -vs[0], nil
	}
	return vs[0], nil
}

func lenFn(args []any) (any, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: argument 1 is %s, want string", ErrType, typeName(args[0]))
	}
	return int64(utf8.RuneCountInString(s)), nil
}

func clampFn(args []any) (any, error) {
	vs, err := ints(args)
	if err != nil {
		return nil, err
	}
	v, lo, hi := vs[0], vs[1], vs[2]
	if lo > hi {
		return nil, fmt.Errorf("clamp bounds %d > %d", lo, hi)
	}
	return min(max(v, lo), hi), nil
}
