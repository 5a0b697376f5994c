package expr

import "fmt"

// binding powers, lowest first
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precCompare
	precSum
	precProduct
	precUnary
)

var infixPrec = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"==": precEquality, "!=": precEquality,
	"<": precCompare, "<=": precCompare, ">": precCompare, ">=": precCompare,
	"+": precSum, "-": precSum,
	"*": precProduct, "/": precProduct, "%": precProduct,
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected %s, found %s", what, t)}
	}
	return t, nil
}

func (p *parser) parse(prec int) (node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		bp, ok := infixPrec[t.text]
		if !ok || bp <= prec {
			return left, nil
		}
		p.next()
		right, err := p.parse(bp)
		if err != nil {
			return nil, err
		}
		left = &binary{op: t.text, left: left, right: right, pos: t.pos}
	}
}

func (p *parser) prefix() (node, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		return &literal{val: t.num}, nil
	case tokString:
		return &literal{val: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &literal{val: true}, nil
		case "false":
			return &literal{val: false}, nil
		}
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		return &ident{name: t.text, pos: t.pos}, nil
	case tokOp:
		if t.text == "!" || t.text == "-" {
			operand, err := p.parse(precUnary)
			if err != nil {
				return nil, err
			}
			return &unary{op: t.text, operand: operand, pos: t.pos}, nil
		}
	case tokLParen:
		inner, err := p.parse(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
}

func (p *parser) call(name token) (node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("unknown function %q", name.text), err: ErrUnknownFunction}
	}
	p.next() // (
	c := &call{name: name.text, fn: fn, pos: name.pos}
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parse(precLowest)
			if err != nil {
				return nil, err
			}
			c.args = append(c.args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if len(c.args) < fn.minArgs || (fn.maxArgs >= 0 && len(c.args) > fn.maxArgs) {
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("%s: wrong number of arguments (%d)", name.text, len(c.args))}
	}
	return c, nil
}
