package exprlang

import "github.com/pkg/errors"

// Parse produces a deterministic AST for a single expression (spec.md
// §4.2). src is preprocessed (bare if(/file( rewritten to _if/_fileFn)
// before lexing. Parse errors carry the original source in the message.
func Parse(src string) (Node, error) {
	rewritten := preprocess(src)
	toks, err := lex(rewritten)
	if err != nil {
		return nil, errors.Wrapf(err, "parse error in %q", src)
	}
	p := &parser{toks: toks, src: src}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, errors.Errorf("parse error in %q: unexpected trailing token %q", src, p.cur().text)
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int
	src  string
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) failf(format string, args ...interface{}) error {
	wrapped := errors.Errorf(format, args...)
	return errors.Wrapf(wrapped, "parse error in %q", p.src)
}

func (p *parser) isPunct(s string) bool {
	t := p.cur()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) isIdent(s string) bool {
	t := p.cur()
	return t.kind == tokIdent && t.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.failf("expected %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

// --- expression grammar, lowest precedence first ---

func (p *parser) parseExpression() (Node, error) {
	return p.parseConditional()
}

func (p *parser) parseConditional() (Node, error) {
	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.isPunct("?") {
		p.advance()
		cons, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		alt, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return &ConditionalExpr{Test: test, Cons: cons, Alt: alt}, nil
	}
	return test, nil
}

type opInfo struct {
	prec     int
	rightAsc bool
	logical  bool // && || ?? produce LogicalExpr (short-circuit) not BinaryExpr
}

var binaryOps = map[string]opInfo{
	"??": {1, false, true},
	"||": {2, false, true},
	"&&": {3, false, true},
	"==": {4, false, false}, "!=": {4, false, false},
	"===": {4, false, false}, "!==": {4, false, false},
	"<": {5, false, false}, ">": {5, false, false},
	"<=": {5, false, false}, ">=": {5, false, false},
	"+": {6, false, false}, "-": {6, false, false},
	"*": {7, false, false}, "/": {7, false, false}, "%": {7, false, false},
	"**": {8, true, false},
}

// keyword operators "in" and "instanceof" share relational precedence.
const keywordOpPrec = 5

func (p *parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.cur().kind == tokIdent && (p.cur().text == "in" || p.cur().text == "instanceof") {
			if keywordOpPrec < minPrec {
				break
			}
			op := p.advance().text
			right, err := p.parseBinary(keywordOpPrec + 1)
			if err != nil {
				return nil, err
			}
			if op == "in" {
				left = &InExpr{Left: left, Right: right}
			} else {
				left = &InstanceofExpr{Left: left, Right: right}
			}
			continue
		}

		if p.cur().kind != tokPunct {
			break
		}
		info, ok := binaryOps[p.cur().text]
		if !ok || info.prec < minPrec {
			break
		}
		op := p.advance().text

		nextMin := info.prec + 1
		if info.rightAsc {
			nextMin = info.prec
		}
		right, err := p.parseBinary(nextMin)
		if err != nil {
			return nil, err
		}

		if info.logical {
			left = &LogicalExpr{Op: op, Left: left, Right: right}
		} else {
			left = &BinaryExpr{Op: op, Left: left, Right: right}
		}
	}

	return left, nil
}

var unaryOps = map[string]bool{
	"!": true, "+": true, "-": true, "~": true,
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur().kind == tokPunct && unaryOps[p.cur().text] {
		op := p.advance().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: operand}, nil
	}
	if p.cur().kind == tokIdent && (p.cur().text == "typeof" || p.cur().text == "void") {
		op := p.advance().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.isPunct("."):
			p.advance()
			if p.cur().kind != tokIdent {
				return nil, p.failf("expected property name after '.', got %q", p.cur().text)
			}
			name := p.advance().text
			node = &MemberExpr{Object: node, Property: name}

		case p.isPunct("["):
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			node = &MemberExpr{Object: node, Computed: true, PropertyExpr: idx}

		case p.isPunct("("):
			p.advance()
			var args []Node
			if !p.isPunct(")") {
				for {
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.isPunct(",") {
						p.advance()
						continue
					}
					break
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			node = &CallExpr{Callee: node, Args: args}

		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.cur()

	switch t.kind {
	case tokNumber:
		p.advance()
		return &NumberLit{Value: t.num}, nil
	case tokString:
		p.advance()
		return &StringLit{Value: t.str}, nil
	case tokRegex:
		p.advance()
		return &RegexLit{Pattern: t.text, Flags: t.flags}, nil
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return &BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return &BoolLit{Value: false}, nil
		case "null":
			p.advance()
			return &NullLit{}, nil
		case "undefined":
			p.advance()
			return &UndefinedLit{}, nil
		case "NaN":
			p.advance()
			return &NaNLit{}, nil
		case "Infinity":
			p.advance()
			return &InfinityLit{}, nil
		}
		p.advance()
		return &Identifier{Name: t.text}, nil
	case tokPunct:
		if t.text == "(" {
			p.advance()
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
		if t.text == "[" {
			return p.parseArrayLit()
		}
		if t.text == "-" {
			// handled by parseUnary; reaching here means a stray '-' in
			// primary position, which is a parse error.
		}
	}

	return nil, p.failf("unexpected token %q", t.text)
}

func (p *parser) parseArrayLit() (Node, error) {
	p.advance() // [
	var elements []Node
	for !p.isPunct("]") {
		if p.isPunct(",") {
			elements = append(elements, nil) // hole
			p.advance()
			continue
		}
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ArrayLit{Elements: elements}, nil
}
