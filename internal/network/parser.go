package network

import (
	"strconv"
)

// Parse разбирает текст сети.
//
//	network   := (attribute | flow | NEWLINE)*
//	attribute := "#" "[" "model" "(" key "=" value ("," key "=" value)* ")" "]"
//	flow      := INT ":" pair ("->" pair)*
//	pair      := ["&"] IDENT ["(" STRING ")"] ["[" IDENT "]" option*]
//	option    := "!" | "$" | ".." | "~"
//
// Поток заканчивается переводом строки; после "->" перевод строки
// допустим. Комментарии начинаются с "//".
func Parse(src string) (*Script, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.script()
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, newSyntaxError(t.pos, ErrSyntax, "expected %s, found %s", kind, t)
	}
	return t, nil
}

func (p *parser) skipNewlines() {
	for p.peek().kind == tokNewline {
		p.next()
	}
}

func (p *parser) script() (*Script, error) {
	s := &Script{}
	for {
		p.skipNewlines()
		t := p.peek()
		switch t.kind {
		case tokEOF:
			return s, nil
		case tokHash:
			attrs, err := p.attribute()
			if err != nil {
				return nil, err
			}
			s.Attrs = append(s.Attrs, attrs...)
		case tokInt:
			f, err := p.flow()
			if err != nil {
				return nil, err
			}
			s.Flows = append(s.Flows, f)
		default:
			return nil, newSyntaxError(t.pos, ErrSyntax, "expected flow rate or attribute, found %s", t)
		}
	}
}

func (p *parser) attribute() ([]Attr, error) {
	p.next() // #
	if _, err := p.expect(tokLBrack); err != nil {
		return nil, err
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if name.text != "model" {
		return nil, newSyntaxError(name.pos, ErrUnknownAttribute, "attribute %q", name.text)
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	var attrs []Attr
	for {
		key, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokEq); err != nil {
			return nil, err
		}
		val := p.next()
		if val.kind != tokIdent && val.kind != tokString {
			return nil, newSyntaxError(val.pos, ErrSyntax, "expected attribute value, found %s", val)
		}
		attrs = append(attrs, Attr{Key: key.text, Value: val.text, Pos: key.pos})

		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, newSyntaxError(t.pos, ErrSyntax, "expected \",\" or \")\", found %s", t)
		}
	}

	if _, err := p.expect(tokRBrack); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *parser) flow() (Flow, error) {
	t := p.next()
	rate, err := strconv.Atoi(t.text)
	if err != nil || rate <= 0 {
		return Flow{}, newSyntaxError(t.pos, ErrInvalidRate, "rate %s", t.text)
	}
	if _, err := p.expect(tokColon); err != nil {
		return Flow{}, err
	}

	f := Flow{Rate: rate, Pos: t.pos}
	for {
		pair, err := p.pair()
		if err != nil {
			return Flow{}, err
		}
		f.Pairs = append(f.Pairs, pair)

		t := p.next()
		switch t.kind {
		case tokArrow:
			p.skipNewlines()
			continue
		case tokNewline, tokEOF:
			return f, nil
		default:
			return Flow{}, newSyntaxError(t.pos, ErrSyntax, "expected \"->\" or end of line, found %s", t)
		}
	}
}

func (p *parser) pair() (Pair, error) {
	var pair Pair
	start := p.peek()
	pair.Pos = start.pos

	if start.kind == tokAmp {
		p.next()
		pair.Shared = true
	}

	name, err := p.expect(tokIdent)
	if err != nil {
		return Pair{}, err
	}
	pair.Client = name.text

	if p.peek().kind == tokLParen {
		p.next()
		label, err := p.expect(tokString)
		if err != nil {
			return Pair{}, err
		}
		pair.Label = label.text
		if _, err := p.expect(tokRParen); err != nil {
			return Pair{}, err
		}
	}

	if p.peek().kind != tokLBrack {
		return pair, nil
	}
	p.next()
	out, err := p.expect(tokIdent)
	if err != nil {
		return Pair{}, err
	}
	if _, err := p.expect(tokRBrack); err != nil {
		return Pair{}, err
	}
	pair.Output = &OutputRef{Name: out.text}

	for {
		t := p.peek()
		switch t.kind {
		case tokBang:
			pair.Output.Bootstrap = true
		case tokDollar:
			pair.Output.Logging = true
		case tokDotDot:
			pair.Output.Unbounded = true
		case tokTilde:
			pair.Output.Scope = true
		case tokIllegal:
			return Pair{}, newSyntaxError(t.pos, ErrUnknownOption, "option %q on %s[%s]", t.text, pair.Client, out.text)
		default:
			return pair, nil
		}
		p.next()
	}
}
