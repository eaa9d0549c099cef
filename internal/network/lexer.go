package network

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Pos — позиция в тексте сети.
type Pos struct {
	Line int
	Col  int
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokInt
	tokIdent
	tokString
	tokColon   // :
	tokArrow   // ->
	tokAmp     // &
	tokLParen  // (
	tokRParen  // )
	tokLBrack  // [
	tokRBrack  // ]
	tokBang    // !
	tokDollar  // $
	tokDotDot  // ..
	tokTilde   // ~
	tokHash    // #
	tokEq      // =
	tokComma   // ,
	tokIllegal // любой неизвестный символ
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of input",
	tokNewline: "end of line",
	tokInt:     "integer",
	tokIdent:   "identifier",
	tokString:  "string",
	tokColon:   `":"`,
	tokArrow:   `"->"`,
	tokAmp:     `"&"`,
	tokLParen:  `"("`,
	tokRParen:  `")"`,
	tokLBrack:  `"["`,
	tokRBrack:  `"]"`,
	tokBang:    `"!"`,
	tokDollar:  `"$"`,
	tokDotDot:  `".."`,
	tokTilde:   `"~"`,
	tokHash:    `"#"`,
	tokEq:      `"="`,
	tokComma:   `","`,
	tokIllegal: "illegal character",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

func (t token) String() string {
	switch t.kind {
	case tokInt, tokIdent, tokIllegal:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return t.kind.String()
	}
}

// lexer разбивает текст сети на токены.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

// tokens возвращает все токены текста, последний — tokEOF.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out, nil
		}
	}
}

func (l *lexer) peekRune(ahead int) rune {
	off := l.off
	for range ahead {
		if off >= len(l.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}
	if off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) next() (token, error) {
	// Пропускаем пробелы и комментарии
	for l.off < len(l.src) {
		r := l.peekRune(0)
		switch {
		case r == '\n':
			pos := Pos{Line: l.line, Col: l.col}
			l.advance()
			return token{kind: tokNewline, text: "\n", pos: pos}, nil
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			for l.off < len(l.src) && l.peekRune(0) != '\n' {
				l.advance()
			}
		default:
			return l.scan()
		}
	}
	return token{kind: tokEOF, pos: Pos{Line: l.line, Col: l.col}}, nil
}

func (l *lexer) scan() (token, error) {
	pos := Pos{Line: l.line, Col: l.col}
	r := l.peekRune(0)

	switch {
	case unicode.IsDigit(r):
		start := l.off
		for unicode.IsDigit(l.peekRune(0)) {
			l.advance()
		}
		return token{kind: tokInt, text: l.src[start:l.off], pos: pos}, nil

	case r == '_' || unicode.IsLetter(r):
		start := l.off
		for {
			c := l.peekRune(0)
			if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
				break
			}
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start:l.off], pos: pos}, nil

	case r == '"':
		return l.scanString(pos)
	}

	l.advance()
	single := map[rune]tokenKind{
		':': tokColon, '&': tokAmp, '(': tokLParen, ')': tokRParen,
		'[': tokLBrack, ']': tokRBrack, '!': tokBang, '$': tokDollar,
		'~': tokTilde, '#': tokHash, '=': tokEq, ',': tokComma,
	}
	if kind, ok := single[r]; ok {
		return token{kind: kind, text: string(r), pos: pos}, nil
	}

	switch {
	case r == '-' && l.peekRune(0) == '>':
		l.advance()
		return token{kind: tokArrow, text: "->", pos: pos}, nil
	case r == '.' && l.peekRune(0) == '.':
		l.advance()
		return token{kind: tokDotDot, text: "..", pos: pos}, nil
	}

	return token{kind: tokIllegal, text: string(r), pos: pos}, nil
}

func (l *lexer) scanString(pos Pos) (token, error) {
	l.advance() // открывающая кавычка
	var buf []rune
	for {
		if l.off >= len(l.src) {
			return token{}, newSyntaxError(pos, ErrSyntax, "unterminated string")
		}
		r := l.advance()
		switch r {
		case '"':
			return token{kind: tokString, text: string(buf), pos: pos}, nil
		case '\n':
			return token{}, newSyntaxError(pos, ErrSyntax, "unterminated string")
		case '\\':
			if l.off >= len(l.src) {
				return token{}, newSyntaxError(pos, ErrSyntax, "unterminated string")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			default:
				buf = append(buf, esc)
			}
		default:
			buf = append(buf, r)
		}
	}
}
