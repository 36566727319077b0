package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeExpr is a parsed but unresolved type expression such as
// "MutableList<out T>". Names are resolved against a problem's constructors
// and variables when the problem is built.
type TypeExpr struct {
	Name string
	Args []ArgExpr
}

// ArgExpr is one type argument with its use-site projection keyword
// ("", "in" or "out").
type ArgExpr struct {
	Variance string
	Type     *TypeExpr
}

func (e *TypeExpr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	var buf strings.Builder
	buf.WriteString(e.Name)
	buf.WriteByte('<')
	for i, a := range e.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		if a.Variance != "" {
			buf.WriteString(a.Variance)
			buf.WriteByte(' ')
		}
		buf.WriteString(a.Type.String())
	}
	buf.WriteByte('>')
	return buf.String()
}

// Walk calls fn for e and every nested expression, outermost first.
func (e *TypeExpr) Walk(fn func(*TypeExpr)) {
	fn(e)
	for _, a := range e.Args {
		a.Type.Walk(fn)
	}
}

// TypeExprError reports a syntax error at a byte offset of the source.
type TypeExprError struct {
	Source  string
	Offset  int
	Message string
}

func (e *TypeExprError) Error() string {
	return fmt.Sprintf("invalid type expression %q at offset %d: %s", e.Source, e.Offset, e.Message)
}

// ParseTypeExpr parses
//
//	type := ident [ "<" arg { "," arg } ">" ]
//	arg  := [ "in" | "out" ] type
//
// "in" and "out" are projection keywords only when another identifier
// follows them; otherwise they are ordinary names.
func ParseTypeExpr(src string) (*TypeExpr, error) {
	p := &typeParser{src: src}
	p.next()
	expr, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s after type", p.tok)
	}
	return expr, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLAngle
	tokRAngle
	tokComma
	tokInvalid
)

type typeToken struct {
	kind   tokenKind
	text   string
	offset int
}

func (t typeToken) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type typeParser struct {
	src  string
	pos  int
	tok  typeToken
	peek *typeToken
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeExprError{Source: p.src, Offset: p.tok.offset, Message: fmt.Sprintf(format, args...)}
}

// next advances to the following token.
func (p *typeParser) next() {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	p.tok = p.scan()
}

// lookahead returns the token after the current one without consuming it.
func (p *typeParser) lookahead() typeToken {
	if p.peek == nil {
		t := p.scan()
		p.peek = &t
	}
	return *p.peek
}

func (p *typeParser) scan() typeToken {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		return typeToken{kind: tokEOF, offset: start}
	}

	switch c := p.src[p.pos]; {
	case c == '<':
		p.pos++
		return typeToken{kind: tokLAngle, text: "<", offset: start}
	case c == '>':
		p.pos++
		return typeToken{kind: tokRAngle, text: ">", offset: start}
	case c == ',':
		p.pos++
		return typeToken{kind: tokComma, text: ",", offset: start}
	case isIdentStart(c):
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		return typeToken{kind: tokIdent, text: p.src[start:p.pos], offset: start}
	default:
		p.pos++
		return typeToken{kind: tokInvalid, text: string(c), offset: start}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *typeParser) parseType() (*TypeExpr, error) {
	if p.tok.kind != tokIdent {
		return nil, p.errorf("expected type name, found %s", p.tok)
	}
	expr := &TypeExpr{Name: p.tok.text}
	p.next()

	if p.tok.kind != tokLAngle {
		return expr, nil
	}
	p.next()
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		expr.Args = append(expr.Args, arg)

		switch p.tok.kind {
		case tokComma:
			p.next()
		case tokRAngle:
			p.next()
			return expr, nil
		default:
			return nil, p.errorf("expected \",\" or \">\", found %s", p.tok)
		}
	}
}

func (p *typeParser) parseArg() (ArgExpr, error) {
	var arg ArgExpr
	if p.tok.kind == tokIdent && (p.tok.text == "in" || p.tok.text == "out") && p.lookahead().kind == tokIdent {
		arg.Variance = p.tok.text
		p.next()
	}
	t, err := p.parseType()
	if err != nil {
		return arg, err
	}
	arg.Type = t
	return arg, nil
}
