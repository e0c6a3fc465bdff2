package value

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokWord
	tokString
	tokOpen
	tokClose
)

type token struct {
	typ  tokenType
	text string
}

// lexer splits field text into words, quoted strings and brackets.
// Commas are whitespace and '#' starts a comment running to end of line.
type lexer struct {
	src    string
	pos    int
	peeked *token
	err    string
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) peek() token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *lexer) next() token {
	t := l.peek()
	l.peeked = nil
	return t
}

func (l *lexer) scan() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{typ: tokEOF}
	}
	switch c := l.src[l.pos]; c {
	case '[':
		l.pos++
		return token{typ: tokOpen, text: "["}
	case ']':
		l.pos++
		return token{typ: tokClose, text: "]"}
	case '"':
		return l.scanString()
	}
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == '[' || c == ']' || c == '"' || c == '#' {
			break
		}
		l.pos++
	}
	return token{typ: tokWord, text: l.src[start:l.pos]}
}

func (l *lexer) scanString() token {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			if l.pos+1 < len(l.src) {
				b.WriteByte(l.src[l.pos+1])
				l.pos += 2
				continue
			}
			l.pos++
		case '"':
			l.pos++
			return token{typ: tokString, text: b.String()}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	l.err = "unterminated string"
	return token{typ: tokEOF}
}

// Parse converts scene-description text into a value of kind k.
//
// MF kinds accept either a bracketed list or a single bare element.
// SFNode and MFNode elements accept only NULL: references to named nodes
// are resolved by the scene, not by this package.
func Parse(k Kind, text string) (Value, error) {
	if k == KindInvalid || kindNames[k] == "" {
		return nil, &ParseError{Kind: k, Text: text, Reason: "unknown kind"}
	}
	p := &parser{lx: newLexer(text), kind: k, text: text}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if t := p.lx.next(); t.typ != tokEOF || p.lx.err != "" {
		return nil, p.fail("unexpected trailing input")
	}
	return v, nil
}

// MustParse is Parse for literals known to be valid; it panics on error.
func MustParse(k Kind, text string) Value {
	v, err := Parse(k, text)
	if err != nil {
		panic(err)
	}
	return v
}

type parser struct {
	lx   *lexer
	kind Kind
	text string
}

func (p *parser) fail(reason string) error {
	if p.lx.err != "" {
		reason = p.lx.err
	}
	return &ParseError{Kind: p.kind, Text: p.text, Reason: reason}
}

func (p *parser) word() (string, error) {
	t := p.lx.next()
	if t.typ != tokWord {
		return "", p.fail("expected a value")
	}
	return t.text, nil
}

func (p *parser) float32s(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(w, 32)
		if err != nil {
			return nil, p.fail("invalid number " + strconv.Quote(w))
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (p *parser) float64s(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, p.fail("invalid number " + strconv.Quote(w))
		}
		out[i] = f
	}
	return out, nil
}

func (p *parser) int32() (int32, error) {
	w, err := p.word()
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(w, 0, 32)
	if err != nil {
		return 0, p.fail("invalid integer " + strconv.Quote(w))
	}
	return int32(i), nil
}

func (p *parser) parseValue() (Value, error) {
	if p.kind.IsMulti() {
		return p.parseList()
	}
	return p.parseSingle(p.kind)
}

func (p *parser) parseList() (Value, error) {
	elem := p.kind.Element()
	var items []Value
	if p.lx.peek().typ == tokOpen {
		p.lx.next()
		for p.lx.peek().typ != tokClose {
			if p.lx.peek().typ == tokEOF {
				return nil, p.fail("unterminated list")
			}
			v, err := p.parseSingle(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		p.lx.next()
	} else {
		v, err := p.parseSingle(elem)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return collect(p.kind, items), nil
}

func (p *parser) parseSingle(k Kind) (Value, error) {
	switch k {
	case KindSFBool:
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		switch w {
		case "TRUE":
			return SFBool(true), nil
		case "FALSE":
			return SFBool(false), nil
		}
		return nil, p.fail("expected TRUE or FALSE")
	case KindSFInt32:
		i, err := p.int32()
		return SFInt32(i), err
	case KindSFFloat:
		fs, err := p.float32s(1)
		if err != nil {
			return nil, err
		}
		return SFFloat(fs[0]), nil
	case KindSFDouble:
		fs, err := p.float64s(1)
		if err != nil {
			return nil, err
		}
		return SFDouble(fs[0]), nil
	case KindSFTime:
		fs, err := p.float64s(1)
		if err != nil {
			return nil, err
		}
		return SFTime(fs[0]), nil
	case KindSFString:
		t := p.lx.next()
		if t.typ != tokString {
			return nil, p.fail("expected a quoted string")
		}
		return SFString(norm.NFC.String(t.text)), nil
	case KindSFVec2f:
		fs, err := p.float32s(2)
		if err != nil {
			return nil, err
		}
		return SFVec2f{fs[0], fs[1]}, nil
	case KindSFVec3f:
		fs, err := p.float32s(3)
		if err != nil {
			return nil, err
		}
		return SFVec3f{fs[0], fs[1], fs[2]}, nil
	case KindSFColor:
		fs, err := p.float32s(3)
		if err != nil {
			return nil, err
		}
		for _, c := range fs {
			if c < 0 || c > 1 {
				return nil, p.fail("color component out of [0,1]")
			}
		}
		return SFColor{fs[0], fs[1], fs[2]}, nil
	case KindSFVec3d:
		fs, err := p.float64s(3)
		if err != nil {
			return nil, err
		}
		return SFVec3d{fs[0], fs[1], fs[2]}, nil
	case KindSFRotation:
		fs, err := p.float32s(4)
		if err != nil {
			return nil, err
		}
		return SFRotation{fs[0], fs[1], fs[2], fs[3]}, nil
	case KindSFMatrix4f:
		fs, err := p.float32s(16)
		if err != nil {
			return nil, err
		}
		var m SFMatrix4f
		copy(m[:], fs)
		return m, nil
	case KindSFImage:
		return p.parseImage()
	case KindSFNode:
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		if w != "NULL" {
			return nil, p.fail("node reference " + strconv.Quote(w) + " must be resolved by the scene")
		}
		return SFNode{}, nil
	}
	return nil, p.fail("unsupported kind")
}

func (p *parser) parseImage() (Value, error) {
	var dims [3]int32
	for i := range dims {
		d, err := p.int32()
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, p.fail("negative image dimension")
		}
		dims[i] = d
	}
	img := SFImage{Width: int(dims[0]), Height: int(dims[1]), Components: int(dims[2])}
	if img.Components > 4 {
		return nil, p.fail("image components must be 0-4")
	}
	img.Pixels = make([]uint32, img.Width*img.Height)
	for i := range img.Pixels {
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		px, err := strconv.ParseUint(w, 0, 32)
		if err != nil {
			return nil, p.fail("invalid pixel " + strconv.Quote(w))
		}
		img.Pixels[i] = uint32(px)
	}
	return img, nil
}

// collect builds the MF value of kind k from parsed elements.
func collect(k Kind, items []Value) Value {
	switch k {
	case KindMFBool:
		return collectAs[SFBool, MFBool](items)
	case KindMFColor:
		return collectAs[SFColor, MFColor](items)
	case KindMFDouble:
		return collectAs[SFDouble, MFDouble](items)
	case KindMFFloat:
		return collectAs[SFFloat, MFFloat](items)
	case KindMFInt32:
		return collectAs[SFInt32, MFInt32](items)
	case KindMFNode:
		return collectAs[SFNode, MFNode](items)
	case KindMFRotation:
		return collectAs[SFRotation, MFRotation](items)
	case KindMFString:
		return collectAs[SFString, MFString](items)
	case KindMFTime:
		return collectAs[SFTime, MFTime](items)
	case KindMFVec2f:
		return collectAs[SFVec2f, MFVec2f](items)
	case KindMFVec3d:
		return collectAs[SFVec3d, MFVec3d](items)
	case KindMFVec3f:
		return collectAs[SFVec3f, MFVec3f](items)
	}
	return nil
}

func collectAs[E Value, L ~[]E](items []Value) L {
	out := make(L, 0, len(items))
	for _, it := range items {
		out = append(out, it.(E))
	}
	return out
}
