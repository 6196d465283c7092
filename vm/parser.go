package vm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadHook is returned when a hook expression fails to parse.
var ErrBadHook = errors.New("bad hook expression")

// tokenKind identifies the kind of a hook-language token.
type tokenKind int

const (
	tokString tokenKind = iota
	tokImmediate
	tokOpen
	tokClose
	tokComma
)

type token struct {
	kind  tokenKind
	str   string
	value int64
}

// tokenizer turns a hook expression into a stream of tokens: lowercase
// identifiers, base-10 immediates, and the punctuation '(', ')', ','.
// Whitespace is skipped; anything else is a parse error.
type tokenizer struct {
	runes []rune
	pos   int
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{runes: []rune(input)}
}

func (t *tokenizer) peek() (rune, bool) {
	if t.pos >= len(t.runes) {
		return 0, false
	}
	return t.runes[t.pos], true
}

// next returns the next token, or (nil, nil) at end of input.
func (t *tokenizer) next() (*token, error) {
	for {
		c, ok := t.peek()
		if !ok {
			return nil, nil
		}

		switch {
		case c >= 'a' && c <= 'z':
			return &token{kind: tokString, str: t.readString()}, nil
		case c >= '0' && c <= '9':
			v, err := t.readImmediate()
			if err != nil {
				return nil, err
			}
			return &token{kind: tokImmediate, value: v}, nil
		case c == '(':
			t.pos++
			return &token{kind: tokOpen}, nil
		case c == ')':
			t.pos++
			return &token{kind: tokClose}, nil
		case c == ',':
			t.pos++
			return &token{kind: tokComma}, nil
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			t.pos++
			continue
		default:
			return nil, errors.Wrapf(ErrBadHook, "unexpected character: %q", c)
		}
	}
}

func (t *tokenizer) readString() string {
	start := t.pos
	for {
		c, ok := t.peek()
		if !ok || c < 'a' || c > 'z' {
			break
		}
		t.pos++
	}
	return string(t.runes[start:t.pos])
}

func (t *tokenizer) readImmediate() (int64, error) {
	start := t.pos
	for {
		c, ok := t.peek()
		if !ok || c < '0' || c > '9' {
			break
		}
		t.pos++
	}
	return strconv.ParseInt(string(t.runes[start:t.pos]), 10, 64)
}

// hookParser wraps a tokenizer with one-token lookahead-free recursive
// descent, matching a device's register file for name resolution.
type hookParser struct {
	t      *tokenizer
	device *Device
}

func (p *hookParser) mustNext() (*token, error) {
	tok, err := p.t.next()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, errors.Wrap(ErrBadHook, "unexpected end of input")
	}
	return tok, nil
}

func (p *hookParser) expectString() (string, error) {
	tok, err := p.mustNext()
	if err != nil {
		return "", err
	}
	if tok.kind != tokString {
		return "", errors.Wrapf(ErrBadHook, "expected identifier, got token kind %d", tok.kind)
	}
	return tok.str, nil
}

func (p *hookParser) expectImmediate() (int64, error) {
	tok, err := p.mustNext()
	if err != nil {
		return 0, err
	}
	if tok.kind != tokImmediate {
		return 0, errors.Wrapf(ErrBadHook, "expected immediate, got token kind %d", tok.kind)
	}
	return tok.value, nil
}

func (p *hookParser) expectRegister() (int, error) {
	name, err := p.expectString()
	if err != nil {
		return 0, err
	}
	reg, err := p.device.Registers().RegisterByName(name)
	if err != nil {
		return 0, errors.Wrap(ErrBadHook, err.Error())
	}
	return reg, nil
}

func (p *hookParser) expectOpen() error {
	tok, err := p.mustNext()
	if err != nil {
		return err
	}
	if tok.kind != tokOpen {
		return errors.Wrap(ErrBadHook, "expected '('")
	}
	return nil
}

func (p *hookParser) expectClose() error {
	tok, err := p.mustNext()
	if err != nil {
		return err
	}
	if tok.kind != tokClose {
		return errors.Wrap(ErrBadHook, "expected ')'")
	}
	return nil
}

func (p *hookParser) expectComma() error {
	tok, err := p.mustNext()
	if err != nil {
		return err
	}
	if tok.kind != tokComma {
		return errors.Wrap(ErrBadHook, "expected ','")
	}
	return nil
}

// parseHook parses a single hook expression: one function name followed
// by a parenthesized argument list, e.g. "read(a)", "gt(b, 10)",
// "all(line(28), write(c))".
func (p *hookParser) parseHook() (Hook, error) {
	name, err := p.expectString()
	if err != nil {
		return Hook{}, err
	}

	switch name {
	case "line":
		if err := p.expectOpen(); err != nil {
			return Hook{}, err
		}
		line, err := p.expectImmediate()
		if err != nil {
			return Hook{}, err
		}
		if err := p.expectClose(); err != nil {
			return Hook{}, err
		}
		return NewLineHook(int(line)), nil

	case "read":
		reg, err := p.parseRegisterArg()
		if err != nil {
			return Hook{}, err
		}
		return NewReadHook(reg), nil

	case "write":
		reg, err := p.parseRegisterArg()
		if err != nil {
			return Hook{}, err
		}
		return NewWriteHook(reg), nil

	case "unique":
		reg, err := p.parseRegisterArg()
		if err != nil {
			return Hook{}, err
		}
		return NewUniqueHook(reg), nil

	case "not":
		if err := p.expectOpen(); err != nil {
			return Hook{}, err
		}
		inner, err := p.parseHook()
		if err != nil {
			return Hook{}, err
		}
		if err := p.expectClose(); err != nil {
			return Hook{}, err
		}
		return NewNotHook(inner), nil

	case "all":
		if err := p.expectOpen(); err != nil {
			return Hook{}, err
		}
		var children []Hook
		first, err := p.parseHook()
		if err != nil {
			return Hook{}, err
		}
		children = append(children, first)

		for {
			tok, err := p.mustNext()
			if err != nil {
				return Hook{}, err
			}
			switch tok.kind {
			case tokComma:
				child, err := p.parseHook()
				if err != nil {
					return Hook{}, err
				}
				children = append(children, child)
			case tokClose:
				return NewAllHook(children), nil
			default:
				return Hook{}, errors.Wrap(ErrBadHook, "expected ',' or ')'")
			}
		}

	case "gt", "lt", "eq", "gte", "lte":
		if err := p.expectOpen(); err != nil {
			return Hook{}, err
		}
		reg, err := p.expectRegister()
		if err != nil {
			return Hook{}, err
		}
		if err := p.expectComma(); err != nil {
			return Hook{}, err
		}
		value, err := p.expectImmediate()
		if err != nil {
			return Hook{}, err
		}
		if err := p.expectClose(); err != nil {
			return Hook{}, err
		}
		op, _ := DecodeOp(name)
		return NewOpHook(op, reg, value), nil

	default:
		return Hook{}, errors.Wrapf(ErrBadHook, "no such function: %s", name)
	}
}

func (p *hookParser) parseRegisterArg() (int, error) {
	if err := p.expectOpen(); err != nil {
		return 0, err
	}
	reg, err := p.expectRegister()
	if err != nil {
		return 0, err
	}
	if err := p.expectClose(); err != nil {
		return 0, err
	}
	return reg, nil
}

// ParseHook parses a hook expression against device, resolving register
// names ("a".."f", "ip") through device's current IP binding.
func ParseHook(input string, device *Device) (Hook, error) {
	input = strings.TrimSpace(input)
	p := &hookParser{t: newTokenizer(input), device: device}
	return p.parseHook()
}
