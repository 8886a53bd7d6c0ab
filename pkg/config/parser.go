package config

import (
	"fmt"
	"strings"
	"unicode"
)

// The config file format is the legacy flat-key layout: `key = value`
// entries plus nested `key { ... }` blocks. Values are bare words
// (anything up to whitespace) or double-quoted strings; `#` starts a
// comment that runs to end of line.

// entry is one parsed assignment. Exactly one of scalar/block is set.
type entry struct {
	line   int
	scalar string
	quoted bool
	block  *blockNode
}

// blockNode is a `{ ... }` group of entries, keyed by name.
type blockNode struct {
	entries map[string]entry
	order   []string
}

func (b *blockNode) get(name string) (entry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokEquals
	tokLBrace
	tokRBrace
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case r == '\n':
			l.line++
			l.pos++
		case unicode.IsSpace(r):
			l.pos++
		case r == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case r == '=':
			l.pos++
			return token{kind: tokEquals, line: l.line}, nil
		case r == '{':
			l.pos++
			return token{kind: tokLBrace, line: l.line}, nil
		case r == '}':
			l.pos++
			return token{kind: tokRBrace, line: l.line}, nil
		case r == '"':
			return l.lexString()
		default:
			return l.lexWord()
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

func (l *lexer) lexString() (token, error) {
	start := l.line
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch r {
		case '"':
			l.pos++
			return token{kind: tokString, text: sb.String(), line: start}, nil
		case '\n':
			return token{}, &ParseError{Line: start, Msg: "unterminated string"}
		case '\\':
			if l.pos+1 < len(l.src) {
				l.pos++
				next := l.src[l.pos]
				switch next {
				case '"', '\\':
					sb.WriteRune(next)
				case 'n':
					sb.WriteRune('\n')
				case 't':
					sb.WriteRune('\t')
				default:
					return token{}, &ParseError{Line: start, Msg: fmt.Sprintf("unknown escape \\%c", next)}
				}
				l.pos++
			} else {
				return token{}, &ParseError{Line: start, Msg: "unterminated string"}
			}
		default:
			sb.WriteRune(r)
			l.pos++
		}
	}
	return token{}, &ParseError{Line: start, Msg: "unterminated string"}
}

func (l *lexer) lexWord() (token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if unicode.IsSpace(r) || r == '=' || r == '{' || r == '}' || r == '#' || r == '"' {
			break
		}
		l.pos++
	}
	return token{kind: tokWord, text: string(l.src[start:l.pos]), line: l.line}, nil
}

type parser struct {
	lex  *lexer
	tok  token
	path string
}

// parse turns a config file's text into a block tree.
func parse(path, src string) (*blockNode, error) {
	p := &parser{lex: newLexer(src), path: path}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseEntries(tokEOF)
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return root, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Path == "" {
			pe.Path = p.path
		}
		return err
	}
	p.tok = tok
	return nil
}

// parseEntries reads `name = value` and `name { ... }` entries until the
// given terminator token.
func (p *parser) parseEntries(until tokenKind) (*blockNode, error) {
	block := &blockNode{entries: make(map[string]entry)}
	for {
		if p.tok.kind == until {
			return block, nil
		}
		if p.tok.kind == tokEOF {
			return nil, &ParseError{Line: p.tok.line, Msg: "unexpected end of file: unclosed block"}
		}
		if p.tok.kind != tokWord {
			return nil, &ParseError{Line: p.tok.line, Msg: fmt.Sprintf("expected a key name, got %s", describe(p.tok))}
		}

		name := p.tok.text
		nameLine := p.tok.line
		if _, dup := block.entries[name]; dup {
			return nil, &ParseError{Line: nameLine, Msg: fmt.Sprintf("key %q appears more than once", name)}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}

		switch p.tok.kind {
		case tokEquals:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokWord && p.tok.kind != tokString {
				return nil, &ParseError{Line: p.tok.line, Msg: fmt.Sprintf("expected a value for %q, got %s", name, describe(p.tok))}
			}
			block.entries[name] = entry{line: nameLine, scalar: p.tok.text, quoted: p.tok.kind == tokString}
			block.order = append(block.order, name)
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLBrace:
			if err := p.advance(); err != nil {
				return nil, err
			}
			sub, err := p.parseEntries(tokRBrace)
			if err != nil {
				return nil, err
			}
			// consume the closing brace
			if err := p.advance(); err != nil {
				return nil, err
			}
			block.entries[name] = entry{line: nameLine, block: sub}
			block.order = append(block.order, name)
		default:
			return nil, &ParseError{Line: p.tok.line, Msg: fmt.Sprintf("expected '=' or '{' after %q, got %s", name, describe(p.tok))}
		}
	}
}

func describe(t token) string {
	switch t.kind {
	case tokWord:
		return fmt.Sprintf("%q", t.text)
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokEquals:
		return "'='"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokEOF:
		return "end of file"
	}
	return "unknown token"
}
