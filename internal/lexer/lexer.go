// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package lexer scans rule-source text into a stream of tokens for the
// parser. It is hand-written and single-pass: no external scanner
// generator is involved, matching the rest of the rule-compiler pipeline.
package lexer

import (
	"strconv"
	"strings"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// keyword is one entry of the fixed, ordered keyword table. Order matters:
// lexemes that share a prefix with a shorter lexeme must appear before it,
// e.g. "inet6" before "inet" before "in", or the longer lexeme is never
// matched.
type keyword struct {
	kind   Kind
	lexeme string
}

var keywords = []keyword{
	{BlockAction, "block"},
	{PermitAction, "permit"},
	{LBrack, "{"},
	{RBrack, "}"},
	{Inet6, "inet6"},
	{Inet4, "inet"},
	{InDir, "in"},
	{OutDir, "out"},
	{Port, "port"},
	{Proto, "proto"},
	{From, "from"},
	{To, "to"},
	{TcpTransport, "tcp"},
	{UdpTransport, "udp"},
	{All, "all"},
	{Comma, ","},
}

// additional runes allowed inside an identifier, beyond alphanumerics --
// these appear in IPv4/IPv6 addresses and CIDR subnets.
func isIdentRune(r rune) bool {
	return isAlnum(r) || r == '.' || r == ':' || r == '/'
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Lexer scans a single rule-source string into tokens. It is not safe for
// concurrent use, and a Lexer instance is scoped to a single parse.
type Lexer struct {
	input string
	pos   int // byte offset into input
	line  int
	col   int
}

// New creates a Lexer over the given rule-source text.
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.input[l.pos]
}

// advance consumes one byte, updating line/column bookkeeping.
func (l *Lexer) advance() byte {
	b := l.input[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) loc() SourceLocation {
	return SourceLocation{Line: l.line, Column: l.col}
}

// NextToken returns the next token in the stream, or an EndOfInput token
// once the input is exhausted. It never advances past the end of input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.eof() || l.peek() == 0 {
		return Token{Kind: EndOfInput, Text: "EOF", Location: l.loc()}, nil
	}

	start := l.loc()

	if l.peek() == '"' {
		return l.scanString(start)
	}

	if kw, ok := l.matchKeyword(); ok {
		kw.Location = start
		return kw, nil
	}

	return l.scanIdentifier(start)
}

// matchKeyword tries each keyword in table order against the remaining
// input, taking the first (and by table ordering, longest-prefix) match.
func (l *Lexer) matchKeyword() (Token, bool) {
	remaining := l.input[l.pos:]
	for _, kw := range keywords {
		if strings.HasPrefix(remaining, kw.lexeme) {
			for range kw.lexeme {
				l.advance()
			}
			return Token{Kind: kw.kind, Text: kw.lexeme}, true
		}
	}
	return Token{}, false
}

func (l *Lexer) scanString(start SourceLocation) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for !l.eof() && l.peek() != '"' {
		sb.WriteByte(l.advance())
	}
	if l.eof() {
		return Token{}, werrors.Errorf(werrors.KindParse, "unterminated string starting at %s", start)
	}
	l.advance() // closing quote
	return Token{Kind: String, Text: sb.String(), Location: start}, nil
}

func (l *Lexer) scanIdentifier(start SourceLocation) (Token, error) {
	var sb strings.Builder
	for !l.eof() {
		r := rune(l.peek())
		if !isIdentRune(r) {
			break
		}
		sb.WriteByte(l.advance())
	}
	ident := sb.String()
	if ident == "" {
		bad := l.advance()
		return Token{}, werrors.Errorf(werrors.KindParse, "unrecognized character %q at %s", rune(bad), start)
	}

	if idx := strings.IndexByte(ident, '/'); idx >= 0 {
		tok, err := ipAddressAndSubnet(ident, idx)
		if err != nil {
			return Token{}, werrors.Attr(err, "location", start)
		}
		tok.Location = start
		return tok, nil
	}

	if isIPv6(ident) {
		return Token{Kind: Ipv6Address, Text: ident, Location: start}, nil
	}
	if isIPv4(ident) {
		return Token{Kind: Ipv4Address, Text: ident, Location: start}, nil
	}
	if allDigits(ident) {
		return Token{Kind: Number, Text: ident, Location: start}, nil
	}

	return Token{}, werrors.Errorf(werrors.KindParse, "unrecognized identifier %q at %s", ident, start)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

// ipAddressAndSubnet classifies an identifier of the form ADDR/PREFIX.
func ipAddressAndSubnet(ident string, slashIdx int) (Token, error) {
	addr := ident[:slashIdx]
	prefixStr := ident[slashIdx+1:]

	prefix, err := strconv.Atoi(prefixStr)
	if err != nil || prefix <= 0 {
		return Token{}, werrors.Errorf(werrors.KindParse, "invalid prefix length in %q", ident)
	}

	switch {
	case isIPv6(addr) && prefix <= 128:
		return Token{Kind: Ipv6Address, Text: ident}, nil
	case isIPv4(addr) && prefix <= 32:
		return Token{Kind: Ipv4Address, Text: ident}, nil
	default:
		return Token{}, werrors.Errorf(werrors.KindParse, "invalid ip address and subnet: %s", ident)
	}
}

// isIPv4 reports whether s has the dotted-quad shape of an IPv4 address.
// It intentionally only checks syntactic shape (four dot-separated
// 0-255 groups); the lexer does not reject addresses that are
// syntactically valid but semantically unusual (e.g. 0.0.0.0).
func isIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if !allDigits(p) {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// isIPv6 reports whether s has the colon-separated shape of an IPv6
// address. We require at least two colons to avoid classifying bare
// identifiers or port-like numbers as IPv6.
func isIPv6(s string) bool {
	if strings.Count(s, ":") < 2 {
		return false
	}
	groups := strings.Split(s, "::")
	if len(groups) > 2 {
		return false
	}
	for _, group := range groups {
		if group == "" {
			continue
		}
		for _, h := range strings.Split(group, ":") {
			if h == "" {
				return false
			}
			if len(h) > 4 {
				return false
			}
			for _, r := range h {
				if !isHexDigit(r) {
					return false
				}
			}
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// AllTokens scans the entire input and returns every token except the
// trailing EndOfInput, in order. Intended for tests.
func (l *Lexer) AllTokens() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == EndOfInput {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
