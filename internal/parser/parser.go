// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package parser is a recursive-descent, single-token-lookahead parser
// for the rule-source DSL. It consumes a lexer.Lexer and produces a
// validated ast.Ruleset, or fails with a located parse error. There is
// no backtracking: the grammar is LL(1).
package parser

import (
	"fmt"
	"strconv"

	"github.com/bmgrimm/wfpctl/internal/ast"
	werrors "github.com/bmgrimm/wfpctl/internal/errors"
	"github.com/bmgrimm/wfpctl/internal/lexer"
)

type parser struct {
	lex *lexer.Lexer
	cur lexer.Token
}

// Parse scans and parses an entire rule-source string into a Ruleset. On
// any lexer or parser failure it aborts immediately and returns the
// located error: there is no partial commit, and the returned Ruleset is
// always the zero value on error.
func Parse(source string) (ruleset ast.Ruleset, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			ruleset = ast.Ruleset{}
			err = e
		}
	}()

	p := &parser{lex: lexer.New(source)}
	p.advance()
	ruleset = p.parseRuleset()
	return ruleset, nil
}

func (p *parser) advance() {
	tok, err := p.lex.NextToken()
	if err != nil {
		panic(err)
	}
	p.cur = tok
}

// fail raises a located parse error, unwinding to Parse's recover.
func (p *parser) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(werrors.Attr(werrors.New(werrors.KindParse, msg), "location", p.cur.Location))
}

// match consumes and returns the current token if its kind is among
// kinds, returning ok=false (without consuming) otherwise.
func (p *parser) match(kinds ...lexer.Kind) (lexer.Token, bool) {
	for _, k := range kinds {
		if p.cur.Kind == k {
			tok := p.cur
			p.advance()
			return tok, true
		}
	}
	return lexer.Token{}, false
}

// mustMatch consumes the current token if it is kind, or fails.
func (p *parser) mustMatch(kind lexer.Kind) lexer.Token {
	tok, ok := p.match(kind)
	if !ok {
		p.fail("expected %s, got %s(%q)", kind, p.cur.Kind, p.cur.Text)
	}
	return tok
}

func (p *parser) parseRuleset() ast.Ruleset {
	var filters []ast.Filter
	for p.cur.Kind != lexer.EndOfInput {
		filters = append(filters, p.parseFilter())
	}
	return ast.Ruleset{Filters: filters}
}

func (p *parser) parseFilter() ast.Filter {
	action := p.parseAction()
	direction := p.parseDirection()
	conditions := p.parseConditions()

	if err := validate(conditions); err != nil {
		panic(werrors.Attr(err, "location", p.cur.Location))
	}

	return ast.Filter{Action: action, Direction: direction, Conditions: conditions}
}

func (p *parser) parseAction() ast.Action {
	if _, ok := p.match(lexer.PermitAction); ok {
		return ast.Permit
	}
	if _, ok := p.match(lexer.BlockAction); ok {
		return ast.Block
	}
	p.fail("expected 'permit' or 'block', got %s(%q)", p.cur.Kind, p.cur.Text)
	panic("unreachable")
}

func (p *parser) parseDirection() ast.Direction {
	if _, ok := p.match(lexer.InDir); ok {
		return ast.In
	}
	if _, ok := p.match(lexer.OutDir); ok {
		return ast.Out
	}
	p.fail("expected 'in' or 'out', got %s(%q)", p.cur.Kind, p.cur.Text)
	panic("unreachable")
}

func (p *parser) parseConditions() ast.FilterConditions {
	if _, ok := p.match(lexer.All); ok {
		return ast.NoFilterConditions
	}

	var c ast.FilterConditions

	if _, ok := p.match(lexer.Inet4); ok {
		c.IPVersion = ast.V4Only
	} else if _, ok := p.match(lexer.Inet6); ok {
		c.IPVersion = ast.V6Only
	}

	if _, ok := p.match(lexer.Proto); ok {
		c.Transport = p.parseProto()
	}

	if _, ok := p.match(lexer.From); ok {
		p.parseSrc(&c)
	}

	if _, ok := p.match(lexer.To); ok {
		ips, ports := p.parseAddrAndPorts()
		c.DestIPs = ips
		c.DestPorts = ports
	}

	return c
}

// parseProto parses "tcp" | "udp" | "{" proto_list "}" and reduces the
// result to a single Transport value.
func (p *parser) parseProto() ast.Transport {
	if _, ok := p.match(lexer.TcpTransport); ok {
		return ast.Tcp
	}
	if _, ok := p.match(lexer.UdpTransport); ok {
		return ast.Udp
	}

	var tcpCount, udpCount, total int
	p.list([]lexer.Kind{lexer.TcpTransport, lexer.UdpTransport}, func(tok lexer.Token) {
		total++
		switch tok.Kind {
		case lexer.TcpTransport:
			tcpCount++
		case lexer.UdpTransport:
			udpCount++
		}
	})

	if total > 2 {
		p.fail("expected at most 2 values in transport protocol list")
	}

	switch {
	case tcpCount > 0 && udpCount > 0:
		return ast.AllTransport
	case tcpCount > 0:
		return ast.Tcp
	case udpCount > 0:
		return ast.Udp
	default:
		return ast.AllTransport
	}
}

// parseSrc parses the "from" clause: either a source-app string, or an
// addr_and_ports specification.
func (p *parser) parseSrc(c *ast.FilterConditions) {
	if tok, ok := p.match(lexer.String); ok {
		c.SourceApp = tok.Text
		return
	}
	ips, ports := p.parseAddrAndPorts()
	c.SourceIPs = ips
	c.SourcePorts = ports
}

// parseAddrAndPorts parses:
//
//	(addr | "{" addr_list "}")? ("port" (Number | "{" number_list "}"))?
//
// At least one of the address part or the port part must be present.
func (p *parser) parseAddrAndPorts() (ast.IPAddresses, []uint16) {
	var addrs ast.IPAddresses
	var ports []uint16
	haveAddr := false
	havePort := false

	switch {
	case p.cur.Kind == lexer.Ipv4Address:
		tok, _ := p.match(lexer.Ipv4Address)
		addrs.V4 = append(addrs.V4, tok.Text)
		haveAddr = true
	case p.cur.Kind == lexer.Ipv6Address:
		tok, _ := p.match(lexer.Ipv6Address)
		addrs.V6 = append(addrs.V6, tok.Text)
		haveAddr = true
	case p.cur.Kind == lexer.LBrack:
		p.list([]lexer.Kind{lexer.Ipv4Address, lexer.Ipv6Address}, func(tok lexer.Token) {
			if tok.Kind == lexer.Ipv4Address {
				addrs.V4 = append(addrs.V4, tok.Text)
			} else {
				addrs.V6 = append(addrs.V6, tok.Text)
			}
		})
		haveAddr = true
	}

	if _, ok := p.match(lexer.Port); ok {
		havePort = true
		if numTok, ok := p.match(lexer.Number); ok {
			ports = append(ports, p.parsePortNumber(numTok))
		} else {
			p.list([]lexer.Kind{lexer.Number}, func(tok lexer.Token) {
				ports = append(ports, p.parsePortNumber(tok))
			})
		}
	}

	if !haveAddr && !havePort {
		p.fail("expected an address, a port, or both")
	}

	return addrs, ports
}

func (p *parser) parsePortNumber(tok lexer.Token) uint16 {
	n, err := strconv.ParseUint(tok.Text, 10, 16)
	if err != nil {
		p.fail("port %q out of range", tok.Text)
	}
	return uint16(n)
}

// list consumes "{" element ("," element)* "}", applying f to each
// matched element token. A trailing comma or an empty element between
// two commas is a parse error; an empty "{}" is permitted and yields no
// elements.
func (p *parser) list(kinds []lexer.Kind, f func(lexer.Token)) {
	p.mustMatch(lexer.LBrack)
	if _, ok := p.match(lexer.RBrack); ok {
		return
	}
	for {
		tok, ok := p.match(kinds...)
		if !ok {
			p.fail("unexpected %s(%q) in list", p.cur.Kind, p.cur.Text)
		}
		f(tok)
		if _, ok := p.match(lexer.Comma); ok {
			continue
		}
		break
	}
	p.mustMatch(lexer.RBrack)
}
