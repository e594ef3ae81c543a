// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package lexer

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EndOfInput Kind = iota
	BlockAction
	PermitAction
	LBrack
	RBrack
	InDir
	OutDir
	Port
	Proto
	String
	Number
	From
	To
	TcpTransport
	UdpTransport
	All
	Ipv4Address
	Ipv6Address
	Inet4
	Inet6
	Comma
)

func (k Kind) String() string {
	switch k {
	case EndOfInput:
		return "EndOfInput"
	case BlockAction:
		return "BlockAction"
	case PermitAction:
		return "PermitAction"
	case LBrack:
		return "LBrack"
	case RBrack:
		return "RBrack"
	case InDir:
		return "InDir"
	case OutDir:
		return "OutDir"
	case Port:
		return "Port"
	case Proto:
		return "Proto"
	case String:
		return "String"
	case Number:
		return "Number"
	case From:
		return "From"
	case To:
		return "To"
	case TcpTransport:
		return "TcpTransport"
	case UdpTransport:
		return "UdpTransport"
	case All:
		return "All"
	case Ipv4Address:
		return "Ipv4Address"
	case Ipv6Address:
		return "Ipv6Address"
	case Inet4:
		return "Inet4"
	case Inet6:
		return "Inet6"
	case Comma:
		return "Comma"
	default:
		return "Unknown"
	}
}

// SourceLocation is a 1-based line/column pair. Column refers to the first
// character of whatever token or lexeme it is attached to.
type SourceLocation struct {
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Token is a single lexeme plus its kind and source location. Equality
// between two tokens ignores Location: only Kind and Text participate.
type Token struct {
	Kind     Kind
	Text     string
	Location SourceLocation
}

// Equal reports whether two tokens have the same Kind and Text, ignoring
// their source locations.
func (t Token) Equal(other Token) bool {
	return t.Kind == other.Kind && t.Text == other.Text
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Location)
}
