// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ast holds the rule-language abstract syntax tree: a flat
// Ruleset of Filter nodes, each carrying a fully resolved
// FilterConditions value. The tree has bounded depth and is consumed
// immediately by the lowerer, so it is represented as plain structs
// rather than a polymorphic node hierarchy.
package ast

// Action is the disposition a Filter applies to matching traffic.
type Action int

const (
	Block Action = iota
	Permit
)

func (a Action) String() string {
	if a == Permit {
		return "permit"
	}
	return "block"
}

// Direction is the traffic direction a Filter applies to.
type Direction int

const (
	Out Direction = iota
	In
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// IPVersion constrains which address family a Filter's conditions may
// reference.
type IPVersion int

const (
	BothV4V6 IPVersion = iota
	V4Only
	V6Only
)

func (v IPVersion) String() string {
	switch v {
	case V4Only:
		return "inet"
	case V6Only:
		return "inet6"
	default:
		return "both"
	}
}

// Transport constrains the L4 protocol a Filter's conditions apply to.
type Transport int

const (
	AllTransport Transport = iota
	Tcp
	Udp
)

func (t Transport) String() string {
	switch t {
	case Tcp:
		return "tcp"
	case Udp:
		return "udp"
	default:
		return "all"
	}
}

// IPAddresses buckets CIDR strings by address family. Ordering within
// each bucket is authoring order.
type IPAddresses struct {
	V4 []string
	V6 []string
}

// Empty reports whether neither bucket holds any entries.
func (a IPAddresses) Empty() bool {
	return len(a.V4) == 0 && len(a.V6) == 0
}

// FilterConditions is the design-level predicate attached to a Filter.
// The zero value is NoFilterConditions.
type FilterConditions struct {
	IPVersion     IPVersion
	Transport     Transport
	SourceApp     string
	SourceIPs     IPAddresses
	DestIPs       IPAddresses
	SourcePorts   []uint16
	DestPorts     []uint16
	InterfaceName string
}

// NoFilterConditions is the all-default FilterConditions value that the
// literal keyword "all" parses to.
var NoFilterConditions = FilterConditions{}

// IsEmpty reports whether every field of c is at its default value, i.e.
// c is equivalent to NoFilterConditions.
func (c FilterConditions) IsEmpty() bool {
	return c.IPVersion == BothV4V6 &&
		c.Transport == AllTransport &&
		c.SourceApp == "" &&
		c.SourceIPs.Empty() &&
		c.DestIPs.Empty() &&
		len(c.SourcePorts) == 0 &&
		len(c.DestPorts) == 0 &&
		c.InterfaceName == ""
}

// Filter is a single rule: an action applied to traffic in a direction,
// constrained by conditions.
type Filter struct {
	Action     Action
	Direction  Direction
	Conditions FilterConditions
}

// Ruleset is an ordered sequence of Filter nodes. Order is authoring
// order and is preserved end-to-end through lowering and installation.
type Ruleset struct {
	Filters []Filter
}

// Len returns the number of filters in the ruleset.
func (r Ruleset) Len() int { return len(r.Filters) }
