// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package lower walks a validated ast.Ruleset and builds the Filter
// Records ready for installation in the engine facade. This is the
// fan-out step: one Filter whose conditions reference several addresses
// or ports becomes several Filter Records, each with a fixed-shape
// condition list.
package lower

import "github.com/bmgrimm/wfpctl/internal/ast"

// LayerKey identifies one of the four authorization layers the engine
// exposes. There are no other layers in scope.
type LayerKey int

const (
	AuthConnectV4 LayerKey = iota
	AuthConnectV6
	AuthReceiveV4
	AuthReceiveV6
)

func (k LayerKey) String() string {
	switch k {
	case AuthConnectV4:
		return "auth-connect-v4"
	case AuthConnectV6:
		return "auth-connect-v6"
	case AuthReceiveV4:
		return "auth-receive-v4"
	case AuthReceiveV6:
		return "auth-receive-v6"
	default:
		return "unknown-layer"
	}
}

// FieldKey names the packet/connection attribute a Condition tests.
type FieldKey int

const (
	FieldAppID FieldKey = iota
	FieldLocalIP
	FieldLocalPort
	FieldRemoteIP
	FieldRemotePort
	FieldProtocol
)

func (f FieldKey) String() string {
	switch f {
	case FieldAppID:
		return "app_id"
	case FieldLocalIP:
		return "local_ip"
	case FieldLocalPort:
		return "local_port"
	case FieldRemoteIP:
		return "remote_ip"
	case FieldRemotePort:
		return "remote_port"
	case FieldProtocol:
		return "protocol"
	default:
		return "unknown_field"
	}
}

// MatchType names the comparison a Condition applies. The DSL only ever
// produces equality conditions.
type MatchType int

const (
	MatchEqual MatchType = iota
)

func (m MatchType) String() string {
	return "equal"
}

// AddrMaskV4 is a (network address, subnet mask) pair in host byte
// order, used for FieldLocalIP/FieldRemoteIP conditions on the v4
// layers.
type AddrMaskV4 struct {
	Addr uint32
	Mask uint32
}

// AddrPrefixV6 is a (network address, prefix length) pair, used for
// FieldLocalIP/FieldRemoteIP conditions on the v6 layers.
type AddrPrefixV6 struct {
	Addr         [16]byte
	PrefixLength int
}

// Condition is one (field, match, value) triple. Value holds an
// AddrMaskV4, AddrPrefixV6, uint16 (port), uint8 (protocol number), or
// string (app-id), depending on Field.
type Condition struct {
	Field FieldKey
	Match MatchType
	Value any
}

// Default weights. DemoWeight is reserved for the built-in `create` demo
// filter; every rule lowered from rule-source text uses DefaultWeight.
const (
	DefaultWeight uint8 = 10
	DemoWeight    uint8 = 5
)

// FilterRecord is a single record ready for installation via the engine
// facade's Add method. FilterID is populated by the engine after a
// successful Add; it is the zero value beforehand.
type FilterRecord struct {
	ProviderKey string
	SublayerKey string
	DisplayData string
	LayerKey    LayerKey
	Action      ast.Action
	Weight      uint8
	Conditions  []Condition
	FilterID    uint64
}

// NumConditions reports len(Conditions), used by the conservativity
// invariant check in tests.
func (r FilterRecord) NumConditions() int { return len(r.Conditions) }

// KeyResolver supplies the opaque provider/sublayer identifiers and the
// application-identity blob resolution that the lowerer needs but does
// not own; engine.Facade implementations satisfy this interface.
type KeyResolver interface {
	ProviderKey() string
	SublayerKey() string
	DisplayData() string
	AppIDFromPath(path string) (string, error)
}
