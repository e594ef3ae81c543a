// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"encoding/binary"

	"github.com/google/nftables/expr"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// Network-header byte offsets for the source/destination address fields.
// IPv4: version(1)+tos(1)+len(2)+id(2)+flags/frag(2)+ttl(1)+proto(1)+csum(2) = 12 bytes before src.
// IPv6: version/class/flow(4)+paylen(2)+nexthdr(1)+hoplimit(1) = 8 bytes before src; dst follows 16 bytes later.
const (
	offsetV4Src = 12
	offsetV4Dst = 16
	offsetV6Src = 8
	offsetV6Dst = 24
)

// Transport-header byte offsets for TCP and UDP; both place the source
// port at offset 0 and the destination port at offset 2.
const (
	offsetPortSrc = 0
	offsetPortDst = 2
)

// addressOffsets returns the network-header offset of the local and
// remote address for layer, given a 4 or 16 byte address. For a connect
// (outbound) layer the local side is the packet's source; for a receive
// (inbound) layer it is the destination.
func addressOffsets(layer lower.LayerKey) (localOffset, remoteOffset uint32) {
	v6 := isV6Layer(layer)
	connect := isConnectLayer(layer)
	switch {
	case v6 && connect:
		return offsetV6Src, offsetV6Dst
	case v6 && !connect:
		return offsetV6Dst, offsetV6Src
	case !v6 && connect:
		return offsetV4Src, offsetV4Dst
	default:
		return offsetV4Dst, offsetV4Src
	}
}

// portOffsets returns the transport-header offset of the local and
// remote port for layer, mirroring addressOffsets.
func portOffsets(layer lower.LayerKey) (localOffset, remoteOffset uint32) {
	if isConnectLayer(layer) {
		return offsetPortSrc, offsetPortDst
	}
	return offsetPortDst, offsetPortSrc
}

// buildRuleExprs translates one lowered FilterRecord's conditions into
// the expression list for a single nftables rule in the given layer's
// chain, terminated by a packet counter and the verdict for action.
// FieldAppID conditions carry no kernel-level match: nftables has no
// primitive for "the process that owns this socket is this path", so
// the app id is recorded only in the rule's UserData (see ruleUserData)
// for presentation; SubscribeEvents does not match flows against it.
func buildRuleExprs(layer lower.LayerKey, conditions []lower.Condition, action ruleVerdict) ([]expr.Any, error) {
	spec := layerChains[layer]
	exprs := []expr.Any{
		&expr.Meta{Key: expr.MetaKeyNFPROTO, Register: 1},
		&expr.Cmp{Op: expr.CmpOpEq, Register: 1, Data: []byte{spec.nfproto}},
	}

	localAddrOff, remoteAddrOff := addressOffsets(layer)
	localPortOff, remotePortOff := portOffsets(layer)

	for _, c := range conditions {
		switch c.Field {
		case lower.FieldAppID:
			continue
		case lower.FieldLocalIP:
			e, err := addressExprs(localAddrOff, c.Value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e...)
		case lower.FieldRemoteIP:
			e, err := addressExprs(remoteAddrOff, c.Value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e...)
		case lower.FieldLocalPort:
			port, ok := c.Value.(uint16)
			if !ok {
				return nil, werrors.New(werrors.KindInternal, "local_port condition value is not a uint16")
			}
			exprs = append(exprs, portExprs(localPortOff, port)...)
		case lower.FieldRemotePort:
			port, ok := c.Value.(uint16)
			if !ok {
				return nil, werrors.New(werrors.KindInternal, "remote_port condition value is not a uint16")
			}
			exprs = append(exprs, portExprs(remotePortOff, port)...)
		case lower.FieldProtocol:
			proto, ok := c.Value.(uint8)
			if !ok {
				return nil, werrors.New(werrors.KindInternal, "protocol condition value is not a uint8")
			}
			exprs = append(exprs, &expr.Meta{Key: expr.MetaKeyL4PROTO, Register: 1}, &expr.Cmp{Op: expr.CmpOpEq, Register: 1, Data: []byte{proto}})
		default:
			return nil, werrors.Errorf(werrors.KindInternal, "unhandled condition field %v", c.Field)
		}
	}

	exprs = append(exprs, &expr.Counter{})
	exprs = append(exprs, &expr.Verdict{Kind: verdictKind(action)})
	return exprs, nil
}

func addressExprs(offset uint32, value any) ([]expr.Any, error) {
	switch v := value.(type) {
	case lower.AddrMaskV4:
		addr := make([]byte, 4)
		binary.BigEndian.PutUint32(addr, v.Addr)
		mask := make([]byte, 4)
		binary.BigEndian.PutUint32(mask, v.Mask)
		masked := make([]byte, 4)
		for i := range masked {
			masked[i] = addr[i] & mask[i]
		}
		return []expr.Any{
			&expr.Payload{DestRegister: 1, Base: expr.PayloadBaseNetworkHeader, Offset: offset, Len: 4},
			&expr.Bitwise{SourceRegister: 1, DestRegister: 1, Len: 4, Mask: mask, Xor: make([]byte, 4)},
			&expr.Cmp{Op: expr.CmpOpEq, Register: 1, Data: masked},
		}, nil
	case lower.AddrPrefixV6:
		mask := v6PrefixMask(v.PrefixLength)
		masked := make([]byte, 16)
		for i := range masked {
			masked[i] = v.Addr[i] & mask[i]
		}
		return []expr.Any{
			&expr.Payload{DestRegister: 1, Base: expr.PayloadBaseNetworkHeader, Offset: offset, Len: 16},
			&expr.Bitwise{SourceRegister: 1, DestRegister: 1, Len: 16, Mask: mask, Xor: make([]byte, 16)},
			&expr.Cmp{Op: expr.CmpOpEq, Register: 1, Data: masked},
		}, nil
	default:
		return nil, werrors.Errorf(werrors.KindInternal, "ip condition value has unexpected type %T", value)
	}
}

func v6PrefixMask(prefixLen int) []byte {
	mask := make([]byte, 16)
	for i := 0; i < prefixLen && i < 128; i++ {
		mask[i/8] |= 1 << (7 - uint(i%8))
	}
	return mask
}

func portExprs(offset uint32, port uint16) []expr.Any {
	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, port)
	return []expr.Any{
		&expr.Payload{DestRegister: 1, Base: expr.PayloadBaseTransportHeader, Offset: offset, Len: 2},
		&expr.Cmp{Op: expr.CmpOpEq, Register: 1, Data: data},
	}
}

// ruleVerdict is the two outcomes a filter rule can carry.
type ruleVerdict int

const (
	verdictAccept ruleVerdict = iota
	verdictDrop
)

func verdictKind(v ruleVerdict) expr.VerdictKind {
	if v == verdictDrop {
		return expr.VerdictDrop
	}
	return expr.VerdictAccept
}
