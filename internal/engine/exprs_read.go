// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"encoding/binary"

	"github.com/google/nftables/expr"

	"github.com/bmgrimm/wfpctl/internal/lower"
)

// conditionsFromExprs is the inverse of buildRuleExprs: it reads a
// rule's expression list back into the ConditionViews the list/monitor
// commands print. The leading nfproto match and the trailing counter
// and verdict are layer bookkeeping, not conditions, and are skipped.
func conditionsFromExprs(layer lower.LayerKey, exprs []expr.Any) []ConditionView {
	localAddrOff, remoteAddrOff := addressOffsets(layer)
	localPortOff, remotePortOff := portOffsets(layer)

	var out []ConditionView
	for i := 0; i < len(exprs); i++ {
		switch e := exprs[i].(type) {
		case *expr.Meta:
			if e.Key == expr.MetaKeyNFPROTO {
				continue // layer bookkeeping, not a printable condition
			}
			if e.Key == expr.MetaKeyL4PROTO {
				if cmp, ok := nextCmp(exprs, i+1); ok && len(cmp.Data) == 1 {
					out = append(out, conditionView(lower.FieldProtocol, protocolFriendlyName(cmp.Data[0])))
					i++
				}
			}
		case *expr.Payload:
			switch e.Len {
			case 2:
				if cmp, ok := nextCmp(exprs, i+1); ok && len(cmp.Data) == 2 {
					port := binary.BigEndian.Uint16(cmp.Data)
					out = append(out, conditionView(fieldForPortOffset(e.Offset, localPortOff, remotePortOff), port))
					i++
				}
			case 4:
				if bw, ok := nextBitwise(exprs, i+1); ok {
					if cmp, ok := nextCmp(exprs, i+2); ok {
						field := fieldForAddrOffset(e.Offset, localAddrOff, remoteAddrOff)
						out = append(out, conditionView(field, lower.AddrMaskV4{
							Addr: binary.BigEndian.Uint32(cmp.Data),
							Mask: binary.BigEndian.Uint32(bw.Mask),
						}))
						i += 2
					}
				}
			case 16:
				if bw, ok := nextBitwise(exprs, i+1); ok {
					if cmp, ok := nextCmp(exprs, i+2); ok {
						field := fieldForAddrOffset(e.Offset, localAddrOff, remoteAddrOff)
						var ap lower.AddrPrefixV6
						copy(ap.Addr[:], cmp.Data)
						ap.PrefixLength = countMaskBits(bw.Mask)
						out = append(out, conditionView(field, ap))
						i += 2
					}
				}
			}
		}
	}
	return out
}

func conditionView(field lower.FieldKey, value any) ConditionView {
	return ConditionView{
		Field:     field,
		FieldName: fieldFriendlyName(field),
		Match:     lower.MatchEqual,
		MatchName: matchFriendlyName(lower.MatchEqual),
		Value:     value,
	}
}

func fieldForAddrOffset(offset, localOffset, remoteOffset uint32) lower.FieldKey {
	if offset == localOffset {
		return lower.FieldLocalIP
	}
	return lower.FieldRemoteIP
}

func fieldForPortOffset(offset, localOffset, remoteOffset uint32) lower.FieldKey {
	if offset == localOffset {
		return lower.FieldLocalPort
	}
	return lower.FieldRemotePort
}

func nextCmp(exprs []expr.Any, i int) (*expr.Cmp, bool) {
	if i >= len(exprs) {
		return nil, false
	}
	c, ok := exprs[i].(*expr.Cmp)
	return c, ok
}

func nextBitwise(exprs []expr.Any, i int) (*expr.Bitwise, bool) {
	if i >= len(exprs) {
		return nil, false
	}
	b, ok := exprs[i].(*expr.Bitwise)
	return b, ok
}

func countMaskBits(mask []byte) int {
	n := 0
	for _, b := range mask {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}
	return n
}
