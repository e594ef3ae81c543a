// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package lower

import (
	"github.com/bmgrimm/wfpctl/internal/ast"
	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// Ruleset lowers every Filter in ruleset, in order, returning the
// concatenation of their Filter Records in Ruleset order and, within a
// rule, in the canonical condition-fan-out order (source-app, source-ip,
// source-port, dest-ip, dest-port, transport; see dimensionsOf).
func Ruleset(ruleset ast.Ruleset, resolver KeyResolver) ([]FilterRecord, error) {
	var out []FilterRecord
	for _, filter := range ruleset.Filters {
		records, err := Filter(filter, resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// Filter lowers a single Filter into one or more FilterRecords.
func Filter(filter ast.Filter, resolver KeyResolver) ([]FilterRecord, error) {
	dims, err := dimensionsOf(filter.Conditions, resolver)
	if err != nil {
		return nil, err
	}

	layers := layersFor(filter)
	combos := cartesian(dims)

	records := make([]FilterRecord, 0, len(layers)*len(combos))
	for _, layer := range layers {
		layerV6 := layer == AuthConnectV6 || layer == AuthReceiveV6
	nextCombo:
		for _, combo := range combos {
			for _, c := range combo {
				_, isV4 := c.Value.(AddrMaskV4)
				_, isV6 := c.Value.(AddrPrefixV6)
				if (isV4 && layerV6) || (isV6 && !layerV6) {
					continue nextCombo
				}
			}
			records = append(records, FilterRecord{
				ProviderKey: resolver.ProviderKey(),
				SublayerKey: resolver.SublayerKey(),
				DisplayData: resolver.DisplayData(),
				LayerKey:    layer,
				Action:      filter.Action,
				Weight:      DefaultWeight,
				Conditions:  combo,
			})
		}
	}
	return records, nil
}

// layersFor picks which nftables layers a filter's conditions lower
// into: direction picks connect vs. receive; ip_version picks the
// family, falling back under BothV4V6 to v4 unless the rule carries
// only v6 address conditions, and emitting both when it carries both
// v4 and v6 address conditions.
func layersFor(filter ast.Filter) []LayerKey {
	c := filter.Conditions
	hasV4 := len(c.SourceIPs.V4) > 0 || len(c.DestIPs.V4) > 0
	hasV6 := len(c.SourceIPs.V6) > 0 || len(c.DestIPs.V6) > 0

	var emitV4, emitV6 bool
	switch c.IPVersion {
	case ast.V4Only:
		emitV4 = true
	case ast.V6Only:
		emitV6 = true
	default:
		emitV4 = hasV4 || !hasV6
		emitV6 = hasV6
	}

	connect := filter.Direction == ast.Out

	var layers []LayerKey
	if emitV4 {
		if connect {
			layers = append(layers, AuthConnectV4)
		} else {
			layers = append(layers, AuthReceiveV4)
		}
	}
	if emitV6 {
		if connect {
			layers = append(layers, AuthConnectV6)
		} else {
			layers = append(layers, AuthReceiveV6)
		}
	}
	return layers
}

// dimension holds the mutually-exclusive alternative conditions a single
// field contributes. A Filter whose field has N values (e.g. N dest
// IPs) fans out into N records for that field.
type dimension struct {
	values []Condition
}

// dimensionsOf builds the per-field dimensions in canonical order:
// source-app, source-ip, source-port, dest-ip, dest-port, transport.
func dimensionsOf(c ast.FilterConditions, resolver KeyResolver) ([]dimension, error) {
	var dims []dimension

	if c.SourceApp != "" {
		appID, err := resolver.AppIDFromPath(c.SourceApp)
		if err != nil {
			return nil, werrors.Wrap(err, werrors.KindEngine, "resolving app id")
		}
		dims = append(dims, dimension{values: []Condition{{Field: FieldAppID, Match: MatchEqual, Value: appID}}})
	}

	if ipDim, err := ipDimension(FieldLocalIP, c.SourceIPs); err != nil {
		return nil, err
	} else if len(ipDim.values) > 0 {
		dims = append(dims, ipDim)
	}

	if len(c.SourcePorts) > 0 {
		dims = append(dims, portDimension(FieldLocalPort, c.SourcePorts))
	}

	if ipDim, err := ipDimension(FieldRemoteIP, c.DestIPs); err != nil {
		return nil, err
	} else if len(ipDim.values) > 0 {
		dims = append(dims, ipDim)
	}

	if len(c.DestPorts) > 0 {
		dims = append(dims, portDimension(FieldRemotePort, c.DestPorts))
	}

	if c.Transport != ast.AllTransport {
		var proto uint8
		switch c.Transport {
		case ast.Tcp:
			proto = 6
		case ast.Udp:
			proto = 17
		}
		dims = append(dims, dimension{values: []Condition{{Field: FieldProtocol, Match: MatchEqual, Value: proto}}})
	}

	return dims, nil
}

func ipDimension(field FieldKey, ips ast.IPAddresses) (dimension, error) {
	var vals []Condition
	for _, cidr := range ips.V4 {
		am, err := parseV4(cidr)
		if err != nil {
			return dimension{}, err
		}
		vals = append(vals, Condition{Field: field, Match: MatchEqual, Value: am})
	}
	for _, cidr := range ips.V6 {
		ap, err := parseV6(cidr)
		if err != nil {
			return dimension{}, err
		}
		vals = append(vals, Condition{Field: field, Match: MatchEqual, Value: ap})
	}
	return dimension{values: vals}, nil
}

func portDimension(field FieldKey, ports []uint16) dimension {
	vals := make([]Condition, 0, len(ports))
	for _, port := range ports {
		vals = append(vals, Condition{Field: field, Match: MatchEqual, Value: port})
	}
	return dimension{values: vals}
}

// cartesian expands a list of dimensions into every combination of one
// value from each, preserving dimension order within each combination.
// With zero dimensions, it returns a single empty combination (the
// NoFilterConditions case: one record with zero conditions).
func cartesian(dims []dimension) [][]Condition {
	result := [][]Condition{{}}
	for _, d := range dims {
		var next [][]Condition
		for _, combo := range result {
			for _, v := range d.values {
				nc := make([]Condition, len(combo), len(combo)+1)
				copy(nc, combo)
				nc = append(nc, v)
				next = append(next, nc)
			}
		}
		result = next
	}
	return result
}
