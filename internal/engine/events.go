// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package engine

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/ti-mo/conntrack"
	"github.com/ti-mo/netfilter"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
	"github.com/bmgrimm/wfpctl/internal/logging"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// conntrackSubscription adapts a ti-mo/conntrack event stream into the
// Subscription the CLI's monitor command consumes. conntrack reports
// that a flow was created or destroyed; it has no notion of which
// nftables rule let the flow through. classify reconciles each new
// flow's tuple against the filters currently installed so the emitted
// ClassifyEvent still carries a best-effort verdict and filter id.
type conntrackSubscription struct {
	conn   *conntrack.Conn
	events chan ClassifyEvent
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *conntrackSubscription) Events() <-chan ClassifyEvent { return s.events }

func (s *conntrackSubscription) Close() error {
	s.cancel()
	<-s.done
	return s.conn.Close()
}

// SubscribeEvents opens a conntrack netlink socket and streams one
// ClassifyEvent per newly observed flow until ctx is cancelled or the
// returned Subscription is closed.
func (e *NFTEngine) SubscribeEvents(ctx context.Context) (Subscription, error) {
	conn, err := conntrack.Dial(nil)
	if err != nil {
		return nil, werrors.Wrap(err, werrors.KindEngine, "opening conntrack socket")
	}

	raw := make(chan conntrack.Event, 256)
	errCh, err := conn.Listen(raw, 1, []netfilter.NetlinkGroup{netfilter.GroupCTNew})
	if err != nil {
		conn.Close()
		return nil, werrors.Wrap(err, werrors.KindEngine, "listening for conntrack events")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &conntrackSubscription{
		conn:   conn,
		events: make(chan ClassifyEvent, 256),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go e.pumpEvents(subCtx, sub, raw, errCh)
	return sub, nil
}

func (e *NFTEngine) pumpEvents(ctx context.Context, sub *conntrackSubscription, raw <-chan conntrack.Event, errCh <-chan error) {
	defer close(sub.done)
	defer close(sub.events)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			e.logger.Warn("conntrack event stream error", "error", err)
		case ev, ok := <-raw:
			if !ok {
				return
			}
			if ev.Type != conntrack.EventNew || ev.Flow == nil {
				continue
			}
			cev, ok := e.classify(ctx, ev.Flow)
			if !ok {
				continue
			}
			select {
			case sub.events <- cev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// classify turns a raw conntrack flow into a ClassifyEvent, looking up
// which installed filter, if any, matches the flow's original-direction
// tuple.
func (e *NFTEngine) classify(ctx context.Context, flow *conntrack.Flow) (ClassifyEvent, bool) {
	tuple := flow.TupleOrig
	if tuple.IP.SourceAddress == nil || tuple.IP.DestinationAddress == nil {
		return ClassifyEvent{}, false
	}

	cev := ClassifyEvent{
		Protocol:   protocolFriendlyName(tuple.Proto.Protocol),
		LocalAddr:  tuple.IP.SourceAddress.String(),
		LocalPort:  tuple.Proto.SourcePort,
		RemoteAddr: tuple.IP.DestinationAddress.String(),
		RemotePort: tuple.Proto.DestinationPort,
	}

	filters, err := e.EnumerateFilters(ctx)
	if err != nil {
		e.logger.Warn("enumerating filters while classifying flow", "error", err)
		return cev, true
	}
	if f, ok := matchFilter(filters, tuple.Proto.Protocol, tuple.IP.SourceAddress, tuple.Proto.SourcePort, tuple.IP.DestinationAddress, tuple.Proto.DestinationPort); ok {
		cev.HasFilter = true
		cev.FilterID = f.ID
		cev.Allowed = f.Action.String() == "permit"
	}
	return cev, true
}

// matchFilter finds the first enumerated filter whose address/port
// conditions are all satisfied by the given 5-tuple. EnumerateFilters
// returns filters sorted by descending weight, so the first match is
// the highest-weight filter whose conditions hold; layer, direction and
// app id are not compared.
func matchFilter(filters []Filter, proto uint8, localIP net.IP, localPort uint16, remoteIP net.IP, remotePort uint16) (Filter, bool) {
	for _, f := range filters {
		if filterMatches(f, proto, localIP, localPort, remoteIP, remotePort) {
			return f, true
		}
	}
	return Filter{}, false
}

func filterMatches(f Filter, proto uint8, localIP net.IP, localPort uint16, remoteIP net.IP, remotePort uint16) bool {
	for _, c := range f.Conditions {
		switch c.Field {
		case lower.FieldAppID:
			continue // no kernel-observable fact to check an app id against
		case lower.FieldLocalPort:
			if p, ok := c.Value.(uint16); !ok || p != localPort {
				return false
			}
		case lower.FieldRemotePort:
			if p, ok := c.Value.(uint16); !ok || p != remotePort {
				return false
			}
		case lower.FieldProtocol:
			if p, ok := c.Value.(string); !ok || p != protocolFriendlyName(proto) {
				return false
			}
		case lower.FieldLocalIP:
			if !addrConditionMatches(c.Value, localIP) {
				return false
			}
		case lower.FieldRemoteIP:
			if !addrConditionMatches(c.Value, remoteIP) {
				return false
			}
		}
	}
	return true
}

func addrConditionMatches(value any, ip net.IP) bool {
	switch v := value.(type) {
	case lower.AddrMaskV4:
		ip4 := ip.To4()
		if ip4 == nil {
			return false
		}
		addr := binary.BigEndian.Uint32(ip4)
		return addr&v.Mask == v.Addr&v.Mask
	case lower.AddrPrefixV6:
		ip16 := ip.To16()
		if ip16 == nil {
			return false
		}
		mask := v6PrefixMask(v.PrefixLength)
		for i := range mask {
			if ip16[i]&mask[i] != v.Addr[i]&mask[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
