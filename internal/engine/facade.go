// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package engine is the facade over the kernel packet-filtering backend.
// Every other package that needs to install, enumerate, or delete filters
// goes through a Facade; none of them import google/nftables directly.
package engine

import (
	"context"

	"github.com/bmgrimm/wfpctl/internal/ast"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// Provider groups every filter this tool owns under one display identity,
// the way WFP's provider object groups a vendor's sublayers and filters.
type Provider struct {
	Key         string
	DisplayData string
}

// Sublayer is the single sublayer all filters are weighed within.
type Sublayer struct {
	Key         string
	DisplayData string
	Weight      uint16
}

// Filter is a FilterRecord as returned by enumeration, with the
// provider/sublayer display strings resolved and the layer's friendly
// name attached for presentation.
type Filter struct {
	ID           uint64
	LayerKey     lower.LayerKey
	LayerName    string
	Action       ast.Action
	Weight       uint8
	Conditions   []ConditionView
	ProviderData string
	SublayerData string
}

// ConditionView is a single installed condition with its field/match
// friendly names resolved, ready for printing.
type ConditionView struct {
	Field     lower.FieldKey
	FieldName string
	Match     lower.MatchType
	MatchName string
	Value     any
}

// ClassifyEvent is one observation the engine emits from SubscribeEvents:
// a live connection attempt together with the verdict and, when known,
// the filter responsible for it.
type ClassifyEvent struct {
	Protocol   string
	AppPath    string
	LocalAddr  string
	LocalPort  uint16
	RemoteAddr string
	RemotePort uint16
	Allowed    bool
	FilterID   uint64
	HasFilter  bool
}

// Subscription is a live handle on a SubscribeEvents call. Close stops
// delivery and releases the underlying netlink socket.
type Subscription interface {
	Events() <-chan ClassifyEvent
	Close() error
}

// Facade is everything the CLI and the rule-source pipeline need from
// the packet-filtering backend. lower.KeyResolver is a strict subset of
// Facade, so any Facade implementation satisfies it without an import
// cycle back into package lower.
type Facade interface {
	lower.KeyResolver

	// Open prepares the backend for use: creating the owned table and
	// its chains if they do not already exist.
	Open(ctx context.Context) error

	// Close releases any resources Open acquired.
	Close() error

	// Add installs a single lowered FilterRecord and returns it with
	// FilterID populated.
	Add(ctx context.Context, record lower.FilterRecord) (lower.FilterRecord, error)

	// DeleteByID removes the filter with the given id. It is not an
	// error to delete an id that does not exist.
	DeleteByID(ctx context.Context, id uint64) error

	// EnumerateFilters lists every filter this tool owns, across all
	// four layers, in enumeration order.
	EnumerateFilters(ctx context.Context) ([]Filter, error)

	// GetFilterByID looks up a single filter by id.
	GetFilterByID(ctx context.Context, id uint64) (Filter, bool, error)

	// GetProviderByKey returns the provider's display metadata.
	GetProviderByKey(ctx context.Context) (Provider, error)

	// GetSublayerByKey returns the sublayer's display metadata.
	GetSublayerByKey(ctx context.Context) (Sublayer, error)

	// SubscribeEvents streams classification events until the returned
	// Subscription is closed or ctx is cancelled.
	SubscribeEvents(ctx context.Context) (Subscription, error)
}
