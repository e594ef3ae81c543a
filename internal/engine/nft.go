// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"

	"github.com/bmgrimm/wfpctl/internal/ast"
	werrors "github.com/bmgrimm/wfpctl/internal/errors"
	"github.com/bmgrimm/wfpctl/internal/logging"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// nftConn is the subset of *nftables.Conn the engine needs. Tests
// inject a fake satisfying this interface instead of touching netlink,
// the same way firewall.Manager takes an NFTablesConn.
type nftConn interface {
	AddTable(*nftables.Table) *nftables.Table
	ListTables() ([]*nftables.Table, error)
	AddChain(*nftables.Chain) *nftables.Chain
	ListChains() ([]*nftables.Chain, error)
	AddRule(*nftables.Rule) *nftables.Rule
	DelRule(*nftables.Rule) error
	GetRules(*nftables.Table, *nftables.Chain) ([]*nftables.Rule, error)
	Flush() error
}

// Config names the table and the single provider/sublayer every filter
// this tool installs is grouped under.
type Config struct {
	TableName       string
	ProviderKey     string
	ProviderDisplay string
	SublayerKey     string
	SublayerDisplay string
	SublayerWeight  uint16
}

// NFTEngine is the nftables-backed Facade implementation.
type NFTEngine struct {
	conn   nftConn
	cfg    Config
	logger *logging.Logger

	mu     sync.Mutex
	table  *nftables.Table
	chains map[lower.LayerKey]*nftables.Chain
}

// New opens a real netlink connection and returns an NFTEngine using
// it. Callers on non-Linux platforms never reach this constructor.
func New(cfg Config, logger *logging.Logger) (*NFTEngine, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, werrors.Wrap(err, werrors.KindEngine, "opening nftables connection")
	}
	return NewWithConn(conn, cfg, logger), nil
}

// NewWithConn builds an NFTEngine around an injected connection.
func NewWithConn(conn nftConn, cfg Config, logger *logging.Logger) *NFTEngine {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	if cfg.TableName == "" {
		cfg.TableName = "wfpctl"
	}
	return &NFTEngine{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		chains: make(map[lower.LayerKey]*nftables.Chain),
	}
}

// ProviderKey implements lower.KeyResolver.
func (e *NFTEngine) ProviderKey() string { return e.cfg.ProviderKey }

// SublayerKey implements lower.KeyResolver.
func (e *NFTEngine) SublayerKey() string { return e.cfg.SublayerKey }

// DisplayData implements lower.KeyResolver, returning the sublayer's
// display string: every installed filter is tagged with it.
func (e *NFTEngine) DisplayData() string { return e.cfg.SublayerDisplay }

// AppIDFromPath implements lower.KeyResolver.
func (e *NFTEngine) AppIDFromPath(path string) (string, error) { return appIDFromPath(path) }

// Open creates the owned table and its four chains if they do not
// already exist, listing what netlink already reports before creating
// anything rather than assuming a clean slate.
func (e *NFTEngine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tables, err := e.conn.ListTables()
	if err != nil {
		return werrors.Wrap(err, werrors.KindEngine, "listing tables")
	}
	for _, t := range tables {
		if t.Name == e.cfg.TableName && t.Family == nftables.TableFamilyINet {
			e.table = t
			break
		}
	}
	if e.table == nil {
		e.table = e.conn.AddTable(&nftables.Table{
			Name:   e.cfg.TableName,
			Family: nftables.TableFamilyINet,
		})
	}

	existing := make(map[string]*nftables.Chain)
	chains, err := e.conn.ListChains()
	if err != nil {
		return werrors.Wrap(err, werrors.KindEngine, "listing chains")
	}
	for _, c := range chains {
		if c.Table != nil && c.Table.Name == e.cfg.TableName && c.Table.Family == nftables.TableFamilyINet {
			existing[c.Name] = c
		}
	}

	policy := nftables.ChainPolicyAccept
	for key, spec := range layerChains {
		if ch, ok := existing[spec.name]; ok {
			e.chains[key] = ch
			continue
		}
		e.chains[key] = e.conn.AddChain(&nftables.Chain{
			Name:     spec.name,
			Table:    e.table,
			Type:     nftables.ChainTypeFilter,
			Hooknum:  spec.hook,
			Priority: nftables.ChainPriorityFilter,
			Policy:   &policy,
		})
	}

	if err := e.conn.Flush(); err != nil {
		return werrors.Wrap(err, werrors.KindEngine, "creating table/chain skeleton")
	}
	return nil
}

// Close releases nothing beyond the netlink socket; *nftables.Conn has
// no explicit Close, so this is a no-op kept to satisfy Facade and to
// give callers a single, always-safe teardown point.
func (e *NFTEngine) Close() error { return nil }

func (e *NFTEngine) chainFor(layer lower.LayerKey) (*nftables.Chain, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.chains[layer]
	if !ok {
		return nil, werrors.Errorf(werrors.KindEngine, "layer %v has no chain; was Open called?", layer)
	}
	return ch, nil
}

// Add installs record and returns it with FilterID populated from the
// handle netlink assigns on commit.
func (e *NFTEngine) Add(ctx context.Context, record lower.FilterRecord) (lower.FilterRecord, error) {
	chain, err := e.chainFor(record.LayerKey)
	if err != nil {
		return record, err
	}

	verdict := verdictAccept
	if record.Action == ast.Block {
		verdict = verdictDrop
	}

	exprs, err := buildRuleExprs(record.LayerKey, record.Conditions, verdict)
	if err != nil {
		return record, werrors.Wrap(err, werrors.KindEngine, "building rule expressions")
	}

	e.mu.Lock()
	rule := e.conn.AddRule(&nftables.Rule{
		Table:    e.table,
		Chain:    chain,
		Exprs:    exprs,
		UserData: ruleUserData(record),
	})
	if err := e.conn.Flush(); err != nil {
		e.mu.Unlock()
		return record, werrors.Wrap(err, werrors.KindEngine, "installing rule")
	}

	installed, err := e.conn.GetRules(e.table, chain)
	e.mu.Unlock()
	if err != nil {
		return record, werrors.Wrap(err, werrors.KindEngine, "reading back installed rule")
	}
	record.FilterID = resolveHandle(installed, rule)
	if record.FilterID == 0 {
		return record, werrors.New(werrors.KindEngine, "installed rule handle could not be resolved")
	}
	return record, nil
}

// resolveHandle finds the handle netlink assigned to the rule just
// added. AddRule's return value carries no handle until after Flush, so
// the committed rule is matched back by its UserData tag (see
// ruleUserData) against the freshly read chain listing. The tag is not
// unique per Add call, and AddRule appends to the chain, so the last
// rule carrying the tag is taken as the one just added.
func resolveHandle(installed []*nftables.Rule, added *nftables.Rule) uint64 {
	for i := len(installed) - 1; i >= 0; i-- {
		if string(installed[i].UserData) == string(added.UserData) {
			return installed[i].Handle
		}
	}
	return 0
}

// DeleteByID removes the filter with the given handle from whichever
// chain it lives in. It is not an error for id to be absent.
func (e *NFTEngine) DeleteByID(ctx context.Context, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, chain := range e.chains {
		rules, err := e.conn.GetRules(e.table, chain)
		if err != nil {
			return werrors.Wrap(err, werrors.KindEngine, "listing rules")
		}
		for _, r := range rules {
			if r.Handle == id {
				if err := e.conn.DelRule(r); err != nil {
					return werrors.Wrap(err, werrors.KindEngine, "deleting rule")
				}
				return werrors.Wrap(e.conn.Flush(), werrors.KindEngine, "committing delete")
			}
		}
	}
	return nil
}

// EnumerateFilters lists every filter across all four layers, ordered
// by descending weight with ties broken by the order filters were
// encountered (fixed layer order, then kernel-reported rule order
// within each layer). The weight comes from each rule's UserData tag;
// the kernel itself evaluates a chain's rules in chain order.
func (e *NFTEngine) EnumerateFilters(ctx context.Context) ([]Filter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Filter
	for _, key := range []lower.LayerKey{lower.AuthConnectV4, lower.AuthConnectV6, lower.AuthReceiveV4, lower.AuthReceiveV6} {
		chain, ok := e.chains[key]
		if !ok {
			continue
		}
		rules, err := e.conn.GetRules(e.table, chain)
		if err != nil {
			return nil, werrors.Wrap(err, werrors.KindEngine, "listing rules")
		}
		for _, r := range rules {
			out = append(out, filterFromRule(key, r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out, nil
}

// GetFilterByID looks a single filter up by handle.
func (e *NFTEngine) GetFilterByID(ctx context.Context, id uint64) (Filter, bool, error) {
	filters, err := e.EnumerateFilters(ctx)
	if err != nil {
		return Filter{}, false, err
	}
	for _, f := range filters {
		if f.ID == id {
			return f, true, nil
		}
	}
	return Filter{}, false, nil
}

// GetProviderByKey returns the provider's display metadata.
func (e *NFTEngine) GetProviderByKey(ctx context.Context) (Provider, error) {
	return Provider{Key: e.cfg.ProviderKey, DisplayData: e.cfg.ProviderDisplay}, nil
}

// GetSublayerByKey returns the sublayer's display metadata.
func (e *NFTEngine) GetSublayerByKey(ctx context.Context) (Sublayer, error) {
	return Sublayer{Key: e.cfg.SublayerKey, DisplayData: e.cfg.SublayerDisplay, Weight: e.cfg.SublayerWeight}, nil
}

// ruleUserData tags an installed rule with enough context to print it
// and, for app-scoped filters, to recover the app id that carried no
// kernel-level expression. The tag is opaque to nftables itself; it is
// only ever read back by this package.
func ruleUserData(record lower.FilterRecord) []byte {
	appID := ""
	for _, c := range record.Conditions {
		if c.Field == lower.FieldAppID {
			if s, ok := c.Value.(string); ok {
				appID = s
			}
		}
	}
	return []byte(fmt.Sprintf("wfpctl:weight=%d;app=%s;n=%d", record.Weight, appID, len(record.Conditions)))
}

func filterFromRule(layer lower.LayerKey, r *nftables.Rule) Filter {
	f := Filter{
		ID:        r.Handle,
		LayerKey:  layer,
		LayerName: layerFriendlyName(layer),
	}
	for _, e := range r.Exprs {
		switch ex := e.(type) {
		case *expr.Verdict:
			if ex.Kind == expr.VerdictDrop {
				f.Action = ast.Block
			} else {
				f.Action = ast.Permit
			}
		}
	}

	weight, appID := parseUserData(r.UserData)
	f.Weight = weight

	f.Conditions = conditionsFromExprs(layer, r.Exprs)
	if appID != "" {
		f.Conditions = append([]ConditionView{conditionView(lower.FieldAppID, appID)}, f.Conditions...)
	}
	return f
}

// parseUserData recovers the weight and app-id tagged into a rule by
// ruleUserData. App-id carries no kernel expression, so it can only be
// recovered from here; weight is likewise absent from the installed
// expression list. Malformed or foreign UserData yields zero values
// rather than an error, since a rule this tool didn't install may carry
// anything (or nothing) in that field.
func parseUserData(data []byte) (weight uint8, appID string) {
	const prefix = "wfpctl:weight="
	s := string(data)
	if !strings.HasPrefix(s, prefix) {
		return 0, ""
	}
	s = s[len(prefix):]

	weightStr, rest, ok := strings.Cut(s, ";app=")
	if !ok {
		return 0, ""
	}
	if n, err := strconv.ParseUint(weightStr, 10, 8); err == nil {
		weight = uint8(n)
	}

	appID, _, ok = strings.Cut(rest, ";n=")
	if !ok {
		return weight, ""
	}
	return weight, appID
}
