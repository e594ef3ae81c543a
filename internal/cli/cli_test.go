// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmgrimm/wfpctl/internal/ast"
	"github.com/bmgrimm/wfpctl/internal/engine"
	"github.com/bmgrimm/wfpctl/internal/logging"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// fakeFacade is an in-memory engine.Facade for exercising the CLI
// sub-commands without a kernel backend.
type fakeFacade struct {
	provider engine.Provider
	sublayer engine.Sublayer
	filters  []engine.Filter
	nextID   uint64

	addErr      error
	deleteErr   error
	appIDErr    error
	failDeleteID uint64
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{
		provider: engine.Provider{Key: "wfpctl-provider", DisplayData: "wfpctl rule provider"},
		sublayer: engine.Sublayer{Key: "wfpctl-sublayer", DisplayData: "wfpctl rule sublayer"},
	}
}

func (f *fakeFacade) ProviderKey() string { return f.provider.Key }
func (f *fakeFacade) SublayerKey() string { return f.sublayer.Key }
func (f *fakeFacade) DisplayData() string { return f.sublayer.DisplayData }
func (f *fakeFacade) AppIDFromPath(path string) (string, error) {
	if f.appIDErr != nil {
		return "", f.appIDErr
	}
	return "appid:" + path, nil
}

func (f *fakeFacade) Open(ctx context.Context) error  { return nil }
func (f *fakeFacade) Close() error                     { return nil }

func (f *fakeFacade) Add(ctx context.Context, record lower.FilterRecord) (lower.FilterRecord, error) {
	if f.addErr != nil {
		return record, f.addErr
	}
	f.nextID++
	record.FilterID = f.nextID
	f.filters = append(f.filters, engine.Filter{
		ID:        record.FilterID,
		LayerKey:  record.LayerKey,
		LayerName: record.LayerKey.String(),
		Action:    record.Action,
		Weight:    record.Weight,
	})
	return record, nil
}

func (f *fakeFacade) DeleteByID(ctx context.Context, id uint64) error {
	if f.deleteErr != nil && id == f.failDeleteID {
		return f.deleteErr
	}
	for i, filt := range f.filters {
		if filt.ID == id {
			f.filters = append(f.filters[:i], f.filters[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeFacade) EnumerateFilters(ctx context.Context) ([]engine.Filter, error) {
	return f.filters, nil
}

func (f *fakeFacade) GetFilterByID(ctx context.Context, id uint64) (engine.Filter, bool, error) {
	for _, filt := range f.filters {
		if filt.ID == id {
			return filt, true, nil
		}
	}
	return engine.Filter{}, false, nil
}

func (f *fakeFacade) GetProviderByKey(ctx context.Context) (engine.Provider, error) {
	return f.provider, nil
}

func (f *fakeFacade) GetSublayerByKey(ctx context.Context) (engine.Sublayer, error) {
	return f.sublayer, nil
}

func (f *fakeFacade) SubscribeEvents(ctx context.Context) (engine.Subscription, error) {
	return nil, assert.AnError
}

func newTestApp(facade *fakeFacade, stdin string) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := &App{
		Facade: facade,
		Stdout: &stdout,
		Stderr: &stderr,
		Stdin:  strings.NewReader(stdin),
		Logger: logging.New(logging.Config{Output: &stderr}),
	}
	return app, &stdout, &stderr
}

func TestRunWithNoArgsPrintsHelpAndExitsNonZero(t *testing.T) {
	app, stdout, _ := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), nil)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Commands:")
}

func TestRunUnknownCommandExitsNonZero(t *testing.T) {
	app, _, stderr := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"bogus"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestRunTopLevelHelp(t *testing.T) {
	app, stdout, _ := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"-h"})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "list")
}

func TestDeleteWithNoIDsAndNegativeConfirmationDeletesNothing(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{{ID: 1}, {ID: 2}}

	app, stdout, _ := newTestApp(facade, "n\n")
	code := app.Run(context.Background(), []string{"delete"})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Delete all 2 wfpctl filters?")
	assert.Contains(t, stdout.String(), "Aborted.")
	assert.Len(t, facade.filters, 2, "no filters should have been deleted")
}

func TestDeleteWithNoIDsAndAffirmativeConfirmationDeletesAll(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{{ID: 1}, {ID: 2}, {ID: 3}}

	app, stdout, _ := newTestApp(facade, "y\n")
	code := app.Run(context.Background(), []string{"delete"})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Delete all 3 wfpctl filters?")
	assert.Contains(t, stdout.String(), "Deleted 3 filters.")
	assert.Empty(t, facade.filters)
}

func TestDeleteByNumericIDSkipsConfirmation(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{{ID: 5}, {ID: 6}}

	app, stdout, _ := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"delete", "-f", "5"})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Deleted 1 filters.")
	require.Len(t, facade.filters, 1)
	assert.Equal(t, uint64(6), facade.filters[0].ID)
}

func TestDeleteAllLiteralTriggersConfirmation(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{{ID: 1}}

	app, stdout, _ := newTestApp(facade, "yes\n")
	code := app.Run(context.Background(), []string{"delete", "-f", "all"})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Delete all 1 wfpctl filters?")
	assert.Contains(t, stdout.String(), "Deleted 1 filters.")
}

func TestDeleteInvalidIDIsAnError(t *testing.T) {
	app, _, stderr := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"delete", "-f", "not-a-number"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid filter id")
}

func TestDeleteReportsPartialFailure(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{{ID: 1}}
	facade.deleteErr = assert.AnError
	facade.failDeleteID = 1

	app, _, stderr := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"delete", "-f", "1"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to delete")
}

func TestCreateInstallsDemoFilter(t *testing.T) {
	facade := newFakeFacade()
	app, stdout, _ := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"create"})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Created demo filter with id 1.")
	require.Len(t, facade.filters, 1)
	assert.Equal(t, ast.Permit, facade.filters[0].Action)
}

func TestCreatePropagatesAppIDError(t *testing.T) {
	facade := newFakeFacade()
	facade.appIDErr = assert.AnError
	app, _, stderr := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"create"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestLoadInstallsEveryLoweredFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.wfp")
	require.NoError(t, os.WriteFile(path, []byte("permit out all\nblock in all\n"), 0o644))

	facade := newFakeFacade()
	app, stdout, _ := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"load", "-f", path})

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Installed 2 filters.")
	assert.Len(t, facade.filters, 2)
}

func TestLoadMissingFileFlagIsAnError(t *testing.T) {
	app, _, stderr := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"load"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "-f FILE is required")
}

func TestLoadParseErrorAbortsEntirely(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wfp")
	require.NoError(t, os.WriteFile(path, []byte("permit out inet6 to 1.1.1.1"), 0o644))

	facade := newFakeFacade()
	app, _, stderr := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"load", "-f", path})

	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr.String())
	assert.Empty(t, facade.filters)
}

func TestLoadReportsPartialInstallFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.wfp")
	require.NoError(t, os.WriteFile(path, []byte("permit out all\n"), 0o644))

	facade := newFakeFacade()
	facade.addErr = assert.AnError
	app, stdout, stderr := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"load", "-f", path})

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Installed 0 filters.")
	assert.Contains(t, stderr.String(), "failed to install")
}

func TestListRequiresAtLeastOneOption(t *testing.T) {
	app, _, stderr := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"list"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Options are required.")
}

func TestListFiltersPrintsTotal(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{
		{ID: 1, LayerName: "Auth Connect v4", Action: ast.Permit},
		{ID: 2, LayerName: "Auth Receive v6", Action: ast.Block},
	}
	app, stdout, _ := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"list", "-f"})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Total number of filters: 2")
}

func TestListCalloutsIsANoOp(t *testing.T) {
	app, stdout, _ := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"list", "-c"})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "No callouts installed.")
}

func TestListLayersPrintsAllFour(t *testing.T) {
	app, stdout, _ := newTestApp(newFakeFacade(), "")
	code := app.Run(context.Background(), []string{"list", "-L"})
	assert.Equal(t, 0, code)
	out := stdout.String()
	assert.Contains(t, out, "Auth Connect v4")
	assert.Contains(t, out, "Auth Receive v6")
}

func TestListSearchUnionMatchesLayerEvenWhenProviderDoesNotMatch(t *testing.T) {
	facade := newFakeFacade()
	facade.filters = []engine.Filter{
		{ID: 1, LayerName: "Auth Connect v4"},
		{ID: 2, LayerName: "Auth Receive v6"},
	}
	app, stdout, _ := newTestApp(facade, "")
	code := app.Run(context.Background(), []string{"list", "-s", "receive"})
	assert.Equal(t, 0, code)
	out := stdout.String()
	assert.Contains(t, out, "Total number of filters: 1")
	assert.NotContains(t, out, "Auth Connect v4")
}
