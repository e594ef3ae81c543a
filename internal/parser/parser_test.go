// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmgrimm/wfpctl/internal/ast"
)

func TestScenarioPermitOutAll(t *testing.T) {
	rs, err := Parse("permit out all")
	require.NoError(t, err)
	require.Len(t, rs.Filters, 1)

	f := rs.Filters[0]
	assert.Equal(t, ast.Permit, f.Action)
	assert.Equal(t, ast.Out, f.Direction)
	assert.Equal(t, ast.NoFilterConditions, f.Conditions)
}

func TestScenarioFromAppWithTransportList(t *testing.T) {
	rs, err := Parse(`permit out proto {tcp, udp} from "baby"`)
	require.NoError(t, err)
	require.Len(t, rs.Filters, 1)

	f := rs.Filters[0]
	assert.Equal(t, "baby", f.Conditions.SourceApp)
	assert.Equal(t, ast.AllTransport, f.Conditions.Transport)
}

func TestScenarioDestIPList(t *testing.T) {
	rs, err := Parse(`permit out to {192.168.0.0/16, 10.0.0.0/8}`)
	require.NoError(t, err)
	require.Len(t, rs.Filters, 1)

	f := rs.Filters[0]
	assert.Equal(t, []string{"192.168.0.0/16", "10.0.0.0/8"}, f.Conditions.DestIPs.V4)
}

func TestScenarioV4AddressUnderInet6IsParseError(t *testing.T) {
	_, err := Parse(`permit out inet6 to 1.1.1.1`)
	assert.Error(t, err)
}

func TestScenarioTransportListTooLong(t *testing.T) {
	_, err := Parse(`permit out proto {udp, tcp, udp}`)
	assert.Error(t, err)
}

func TestScenarioMultiRuleset(t *testing.T) {
	rs, err := Parse("permit out all\nblock in all\npermit in all")
	require.NoError(t, err)
	require.Len(t, rs.Filters, 3)

	wantActions := []ast.Action{ast.Permit, ast.Block, ast.Permit}
	wantDirections := []ast.Direction{ast.Out, ast.In, ast.In}
	for i, f := range rs.Filters {
		assert.Equal(t, wantActions[i], f.Action)
		assert.Equal(t, wantDirections[i], f.Direction)
		assert.Equal(t, ast.NoFilterConditions, f.Conditions)
	}
}

func TestTransportListReductions(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want ast.Transport
	}{
		{"both present reduces to all", `permit out proto {tcp, udp}`, ast.AllTransport},
		{"repeated tcp reduces to tcp", `permit out proto {tcp, tcp}`, ast.Tcp},
		{"bare tcp", `permit out proto tcp`, ast.Tcp},
		{"bare udp", `permit out proto udp`, ast.Udp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := Parse(tc.src)
			require.NoError(t, err)
			require.Len(t, rs.Filters, 1)
			assert.Equal(t, tc.want, rs.Filters[0].Conditions.Transport)
		})
	}
}

func TestEmptyListsPermitted(t *testing.T) {
	rs, err := Parse(`permit out to {} port {}`)
	require.NoError(t, err)
	require.Len(t, rs.Filters, 1)
	assert.True(t, rs.Filters[0].Conditions.DestIPs.Empty())
	assert.Empty(t, rs.Filters[0].Conditions.DestPorts)
}

func TestPortOnlyAccepted(t *testing.T) {
	rs, err := Parse(`permit out to port 443`)
	require.NoError(t, err)
	require.Len(t, rs.Filters, 1)
	assert.Equal(t, []uint16{443}, rs.Filters[0].Conditions.DestPorts)
}

func TestNeitherAddressNorPortRejected(t *testing.T) {
	_, err := Parse(`permit out to`)
	assert.Error(t, err)
}

func TestInDirectionParsesButDoesNotForceReceiveAtASTLevel(t *testing.T) {
	// `in` lowers to the receive layer downstream; at the AST level
	// it is simply ast.In, leaving the layer decision to the lowerer.
	rs, err := Parse("permit in all")
	require.NoError(t, err)
	assert.Equal(t, ast.In, rs.Filters[0].Direction)
}

func TestSourceAppExclusiveOfSourceIPs(t *testing.T) {
	_, err := Parse(`permit out from "x" port 80`)
	assert.Error(t, err)
}

func TestUnterminatedInputFailsCleanly(t *testing.T) {
	_, err := Parse(`permit`)
	assert.Error(t, err)
}
