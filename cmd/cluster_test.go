package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `
companies:
  - id: acme
    name: Acme
    color: "#123456"
  - id: beta
    name: Beta
businesses:
  - id: b1
    company_id: acme
    name: Cafe
    status: open
    latlng: {latitude: 37.78820, longitude: -122.4324}
  - id: b2
    company_id: acme
    name: Deli
    status: closed
    latlng: {latitude: 37.78829, longitude: -122.4324}
  - id: b3
    company_id: acme
    name: Bakery
    status: pending
    latlng: {latitude: 37.78825, longitude: -122.4124}
  - id: b4
    company_id: beta
    name: Elsewhere
    latlng: {latitude: 40.7, longitude: -74.0}
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	return path
}

func runCluster(t *testing.T, file, company string, zoom int, backend string) clusterOutput {
	t.Helper()
	cfg = testConfig("memory", "")
	clusterFile, clusterCompany, clusterZoom, clusterBackend = file, company, zoom, backend
	t.Cleanup(func() { clusterFile, clusterCompany, clusterZoom, clusterBackend = "", "", 14, "" })

	var buf bytes.Buffer
	clusterCmd.SetContext(context.Background())
	clusterCmd.SetOut(&buf)
	t.Cleanup(func() { clusterCmd.SetOut(nil) })
	require.NoError(t, clusterCmd.RunE(clusterCmd, nil))

	var out clusterOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestClusterCmd_GroupsAtLowZoom(t *testing.T) {
	out := runCluster(t, writeSeed(t), "", 14, "")

	assert.Equal(t, "acme", out.Company)
	require.Len(t, out.Clusters, 2)
	assert.Equal(t, "cluster:b1,b2", out.Clusters[0].ID)
	assert.Equal(t, []string{"b1", "b2"}, out.Clusters[0].Members)
	require.NotNil(t, out.Clusters[0].Target)
	assert.InDelta(t, 37.788245, out.Clusters[0].Target.Center.Latitude, 1e-6)
	assert.Equal(t, "b3", out.Clusters[1].ID)
	assert.Nil(t, out.Clusters[1].Target)

	require.Len(t, out.Markers, 2)
	assert.True(t, out.Markers[0].IsCluster)
	assert.Equal(t, "2 businesses", out.Markers[0].Label)
	assert.Nil(t, out.Scene)
}

func TestClusterCmd_NoClusteringAtMaxZoom(t *testing.T) {
	out := runCluster(t, writeSeed(t), "acme", 18, "")
	assert.Len(t, out.Clusters, 3)
	for _, m := range out.Markers {
		assert.False(t, m.IsCluster)
	}
}

func TestClusterCmd_CompanyFilter(t *testing.T) {
	out := runCluster(t, writeSeed(t), "beta", 14, "")
	require.Len(t, out.Markers, 1)
	assert.Equal(t, "b4", out.Markers[0].ID)
}

func TestClusterCmd_Scene(t *testing.T) {
	out := runCluster(t, writeSeed(t), "", 14, "native")
	require.NotNil(t, out.Scene)
	assert.Equal(t, "native", out.Scene.Backend)
	assert.Len(t, out.Scene.Markers, 2)
}

func TestClusterCmd_MissingFile(t *testing.T) {
	cfg = testConfig("memory", "")
	clusterFile = filepath.Join(t.TempDir(), "missing.yaml")
	clusterCmd.SetContext(context.Background())
	t.Cleanup(func() { clusterFile = "" })

	err := clusterCmd.RunE(clusterCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed")
}
