package report_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molnet/transnet/cluster"
	"github.com/molnet/transnet/report"
	"github.com/molnet/transnet/subject"
)

func buildNetwork(t *testing.T) *subject.Network {
	t.Helper()
	net := subject.NewNetwork()
	require.NoError(t, net.AddEdge("A", nil, "B", nil, 0.01))
	require.NoError(t, net.AddEdge("B", nil, "C", nil, 0.01))
	net.AddNode("S1", nil, nil)
	net.Meta["threshold"] = 0.03
	net.ComputeAdjacency()
	cluster.Compute(net)
	return net
}

func TestAssemble_NodesOrderedById(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal([]string{"A", "B", "C", "S1"}, r.Nodes.ID)
	require.Len(r.Nodes.Cluster, 4)
	require.Len(r.Nodes.PatientAttributes, 4)
}

func TestAssemble_ClusterIDsAreOneBased(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	for i, id := range r.Nodes.ID {
		s := net.Nodes[id]
		require.Equal(s.ClusterID+1, r.Nodes.Cluster[i])
	}
}

func TestAssemble_ClusterSizesExcludeSingletons(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal([]int{3}, r.ClusterSizes)
}

func TestAssemble_NetworkSummary(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal(2, r.NetworkSummary.Edges)
	require.Equal(4, r.NetworkSummary.Nodes)
	require.Equal(3, r.NetworkSummary.SequencesUsedToMakeLinks)
	require.Equal(1, r.NetworkSummary.Clusters)
	require.Equal(1, r.NetworkSummary.Singletons)
}

func TestAssemble_HIVStagesAndDirectedEdges(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal(map[string]int{"Unknown": 4}, r.HIVStages)
	require.Equal(0, r.DirectedEdges.Count)
	require.Equal(2, r.DirectedEdges.Reasons["Missing dates"])
}

func TestAssemble_DegreeDistribution(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	// S1 is a singleton (degree 0); A and C have degree 1; B has degree 2.
	require.Equal([]int{1, 2, 1}, r.Degrees.Distribution)
	require.Equal("None", r.Degrees.Model)
}

func TestAssemble_SettingsEchoesThreshold(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal(0.03, r.Settings.Threshold)
	require.True(r.Settings.Singletons)
	require.True(r.Settings.CompactJSON)
	require.NotEmpty(r.Settings.Created)
}

func TestAssemble_DefaultThresholdWhenMetaMissing(t *testing.T) {
	require := require.New(t)
	net := subject.NewNetwork()
	net.AddNode("A", nil, nil)
	net.ComputeAdjacency()
	cluster.Compute(net)

	r := report.Assemble(net)
	require.Equal(report.DefaultThreshold, r.Settings.Threshold)
}

func TestAssemble_PatientAttributeSchemaDefault(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	require.Equal(report.SchemaEntry{Name: "id", Type: "String", Label: "id"}, r.PatientAttributeSchema["id"])
}

func TestAssemble_MarshalsExpectedKeys(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	b, err := json.Marshal(r)
	require.NoError(err)

	var generic map[string]interface{}
	require.NoError(json.Unmarshal(b, &generic))

	for _, key := range []string{
		"Nodes", "Edges", "Cluster sizes", "HIV Stages", "Network Summary",
		"Directed Edges", "Degrees", "Settings", "patient_attribute_schema",
	} {
		require.Contains(generic, key)
	}
}

func TestAssemble_EdgesReferenceNodeIndices(t *testing.T) {
	require := require.New(t)
	net := buildNetwork(t)
	r := report.Assemble(net)

	for i := range r.Edges.Source {
		srcID := r.Nodes.ID[r.Edges.Source[i]]
		tgtID := r.Nodes.ID[r.Edges.Target[i]]
		require.Equal([2]string{srcID, tgtID}, r.Edges.Sequences[i])
	}
}
