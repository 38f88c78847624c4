// Package report assembles a canonical, order-stable JSON report from a
// clustered subject.Network, matching the mixed-case field layout the
// original transmission-network tool has always emitted: nodes and edges are
// stored as parallel arrays, not arrays of objects, so the enumeration order
// is whatever ascending-by-id order subject.Network.SortedIDs establishes.
package report

import (
	"sort"
	"time"

	"github.com/molnet/transnet/cluster"
	"github.com/molnet/transnet/subject"
)

// DefaultThreshold is echoed into the Settings block when the Network's
// metadata carries no "threshold" entry.
const DefaultThreshold = 0.015

// Report is the canonical output object. Field order here drives the key
// order encoding/json emits, matching the original tool's own field order.
type Report struct {
	Nodes                  NodesBlock            `json:"Nodes"`
	Edges                  EdgesBlock            `json:"Edges"`
	ClusterSizes           []int                 `json:"Cluster sizes"`
	HIVStages              map[string]int        `json:"HIV Stages"`
	MultipleSequences      MultipleSequences     `json:"Multiple sequences"`
	NetworkSummary         NetworkSummary        `json:"Network Summary"`
	DirectedEdges          DirectedEdges         `json:"Directed Edges"`
	Degrees                Degrees               `json:"Degrees"`
	Settings               Settings              `json:"Settings"`
	PatientAttributeSchema map[string]SchemaEntry `json:"patient_attribute_schema"`
}

// NodesBlock holds the per-node fields as parallel arrays, index-aligned:
// NodesBlock.ID[i] is the subject whose cluster is NodesBlock.Cluster[i] and
// whose attribute slot is NodesBlock.PatientAttributes[i].
type NodesBlock struct {
	ID                []string            `json:"id"`
	Cluster           []int               `json:"cluster"`
	PatientAttributes []map[string]string `json:"patient_attributes"`
}

// EdgesBlock holds the per-edge fields as parallel arrays. Source and Target
// are indices into NodesBlock.ID, not subject ids.
type EdgesBlock struct {
	Source     []int        `json:"source"`
	Target     []int        `json:"target"`
	Length     []float64    `json:"length"`
	Sequences  [][2]string  `json:"sequences"`
	Directed   []bool       `json:"directed"`
	Attributes [][]string   `json:"attributes"`
	Support    []float64    `json:"support"`
	Removed    []bool       `json:"removed"`
}

// MultipleSequences is a neutral placeholder: the core never fits a
// within-host multi-sequence model, so subjects-with is always 0 and the
// followup-days field is never emitted.
type MultipleSequences struct {
	SubjectsWith int `json:"Subjects with"`
}

// NetworkSummary gives the five headline counts of the assembled network.
type NetworkSummary struct {
	Edges                     int `json:"Edges"`
	Nodes                     int `json:"Nodes"`
	SequencesUsedToMakeLinks  int `json:"Sequences used to make links"`
	Clusters                  int `json:"Clusters"`
	Singletons                int `json:"Singletons"`
}

// DirectedEdges is a neutral placeholder: directed-edge inference is out of
// scope, so Count is always 0 and every visible edge is attributed to
// "Missing dates".
type DirectedEdges struct {
	Count   int            `json:"Count"`
	Reasons map[string]int `json:"Reasons"`
}

// Degrees is the degree-distribution block. Model, Rho, RhoCI and BIC are
// neutral placeholders: time-series fitting of degree distributions is out
// of scope for the core.
type Degrees struct {
	Distribution []int     `json:"Distribution"`
	Model        string    `json:"Model"`
	Rho          float64   `json:"rho"`
	RhoCI        []float64 `json:"rho CI"`
	BIC          float64   `json:"BIC"`
}

// Settings echoes the parameters the report was built under.
type Settings struct {
	Threshold  float64 `json:"Threshold"`
	Singletons bool    `json:"Singletons"`
	CompactJSON bool   `json:"Compact JSON"`
	Created    string  `json:"Created"`
}

// SchemaEntry describes one patient-attribute field.
type SchemaEntry struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Label string   `json:"label"`
	Enum  []string `json:"enum,omitempty"`
}

// nowFn is indirected so tests can pin the Created timestamp.
var nowFn = time.Now

// Assemble builds the canonical Report from net. Callers must have already
// run net.ComputeAdjacency and cluster.Compute; Assemble does not mutate net.
func Assemble(net *subject.Network) Report {
	ids := net.SortedIDs()
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	nodes := NodesBlock{
		ID:                make([]string, len(ids)),
		Cluster:           make([]int, len(ids)),
		PatientAttributes: make([]map[string]string, len(ids)),
	}
	for i, id := range ids {
		s := net.Nodes[id]
		nodes.ID[i] = id
		if s.HasCluster {
			nodes.Cluster[i] = s.ClusterID + 1
		}
		nodes.PatientAttributes[i] = map[string]string{}
	}

	visibleEdges := make([]*subject.Edge, 0, len(net.Edges))
	for _, e := range net.Edges {
		if e.Visible {
			visibleEdges = append(visibleEdges, e)
		}
	}

	edges := EdgesBlock{
		Source:     make([]int, len(visibleEdges)),
		Target:     make([]int, len(visibleEdges)),
		Length:     make([]float64, len(visibleEdges)),
		Sequences:  make([][2]string, len(visibleEdges)),
		Directed:   make([]bool, len(visibleEdges)),
		Attributes: make([][]string, len(visibleEdges)),
		Support:    make([]float64, len(visibleEdges)),
		Removed:    make([]bool, len(visibleEdges)),
	}
	for i, e := range visibleEdges {
		edges.Source[i] = index[e.A]
		edges.Target[i] = index[e.B]
		edges.Length[i] = e.Distance
		edges.Sequences[i] = [2]string{e.A, e.B}
		edges.Attributes[i] = []string{}
	}

	sizes := cluster.Sizes(net)
	clusterSizes := make([]int, 0, len(sizes))
	clusterCount := 0
	singletonCount := 0
	nodesWithDegree := 0
	for _, s := range net.Nodes {
		if s.Degree > 0 {
			nodesWithDegree++
		} else {
			singletonCount++
		}
	}
	for _, sz := range sizes {
		if sz >= 2 {
			clusterSizes = append(clusterSizes, sz)
			clusterCount++
		}
	}
	sort.Ints(clusterSizes)

	maxDegree := 0
	for _, s := range net.Nodes {
		if s.Degree > maxDegree {
			maxDegree = s.Degree
		}
	}
	distribution := make([]int, maxDegree+1)
	for _, s := range net.Nodes {
		distribution[s.Degree]++
	}

	threshold := DefaultThreshold
	if t, ok := net.Meta["threshold"].(float64); ok {
		threshold = t
	}

	return Report{
		Nodes:        nodes,
		Edges:        edges,
		ClusterSizes: clusterSizes,
		HIVStages:    map[string]int{"Unknown": len(ids)},
		MultipleSequences: MultipleSequences{
			SubjectsWith: 0,
		},
		NetworkSummary: NetworkSummary{
			Edges:                    len(visibleEdges),
			Nodes:                    len(ids),
			SequencesUsedToMakeLinks: nodesWithDegree,
			Clusters:                 clusterCount,
			Singletons:               singletonCount,
		},
		DirectedEdges: DirectedEdges{
			Count:   0,
			Reasons: map[string]int{"Missing dates": len(visibleEdges)},
		},
		Degrees: Degrees{
			Distribution: distribution,
			Model:        "None",
			Rho:          0,
			RhoCI:        []float64{0, 0},
			BIC:          0,
		},
		Settings: Settings{
			Threshold:   threshold,
			Singletons:  true,
			CompactJSON: true,
			Created:     nowFn().UTC().Format(time.RFC3339),
		},
		PatientAttributeSchema: map[string]SchemaEntry{
			"id": {Name: "id", Type: "String", Label: "id"},
		},
	}
}
