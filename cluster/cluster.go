// Package cluster labels the connected components of a subject.Network via
// breadth-first traversal: a FIFO queue and a visited set walk the adjacency
// map, generalized here to a two-phase pass that keeps connected components
// and degree-0 singletons in separate, contiguous id ranges.
package cluster

import "github.com/molnet/transnet/subject"

// Compute labels every node of net with a contiguous, nonnegative component
// id. Phase one runs BFS from each unvisited degree>0 node in sorted-id
// order, stamping every reached node with the current component id before
// incrementing it. Phase two then walks the same sorted order a second time
// and assigns any still-unvisited (necessarily degree-0) node its own
// singleton component id.
//
// Compute resets every node's cluster assignment before labeling, so it is
// idempotent: calling it twice in a row reproduces the same assignment.
func Compute(net *subject.Network) {
	ids := net.SortedIDs()
	for _, id := range ids {
		s := net.Nodes[id]
		s.HasCluster = false
		s.ClusterID = 0
	}

	nextID := 0
	visited := make(map[string]bool, len(ids))

	for _, id := range ids {
		if visited[id] || net.Nodes[id].Degree == 0 {
			continue
		}
		bfsLabel(net, id, nextID, visited)
		nextID++
	}

	for _, id := range ids {
		if visited[id] {
			continue
		}
		stamp(net, id, nextID, visited)
		nextID++
	}
}

// bfsLabel runs a breadth-first walk from root over net.Adjacency, stamping
// every reached node with componentID. The queue is FIFO and neighbors are
// consumed in net.Adjacency's insertion order, matching the edge-insertion
// order recorded by ComputeAdjacency.
func bfsLabel(net *subject.Network, root string, componentID int, visited map[string]bool) {
	queue := []string{root}
	stamp(net, root, componentID, visited)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, nbr := range net.Adjacency[cur] {
			if visited[nbr] {
				continue
			}
			stamp(net, nbr, componentID, visited)
			queue = append(queue, nbr)
		}
	}
}

func stamp(net *subject.Network, id string, componentID int, visited map[string]bool) {
	visited[id] = true
	s := net.Nodes[id]
	s.HasCluster = true
	s.ClusterID = componentID
}

// Sizes returns, for each labeled component, the number of nodes assigned to
// it, indexed by component id (Sizes()[k] is the size of component k). It
// does not distinguish singletons from multi-node components -- callers
// needing the "cluster sizes" report field (components of size >= 2 only)
// filter the result themselves.
func Sizes(net *subject.Network) []int {
	maxID := -1
	for _, s := range net.Nodes {
		if s.HasCluster && s.ClusterID > maxID {
			maxID = s.ClusterID
		}
	}
	if maxID < 0 {
		return nil
	}
	sizes := make([]int, maxID+1)
	for _, s := range net.Nodes {
		if s.HasCluster {
			sizes[s.ClusterID]++
		}
	}
	return sizes
}
