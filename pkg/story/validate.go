package story

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// DanglingRef records a choice whose target id does not exist in the graph.
type DanglingRef struct {
	NodeID string
	Label  string
	Target string
}

// Report describes the integrity of a graph. Dangling references and
// unreachable nodes are tolerated (dangling choices are simply never
// rendered); they are reported so the story author can fix the data.
type Report struct {
	Dangling    []DanglingRef
	Unreachable []string
}

// Clean reports whether the graph has no integrity problems.
func (r Report) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Unreachable) == 0
}

// Validate walks the whole graph and reports dangling choice targets and
// nodes unreachable from the start node.
func Validate(g *Graph) Report {
	var rep Report

	for _, id := range sortedIDs(g) {
		n := g.nodes[id]
		for _, c := range n.Choices {
			if _, ok := g.nodes[c.Target]; !ok {
				rep.Dangling = append(rep.Dangling, DanglingRef{
					NodeID: n.ID,
					Label:  c.Label,
					Target: c.Target,
				})
			}
		}
	}

	// BFS from start over existing choice edges
	visited := mapset.New[string]()
	queue := []string{g.start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n, ok := g.nodes[id]
		if !ok || visited.Has(id) {
			continue
		}
		visited.Put(id)

		if n.Ending {
			continue
		}
		for _, c := range n.Choices {
			if !visited.Has(c.Target) {
				queue = append(queue, c.Target)
			}
		}
	}

	for _, id := range sortedIDs(g) {
		if !visited.Has(id) {
			rep.Unreachable = append(rep.Unreachable, id)
		}
	}

	return rep
}

// sortedIDs returns node ids in a stable order so reports are deterministic.
func sortedIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
