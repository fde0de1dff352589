// Package story holds the branching narrative graph: nodes of text joined by
// labeled choices, with ending nodes marking the terminals.
package story

// Choice is a labeled edge from one node to another.
type Choice struct {
	Label  string `toml:"label"`
	Target string `toml:"target"`
}

// Node is one unit of narrative text plus its outgoing choices.
// Ending nodes never have choices rendered, even if the data declares some.
type Node struct {
	ID      string   `toml:"id"`
	Text    string   `toml:"text"`
	Ending  bool     `toml:"ending"`
	Choices []Choice `toml:"choice"`
}

// Graph is the immutable narrative graph, built once at startup.
type Graph struct {
	title string
	start string
	nodes map[string]*Node
}

// Title returns the story title.
func (g *Graph) Title() string {
	return g.title
}

// Start returns the starting node.
func (g *Graph) Start() *Node {
	return g.nodes[g.start]
}

// Lookup finds a node by id.
func (g *Graph) Lookup(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Choose follows the choice with the given label from a node. It returns
// false when the label is not one of the node's choices or when the target
// id is absent from the graph. Callers treat false as a no-op: a dangling
// choice is a data problem, never a user-facing error.
func (g *Graph) Choose(n *Node, label string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, c := range n.Choices {
		if c.Label == label {
			next, ok := g.nodes[c.Target]
			return next, ok
		}
	}
	return nil, false
}

// RenderedChoices returns the choices that should actually be shown for a
// node: dangling targets are filtered out, and ending nodes get none at all.
func (g *Graph) RenderedChoices(n *Node) []Choice {
	if n == nil || n.Ending {
		return nil
	}
	var out []Choice
	for _, c := range n.Choices {
		if _, ok := g.nodes[c.Target]; ok {
			out = append(out, c)
		}
	}
	return out
}
