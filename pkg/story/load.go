package story

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed story.toml
var defaultStory []byte

// storyFile is the on-disk TOML shape of a story.
type storyFile struct {
	Title string `toml:"title"`
	Start string `toml:"start"`
	Nodes []Node `toml:"node"`
}

// Parse builds a graph from TOML story data.
func Parse(data []byte) (*Graph, error) {
	var f storyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse story: %w", err)
	}
	if len(f.Nodes) == 0 {
		return nil, fmt.Errorf("parse story: no nodes defined")
	}
	if f.Start == "" {
		f.Start = f.Nodes[0].ID
	}

	g := &Graph{
		title: f.Title,
		start: f.Start,
		nodes: make(map[string]*Node, len(f.Nodes)),
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("parse story: node %d has no id", i)
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("parse story: duplicate node id %q", n.ID)
		}
		g.nodes[n.ID] = n
	}
	if _, ok := g.nodes[g.start]; !ok {
		return nil, fmt.Errorf("parse story: start node %q not found", g.start)
	}
	return g, nil
}

// LoadFile builds a graph from a TOML story file on disk.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}
	return Parse(data)
}

// Default builds the graph for the story shipped with the game.
func Default() (*Graph, error) {
	return Parse(defaultStory)
}
