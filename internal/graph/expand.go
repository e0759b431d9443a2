package graph

// Node is a vertex of a neighborhood. Selected marks the focus.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Edge points from the linking document to the linked one.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Neighborhood is the two-hop subgraph around a focus document. It holds at
// most one node per identifier and one edge per ordered pair.
type Neighborhood struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the neighborhood has no nodes.
func (n Neighborhood) Empty() bool { return len(n.Nodes) == 0 }

type neighborhoodBuilder struct {
	out   Neighborhood
	nodes map[string]struct{}
	edges map[Edge]struct{}
}

func newNeighborhoodBuilder() *neighborhoodBuilder {
	return &neighborhoodBuilder{
		out:   Neighborhood{Nodes: []Node{}, Edges: []Edge{}},
		nodes: make(map[string]struct{}),
		edges: make(map[Edge]struct{}),
	}
}

func (nb *neighborhoodBuilder) addNode(n Node) {
	if _, ok := nb.nodes[n.ID]; ok {
		return
	}
	nb.nodes[n.ID] = struct{}{}
	nb.out.Nodes = append(nb.out.Nodes, n)
}

func (nb *neighborhoodBuilder) addEdge(source, target string) {
	e := Edge{Source: source, Target: target}
	if _, ok := nb.edges[e]; ok {
		return
	}
	nb.edges[e] = struct{}{}
	nb.out.Edges = append(nb.out.Edges, e)
}

// Neighborhood returns the nodes and edges within two hops of focus. Only
// documents present in the graph become nodes; dangling links are ignored.
// An unknown focus yields an empty neighborhood.
func (g *Graph) Neighborhood(focus string) Neighborhood {
	nb := newNeighborhoodBuilder()
	f, ok := g.byID[focus]
	if !ok {
		return nb.out
	}
	nb.addNode(Node{ID: f.ID, Label: f.Title, Selected: true})

	// Hop 1, anchored at the focus.
	var hop1 []*Document
	seen := map[string]struct{}{f.ID: {}}
	visit := func(d *Document) {
		nb.addNode(Node{ID: d.ID, Label: Label(d.ID)})
		if _, ok := seen[d.ID]; !ok {
			seen[d.ID] = struct{}{}
			hop1 = append(hop1, d)
		}
	}
	for _, id := range f.Backlinks {
		if d, ok := g.byID[id]; ok {
			visit(d)
			nb.addEdge(d.ID, f.ID)
		}
	}
	for _, id := range f.Links {
		if d, ok := g.byID[id]; ok {
			visit(d)
			nb.addEdge(f.ID, d.ID)
		}
	}

	// Hop 2, anchored at each hop-1 neighbor. No further recursion.
	for _, n := range hop1 {
		for _, id := range n.Links {
			if d, ok := g.byID[id]; ok {
				nb.addNode(Node{ID: d.ID, Label: Label(d.ID)})
				nb.addEdge(n.ID, d.ID)
			}
		}
		for _, id := range n.Backlinks {
			if d, ok := g.byID[id]; ok {
				nb.addNode(Node{ID: d.ID, Label: Label(d.ID)})
				nb.addEdge(d.ID, n.ID)
			}
		}
	}
	return nb.out
}
