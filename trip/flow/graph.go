package flow

// Graph is an ordered, immutable list of nodes.
type Graph struct {
	nodes []Node
	index map[State]int
}

// NewGraph builds a graph from nodes in order. Duplicate states panic, since
// graphs are package-level tables built at init.
func NewGraph(nodes ...Node) *Graph {
	g := &Graph{
		nodes: append([]Node(nil), nodes...),
		index: make(map[State]int, len(nodes)),
	}
	for i, n := range g.nodes {
		if _, dup := g.index[n.State]; dup {
			panic("flow: duplicate state " + string(n.State))
		}
		g.index[n.State] = i
	}
	return g
}

// First returns the entry node state.
func (g *Graph) First() State {
	if len(g.nodes) == 0 {
		return StateIdle
	}
	return g.nodes[0].State
}

// Last returns the final node state.
func (g *Graph) Last() State {
	if len(g.nodes) == 0 {
		return StateIdle
	}
	return g.nodes[len(g.nodes)-1].State
}

// Contains reports whether s is a node of the graph.
func (g *Graph) Contains(s State) bool {
	_, ok := g.index[s]
	return ok
}

// Node returns the declaration of s.
func (g *Graph) Node(s State) (Node, bool) {
	i, ok := g.index[s]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Next returns the node after s, or idle when s is last or unknown.
func (g *Graph) Next(s State) State {
	i, ok := g.index[s]
	if !ok || i+1 >= len(g.nodes) {
		return StateIdle
	}
	return g.nodes[i+1].State
}

// Previous returns the node before s, or idle when s is first or unknown.
func (g *Graph) Previous(s State) State {
	i, ok := g.index[s]
	if !ok || i == 0 {
		return StateIdle
	}
	return g.nodes[i-1].State
}

// States lists the node states in order.
func (g *Graph) States() []State {
	out := make([]State, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.State
	}
	return out
}

// Fields lists the draft fields written by the graph, in node order.
func (g *Graph) Fields() []string {
	out := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.Field != "" {
			out = append(out, n.Field)
		}
	}
	return out
}
