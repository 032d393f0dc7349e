// Package graph holds the ownership-graph model produced from registry
// records and consumed by risk analysis. Nodes and edges keep insertion
// order so responses are deterministic, and both are deduplicated on add.
package graph

import (
	"fmt"
	"strings"

	dErrors "nexus/pkg/domain-errors"
)

// NodeKind classifies graph nodes.
type NodeKind string

const (
	KindCompany NodeKind = "company"
	KindPerson  NodeKind = "person"
	KindAddress NodeKind = "address"
	KindDebt    NodeKind = "debt"
)

// EdgeKind classifies graph edges.
type EdgeKind string

const (
	EdgeOwnedBy   EdgeKind = "OWNED_BY"
	EdgeManagedBy EdgeKind = "MANAGED_BY"
	EdgeLocatedAt EdgeKind = "LOCATED_AT"
	EdgeHasDebt   EdgeKind = "HAS_DEBT"
)

// Attribute is one display attribute of a node. Attributes are a slice, not
// a map, so their order survives serialization.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Node is one vertex of the ownership graph. RiskScore is in [0,10]; risk
// rules only ever raise it.
type Node struct {
	ID         string      `json:"id"`
	Kind       NodeKind    `json:"kind"`
	Label      string      `json:"label"`
	RiskScore  float64     `json:"risk_score"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// SetAttribute appends or replaces an attribute, preserving position on
// replace.
func (n *Node) SetAttribute(key, value string) {
	for i := range n.Attributes {
		if n.Attributes[i].Key == key {
			n.Attributes[i].Value = value
			return
		}
	}
	n.Attributes = append(n.Attributes, Attribute{Key: key, Value: value})
}

// Attribute returns the value for key, if present.
func (n *Node) Attribute(key string) (string, bool) {
	for _, attr := range n.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Edge is a directed relation between two nodes.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Graph is an ordered, deduplicated node/edge set.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`

	nodeIndex map[string]*Node
	edgeIndex map[Edge]struct{}
}

func New() *Graph {
	return &Graph{
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[Edge]struct{}),
	}
}

// AddNode inserts node unless a node with the same id already exists. On a
// duplicate the existing node is kept and returned; callers that want to
// enrich it mutate the returned node.
func (g *Graph) AddNode(node *Node) *Node {
	g.init()
	if existing, ok := g.nodeIndex[node.ID]; ok {
		return existing
	}
	g.Nodes = append(g.Nodes, node)
	g.nodeIndex[node.ID] = node
	return node
}

// AddEdge inserts the edge unless an identical (source, target, kind) edge
// already exists.
func (g *Graph) AddEdge(edge Edge) {
	g.init()
	if _, ok := g.edgeIndex[edge]; ok {
		return
	}
	g.Edges = append(g.Edges, edge)
	g.edgeIndex[edge] = struct{}{}
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (*Node, bool) {
	g.init()
	node, ok := g.nodeIndex[id]
	return node, ok
}

// Merge folds other's nodes and edges into g, deduplicating both.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, node := range other.Nodes {
		g.AddNode(node)
	}
	for _, edge := range other.Edges {
		g.AddEdge(edge)
	}
}

// Validate checks referential integrity: every edge endpoint must be a known
// node id. A violation is a programming error in the building code, reported
// loudly rather than silently dropped.
func (g *Graph) Validate() error {
	g.init()
	for _, edge := range g.Edges {
		if _, ok := g.nodeIndex[edge.Source]; !ok {
			return dErrors.Newf(dErrors.CodeGraphInconsistency,
				"edge %s -%s-> %s references missing source node", edge.Source, edge.Kind, edge.Target)
		}
		if _, ok := g.nodeIndex[edge.Target]; !ok {
			return dErrors.Newf(dErrors.CodeGraphInconsistency,
				"edge %s -%s-> %s references missing target node", edge.Source, edge.Kind, edge.Target)
		}
	}
	return nil
}

func (g *Graph) init() {
	if g.nodeIndex == nil {
		g.nodeIndex = make(map[string]*Node)
		for _, node := range g.Nodes {
			g.nodeIndex[node.ID] = node
		}
	}
	if g.edgeIndex == nil {
		g.edgeIndex = make(map[Edge]struct{})
		for _, edge := range g.Edges {
			g.edgeIndex[edge] = struct{}{}
		}
	}
}

// CompanyNodeID derives the canonical node id for a company identifier.
func CompanyNodeID(country, identifier string) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(country), strings.TrimSpace(identifier))
}
