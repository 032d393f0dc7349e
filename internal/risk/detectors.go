package risk

import (
	"sort"
	"strings"

	"nexus/internal/graph"
)

// Annotations is the output of one detector run: per-node risk floors plus
// the detector's contribution to the summary counters. Detectors never read
// or write node scores directly, which is what makes their execution order
// irrelevant.
type Annotations struct {
	Floors               map[string]float64
	WhiteHorseCount      int
	CircularStructureCnt int
}

func newAnnotations() Annotations {
	return Annotations{Floors: make(map[string]float64)}
}

func (a *Annotations) raise(nodeID string, floor float64) {
	if floor > a.Floors[nodeID] {
		a.Floors[nodeID] = floor
	}
}

// Detector inspects a graph and proposes risk floors. Implementations must
// be pure: no mutation of the graph, deterministic output.
type Detector func(g *graph.Graph, t Thresholds) Annotations

// DetectWhiteHorses flags persons connected to many distinct companies
// through management or ownership edges. Such a person is likely a nominal
// front rather than a real director.
func DetectWhiteHorses(g *graph.Graph, t Thresholds) Annotations {
	ann := newAnnotations()

	companies := make(map[string]map[string]struct{})
	for _, edge := range g.Edges {
		if edge.Kind != graph.EdgeManagedBy && edge.Kind != graph.EdgeOwnedBy {
			continue
		}
		source, okS := g.Node(edge.Source)
		target, okT := g.Node(edge.Target)
		if !okS || !okT {
			continue
		}

		// Count the company endpoint against the person endpoint regardless
		// of edge direction; registries differ on which side they emit.
		switch {
		case source.Kind == graph.KindPerson && target.Kind == graph.KindCompany:
			addCompany(companies, source.ID, target.ID)
		case source.Kind == graph.KindCompany && target.Kind == graph.KindPerson:
			addCompany(companies, target.ID, source.ID)
		}
	}

	for personID, linked := range companies {
		if len(linked) >= t.WhiteHorseCompanies {
			ann.raise(personID, t.WhiteHorseFloor)
			ann.WhiteHorseCount++
		}
	}
	return ann
}

func addCompany(m map[string]map[string]struct{}, personID, companyID string) {
	if m[personID] == nil {
		m[personID] = make(map[string]struct{})
	}
	m[personID][companyID] = struct{}{}
}

// DetectCircularOwnership finds directed cycles in the company-to-company
// OWNED_BY subgraph. Every company on a cycle gets the cycle floor; cycles
// are counted once per distinct edge set.
func DetectCircularOwnership(g *graph.Graph, t Thresholds) Annotations {
	ann := newAnnotations()

	adjacency := make(map[string][]string)
	nodeIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, edge := range g.Edges {
		if edge.Kind != graph.EdgeOwnedBy {
			continue
		}
		source, okS := g.Node(edge.Source)
		target, okT := g.Node(edge.Target)
		if !okS || !okT || source.Kind != graph.KindCompany || target.Kind != graph.KindCompany {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		for _, id := range []string{edge.Source, edge.Target} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				nodeIDs = append(nodeIDs, id)
			}
		}
	}
	sort.Strings(nodeIDs)
	for _, neighbors := range adjacency {
		sort.Strings(neighbors)
	}

	foundCycles := make(map[string]struct{})

	// Enumerate elementary cycles rooted at their lexicographically smallest
	// node: the DFS from root only visits ids >= root, so each cycle is
	// discovered exactly once. The ownership subgraphs here are tiny, so the
	// exhaustive path walk is fine.
	for _, root := range nodeIDs {
		var path []string
		onPath := make(map[string]struct{})

		var walk func(current string)
		walk = func(current string) {
			path = append(path, current)
			onPath[current] = struct{}{}
			defer func() {
				path = path[:len(path)-1]
				delete(onPath, current)
			}()

			for _, next := range adjacency[current] {
				if next == root && len(path) >= 2 {
					signature := cycleSignature(path)
					if _, dup := foundCycles[signature]; !dup {
						foundCycles[signature] = struct{}{}
						ann.CircularStructureCnt++
						for _, id := range path {
							ann.raise(id, t.CycleFloor)
						}
					}
					continue
				}
				if next < root {
					continue
				}
				if _, visiting := onPath[next]; visiting {
					continue
				}
				walk(next)
			}
		}
		walk(root)
	}

	return ann
}

// cycleSignature canonicalizes a cycle by its edge set so the same cycle
// reached from different entry points collapses to one count.
func cycleSignature(path []string) string {
	edges := make([]string, len(path))
	for i := range path {
		edges[i] = path[i] + ">" + path[(i+1)%len(path)]
	}
	sort.Strings(edges)
	return strings.Join(edges, "|")
}

// DetectDebtEscalation propagates a debt node's risk onto the company that
// carries it.
func DetectDebtEscalation(g *graph.Graph, _ Thresholds) Annotations {
	ann := newAnnotations()

	for _, edge := range g.Edges {
		if edge.Kind != graph.EdgeHasDebt {
			continue
		}
		company, okC := g.Node(edge.Source)
		debt, okD := g.Node(edge.Target)
		if !okC || !okD || company.Kind != graph.KindCompany || debt.Kind != graph.KindDebt {
			continue
		}
		ann.raise(company.ID, debt.RiskScore)
	}
	return ann
}
