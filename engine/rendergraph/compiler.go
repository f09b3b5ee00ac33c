package rendergraph

import "fmt"

// color is the three-colour DFS marking used for cycle detection
// (§4.6 step 3): white (unvisited), grey (on the current DFS stack),
// black (fully explored).
type color uint8

const (
	white color = iota
	grey
	black
)

// compiledPlan is the frozen result of one Compile call: a
// topological order and its partition into dependency levels. Graph
// reuses it across Execute calls until the declared pass set changes.
type compiledPlan struct {
	topological []*Pass
	levels      []DependencyLevel
}

// resolveFunc maps a handle as declared in a pass's read/write set
// (texture or view), plus whether it was declared as a write, down to
// the underlying access (texture identity and view kind) the
// dependency graph needs; the graph core never has to know which
// views alias which textures, the caller's Scheduler does.
type resolveFunc func(h Handle, write bool) (access, error)

// compile builds the producer map, adjacency list, detects cycles,
// produces a deterministic topological order, and partitions it into
// dependency levels (§4.6).
func compile(passes []*Pass, resolve resolveFunc) (*compiledPlan, error) {
	n := len(passes)
	if n == 0 {
		return &compiledPlan{}, nil
	}

	producer, err := buildProducerMap(passes, resolve)
	if err != nil {
		return nil, err
	}

	adjacency, err := buildAdjacency(passes, producer, resolve)
	if err != nil {
		return nil, err
	}

	if cyclePath, ok := findCycle(passes, adjacency); ok {
		names := make([]string, len(cyclePath))
		for i, idx := range cyclePath {
			names[i] = passes[idx].Name
		}
		return nil, &GraphError{Kind: ErrCycleDetected, Message: "dependency graph has a cycle", Cycle: names}
	}

	topoIdx := topologicalSort(n, adjacency)
	depths := computeDepths(topoIdx, adjacency)

	topo := make([]*Pass, n)
	for i, idx := range topoIdx {
		passes[idx].TopologicalIndex = i
		topo[i] = passes[idx]
	}

	levels := buildLevels(topoIdx, depths, passes)

	return &compiledPlan{topological: topo, levels: levels}, nil
}

// buildProducerMap assigns each resource handle the pass indices that
// write it. Two distinct passes holding an *exclusive* write to the
// same resource (anything but an unordered-access view) is a
// BadDeclaration error (write-set overlap), per §7; two passes both
// writing through a UAV view are not in conflict; scenario S3 relies
// on the executor's UAV barrier, not a compile-time ordering, to keep
// them apart.
func buildProducerMap(passes []*Pass, resolve resolveFunc) (map[Handle][]int, error) {
	producer := make(map[Handle][]int)
	exclusiveOwner := make(map[Handle]int)
	for idx, p := range passes {
		for _, h := range p.allWrites() {
			acc, err := resolve(h, true)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", p.Name, err)
			}
			if acc.kind != ViewUnorderedAccess {
				if existing, ok := exclusiveOwner[acc.texture]; ok && existing != idx {
					return nil, newErrorf(ErrBadDeclaration,
						"resource %s is written by both pass %q and pass %q", acc.texture, passes[existing].Name, p.Name)
				}
				exclusiveOwner[acc.texture] = idx
			}
			producer[acc.texture] = append(producer[acc.texture], idx)
		}
	}
	return producer, nil
}

// buildAdjacency builds edge P -> Q for every Q that reads a resource
// P produced. A read with no producer at all is a BadDeclaration
// error (§7, invariant 2). A pass that both writes a resource and reads
// it gets no edge from itself, and gets edges only from the other
// writers of that resource declared before it, so two read-write UAV
// passes on one resource are ordered by declaration instead of forming
// a cycle.
func buildAdjacency(passes []*Pass, producer map[Handle][]int, resolve resolveFunc) ([][]int, error) {
	n := len(passes)
	adjacency := make([][]int, n)
	seen := make([]map[int]struct{}, n)
	for i := range seen {
		seen[i] = make(map[int]struct{})
	}

	for idx, p := range passes {
		for _, h := range p.allReads() {
			acc, err := resolve(h, false)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", p.Name, err)
			}
			producers, ok := producer[acc.texture]
			if !ok {
				return nil, newErrorf(ErrBadDeclaration,
					"pass %q reads resource %s which no pass in the graph writes", p.Name, acc.texture)
			}
			selfWrites := false
			for _, producerIdx := range producers {
				if producerIdx == idx {
					selfWrites = true
				}
			}
			for _, producerIdx := range producers {
				if producerIdx == idx || (selfWrites && producerIdx > idx) {
					continue
				}
				if _, dup := seen[producerIdx][idx]; dup {
					continue
				}
				seen[producerIdx][idx] = struct{}{}
				adjacency[producerIdx] = append(adjacency[producerIdx], idx)
			}
		}
	}
	// Keep edge lists in ascending target-index order so every DFS
	// that walks them produces a result tie-broken by declaration order.
	for i := range adjacency {
		sortInts(adjacency[i])
	}
	return adjacency, nil
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// findCycle runs the three-colour DFS of §4.6 step 3. On encountering
// a grey (on-stack) target it returns the cycle path, innermost vertex
// first duplicated at both ends (A -> B -> A).
func findCycle(passes []*Pass, adjacency [][]int) ([]int, bool) {
	n := len(passes)
	colors := make([]color, n)
	var stack []int
	var cycle []int

	var visit func(u int) bool
	visit = func(u int) bool {
		colors[u] = grey
		stack = append(stack, u)
		for _, v := range adjacency[u] {
			switch colors[v] {
			case white:
				if visit(v) {
					return true
				}
			case grey:
				// Found the back edge u -> v; extract the cycle from
				// the current DFS stack starting at v.
				start := 0
				for i, s := range stack {
					if s == v {
						start = i
						break
					}
				}
				cycle = append(append([]int{}, stack[start:]...), v)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		colors[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if colors[i] == white {
			if visit(i) {
				return cycle, true
			}
		}
	}
	return nil, false
}

// topologicalSort performs a Kahn's-algorithm topological sort: at
// every step it picks the lowest declaration index among passes whose
// predecessors have all already been placed. A DFS-based
// reverse-postorder sort ties-break wrong here — two independent
// siblings of unequal subtree depth (§4.6 step 4's diamond example,
// B and C both reading A's output, C leading to a shallower subtree
// than B) finish the DFS in subtree-depth order, not declaration
// order. Kahn's always chooses among the currently-ready set, so two
// siblings that become ready at the same time are ordered by
// declaration index regardless of what either one's subtree looks
// like.
func topologicalSort(n int, adjacency [][]int) []int {
	indegree := make([]int, n)
	for _, edges := range adjacency {
		for _, v := range edges {
			indegree[v]++
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		minPos := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[minPos] {
				minPos = i
			}
		}
		u := ready[minPos]
		ready = append(ready[:minPos], ready[minPos+1:]...)
		order = append(order, u)

		for _, v := range adjacency[u] {
			indegree[v]--
			if indegree[v] == 0 {
				ready = append(ready, v)
			}
		}
	}
	return order
}

// computeDepths assigns depth(P) = 1 + max(depth(predecessors)), roots
// at depth 0, by relaxing forward edges while walking the topological
// order (§4.6 step 5).
func computeDepths(topoIdx []int, adjacency [][]int) []int {
	depths := make([]int, len(topoIdx))
	for _, u := range topoIdx {
		for _, v := range adjacency[u] {
			if d := depths[u] + 1; d > depths[v] {
				depths[v] = d
			}
		}
	}
	return depths
}

// buildLevels groups the topological order into DependencyLevels by
// depth, then orders each group by declaration index. Passes sharing a
// depth have no edges between them, so that order is still topological.
func buildLevels(topoIdx, depths []int, passes []*Pass) []DependencyLevel {
	if len(topoIdx) == 0 {
		return nil
	}
	maxDepth := 0
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([]DependencyLevel, maxDepth+1)
	for i := range levels {
		levels[i].Depth = i
	}
	for _, idx := range topoIdx {
		d := depths[idx]
		levels[d].Passes = append(levels[d].Passes, passes[idx])
	}
	for i := range levels {
		ps := levels[i].Passes
		for a := 1; a < len(ps); a++ {
			for b := a; b > 0 && ps[b-1].declarationOrder > ps[b].declarationOrder; b-- {
				ps[b-1], ps[b] = ps[b], ps[b-1]
			}
		}
	}
	return levels
}
