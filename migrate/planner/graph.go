package planner

import (
	"sort"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// tableGraph is the foreign key dependency graph of a model: an edge from A to B means A references B.
type tableGraph struct {
	names []string
	index map[string]int
	adj   [][]int
	fold  bool
}

func newTableGraph(tables []*schema.Table, fold bool) *tableGraph {
	g := &tableGraph{index: make(map[string]int, len(tables)), fold: fold}
	sorted := append([]*schema.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, t := range sorted {
		g.index[g.key(t.Name)] = len(g.names)
		g.names = append(g.names, t.Name)
	}
	g.adj = make([][]int, len(g.names))
	for _, t := range sorted {
		from := g.index[g.key(t.Name)]
		for _, ref := range t.ReferencedTables() {
			to, ok := g.index[g.key(ref)]
			if !ok {
				continue
			}
			g.adj[from] = append(g.adj[from], to)
		}
		sort.Ints(g.adj[from])
	}
	return g
}

func (g *tableGraph) key(name string) string {
	if g.fold {
		return strings.ToLower(name)
	}
	return name
}

// components returns the strongly connected components in Tarjan order: every component comes after
// all components it references, so referenced tables come first.
func (g *tableGraph) components() [][]string {
	n := len(g.names)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		stack   []int
		counter int
		out     [][]string
	)

	var visit func(v int)
	visit = func(v int) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.adj[v] {
			switch {
			case index[w] < 0:
				visit(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] != index[v] {
			return
		}
		var comp []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, g.names[w])
			if w == v {
				break
			}
		}
		sort.Strings(comp)
		out = append(out, comp)
	}

	for v := 0; v < n; v++ {
		if index[v] < 0 {
			visit(v)
		}
	}
	return out
}

// order returns table names with referenced tables before the tables referencing them. Tables in a
// cycle are ordered by name.
func (g *tableGraph) order() []string {
	var out []string
	for _, comp := range g.components() {
		out = append(out, comp...)
	}
	return out
}

// cyclic reports whether a table takes part in a cycle, self references included. It only feeds diagnostics:
// every foreign key is added after all tables exist.
func (g *tableGraph) cyclic() map[string]bool {
	out := make(map[string]bool)
	for _, comp := range g.components() {
		if len(comp) > 1 {
			for _, name := range comp {
				out[g.key(name)] = true
			}
			continue
		}
		v := g.index[g.key(comp[0])]
		for _, w := range g.adj[v] {
			if w == v {
				out[g.key(comp[0])] = true
			}
		}
	}
	return out
}
