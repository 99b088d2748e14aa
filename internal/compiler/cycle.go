package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/layout"
)

// CycleWarning reports a group of layouts that reference each other.
//
// Recursion is a warning, not an error: a recursive layout over acyclic
// data terminates. Over cyclic data the hydrator stops at its depth limit.
type CycleWarning struct {
	Path    []string `json:"path"`    // layout IRIs, first element repeated last
	Message string   `json:"message"`
	Level   string   `json:"level"` // always "warning"
}

// AnalyzeCycles reports every recursive group of layouts in reg, keyed by
// layout IRI. A group is a strongly connected component of the reference
// graph with more than one member, or a single layout referencing itself.
// Warnings are sorted by the first IRI of their path.
func AnalyzeCycles(reg *layout.Registry) []CycleWarning {
	refs := referenceGraph(reg)

	warnings := []CycleWarning{}
	for _, group := range components(refs) {
		if len(group) == 1 && !slices.Contains(refs[group[0]], group[0]) {
			continue
		}
		warnings = append(warnings, warnCycle(group, refs))
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// referenceGraph maps each layout IRI to the sorted, distinct IRIs its
// value formats point at.
func referenceGraph(reg *layout.Registry) map[string][]string {
	refs := make(map[string][]string, reg.Len())
	for _, ref := range reg.Refs() {
		l, _ := reg.Get(ref)
		targets := []string{}
		for _, f := range layout.Children(l) {
			targets = append(targets, reg.Name(f.Layout))
		}
		slices.Sort(targets)
		refs[reg.Name(ref)] = slices.Compact(targets)
	}
	return refs
}

// sccWalk holds the bookkeeping of one Tarjan traversal.
type sccWalk struct {
	refs   map[string][]string
	next   int
	index  map[string]int
	low    map[string]int
	stack  []string
	onPath map[string]bool
	groups [][]string
}

// components returns the strongly connected components of refs, each
// sorted. Roots are visited in IRI order so the result is stable.
func components(refs map[string][]string) [][]string {
	w := &sccWalk{
		refs:   refs,
		index:  make(map[string]int),
		low:    make(map[string]int),
		onPath: make(map[string]bool),
	}
	for _, name := range slices.Sorted(maps.Keys(refs)) {
		if _, seen := w.index[name]; !seen {
			w.visit(name)
		}
	}
	return w.groups
}

func (w *sccWalk) visit(v string) {
	w.index[v], w.low[v] = w.next, w.next
	w.next++
	w.stack = append(w.stack, v)
	w.onPath[v] = true

	for _, u := range w.refs[v] {
		if _, seen := w.index[u]; !seen {
			w.visit(u)
			w.low[v] = min(w.low[v], w.low[u])
		} else if w.onPath[u] {
			w.low[v] = min(w.low[v], w.index[u])
		}
	}

	if w.low[v] != w.index[v] {
		return
	}
	var group []string
	for {
		u := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.onPath[u] = false
		group = append(group, u)
		if u == v {
			break
		}
	}
	slices.Sort(group)
	w.groups = append(w.groups, group)
}

func warnCycle(group []string, refs map[string][]string) CycleWarning {
	if len(group) == 1 {
		name := group[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-recursive layout: %s → %s", name, name),
			Level:   "warning",
		}
	}
	path := cyclePath(group, refs)
	return CycleWarning{
		Path:    path,
		Message: "Mutually recursive layouts: " + strings.Join(path, " → "),
		Level:   "warning",
	}
}

// cyclePath follows references inside group from its smallest IRI, taking
// the first unvisited member each step, until it closes back on the start
// or gets stuck.
func cyclePath(group []string, refs map[string][]string) []string {
	start := group[0]
	path := []string{start}
	seen := map[string]bool{start: true}

	for cur := start; ; {
		next := ""
		for _, u := range refs[cur] {
			if slices.Contains(group, u) && (u == start || !seen[u]) {
				next = u
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		seen[next] = true
		cur = next
	}
}
