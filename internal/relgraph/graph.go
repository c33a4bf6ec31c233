// Package relgraph holds the foreign-key graph used to infer joins between
// report tables.
//
// A Graph is built once from a list of foreign keys and is read-only
// afterwards, so it can be shared between goroutines without locking.
package relgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pthm/sqlreport/internal/codec"
)

// DefaultReferencedColumn is the key column assumed when a foreign key does
// not name one.
const DefaultReferencedColumn = "id"

// ErrInvalidGraph is returned when a relation source is malformed.
var ErrInvalidGraph = errors.New("invalid relation graph")

// ForeignKey states that Table.Column references References.ReferencedColumn.
type ForeignKey struct {
	Table            string `json:"table"`
	Column           string `json:"column"`
	References       string `json:"references"`
	ReferencedColumn string `json:"referenced_column,omitempty"`
}

// String renders the key as "table.column -> references.column".
func (fk ForeignKey) String() string {
	ref := fk.ReferencedColumn
	if ref == "" {
		ref = DefaultReferencedColumn
	}
	return fk.Table + "." + fk.Column + " -> " + fk.References + "." + ref
}

// Edge is a direct relation between two tables. Owner holds the foreign key
// column; Referenced is the table it points to.
type Edge struct {
	Owner            string
	Column           string
	Referenced       string
	ReferencedColumn string
}

// Other returns the table on the opposite side of the edge from table.
func (e Edge) Other(table string) string {
	if table == e.Owner {
		return e.Referenced
	}
	return e.Owner
}

// String renders the join condition of the edge.
func (e Edge) String() string {
	return e.Owner + "." + e.Column + " = " + e.Referenced + "." + e.ReferencedColumn
}

// Graph is a symmetric table adjacency built from foreign keys.
type Graph struct {
	edges map[string]map[string]Edge
	keys  []ForeignKey
}

// New builds a graph from foreign keys. When two keys connect the same pair
// of tables the first one wins. Self references are kept in ForeignKeys but
// produce no edge.
func New(keys []ForeignKey) (*Graph, error) {
	g := &Graph{
		edges: make(map[string]map[string]Edge),
		keys:  make([]ForeignKey, 0, len(keys)),
	}
	for i, fk := range keys {
		if fk.ReferencedColumn == "" {
			fk.ReferencedColumn = DefaultReferencedColumn
		}
		for _, ident := range []string{fk.Table, fk.Column, fk.References, fk.ReferencedColumn} {
			if !codec.IsIdentifier(ident) {
				return nil, fmt.Errorf("%w: foreign key %d: %q is not a valid identifier", ErrInvalidGraph, i, ident)
			}
		}
		g.keys = append(g.keys, fk)
		if fk.Table == fk.References {
			continue
		}
		if _, exists := g.edges[fk.Table][fk.References]; exists {
			continue
		}
		e := Edge{
			Owner:            fk.Table,
			Column:           fk.Column,
			Referenced:       fk.References,
			ReferencedColumn: fk.ReferencedColumn,
		}
		g.link(fk.Table, fk.References, e)
		g.link(fk.References, fk.Table, e)
	}
	return g, nil
}

func (g *Graph) link(from, to string, e Edge) {
	m, ok := g.edges[from]
	if !ok {
		m = make(map[string]Edge)
		g.edges[from] = m
	}
	m[to] = e
}

// Edge returns the direct relation between a and b in either direction.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	e, ok := g.edges[a][b]
	return e, ok
}

// Neighbors returns the tables directly related to table, sorted by name.
func (g *Graph) Neighbors(table string) []string {
	out := make([]string, 0, len(g.edges[table]))
	for t := range g.edges[table] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tables returns every table that participates in a foreign key, sorted.
func (g *Graph) Tables() []string {
	seen := make(map[string]struct{})
	for _, fk := range g.keys {
		seen[fk.Table] = struct{}{}
		seen[fk.References] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ForeignKeys returns the keys the graph was built from, with referenced
// columns filled in.
func (g *Graph) ForeignKeys() []ForeignKey {
	out := make([]ForeignKey, len(g.keys))
	copy(out, g.keys)
	return out
}

// Has reports whether table appears in the graph.
func (g *Graph) Has(table string) bool {
	_, ok := g.edges[table]
	return ok
}

// Path returns the shortest chain of edges from one table to another using
// breadth-first search. It returns nil when the tables are not connected or
// are the same table. Neighbors are visited in name order so the result is
// deterministic.
func (g *Graph) Path(from, to string) []Edge {
	if from == to || !g.Has(from) || !g.Has(to) {
		return nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return g.walkBack(prev, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func (g *Graph) walkBack(prev map[string]string, to string) []Edge {
	var path []Edge
	for cur := to; prev[cur] != ""; cur = prev[cur] {
		e, _ := g.Edge(prev[cur], cur)
		path = append(path, e)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Components groups tables into connected components. Tables within each
// group and the groups themselves are sorted by name.
func (g *Graph) Components() [][]string {
	seen := make(map[string]bool)
	var out [][]string
	for _, start := range g.Tables() {
		if seen[start] {
			continue
		}
		var group []string
		queue := []string{start}
		seen[start] = true
		for len(queue) > 0 {
			t := queue[0]
			queue = queue[1:]
			group = append(group, t)
			for _, n := range g.Neighbors(t) {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(group)
		out = append(out, group)
	}
	return out
}
