package relgraph

import (
	"fmt"
	"sort"

	"github.com/jinzhu/inflection"
)

// ConventionalColumn returns the foreign key column name a table referencing
// referenced is expected to use, e.g. "sub_brands" -> "sub_brand_id".
func ConventionalColumn(referenced string) string {
	return inflection.Singular(referenced) + "_id"
}

// InferOwner decides which of a and b holds column. It reports false when the
// column name matches neither side's convention.
func InferOwner(a, b, column string) (owner, referenced string, ok bool) {
	switch column {
	case ConventionalColumn(b):
		return a, b, true
	case ConventionalColumn(a):
		return b, a, true
	}
	return "", "", false
}

// InferForeignKeys converts a legacy adjacency map into foreign keys. Pairs
// listed from both sides collapse into one key.
func InferForeignKeys(adjacency map[string]map[string]string) ([]ForeignKey, error) {
	tables := make([]string, 0, len(adjacency))
	for t := range adjacency {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	seen := make(map[ForeignKey]struct{})
	var keys []ForeignKey
	for _, a := range tables {
		neighbors := make([]string, 0, len(adjacency[a]))
		for b := range adjacency[a] {
			neighbors = append(neighbors, b)
		}
		sort.Strings(neighbors)

		for _, b := range neighbors {
			column := adjacency[a][b]
			owner, referenced, ok := InferOwner(a, b, column)
			if !ok {
				return nil, fmt.Errorf("%w: cannot infer owner of %s between %s and %s", ErrInvalidGraph, column, a, b)
			}
			fk := ForeignKey{Table: owner, Column: column, References: referenced, ReferencedColumn: DefaultReferencedColumn}
			if _, dup := seen[fk]; dup {
				continue
			}
			seen[fk] = struct{}{}
			keys = append(keys, fk)
		}
	}
	return keys, nil
}
