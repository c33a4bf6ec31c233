package relgraph

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

// ArtifactVersion is the newest artifact format this package reads.
const ArtifactVersion = 1

//go:embed relations.yaml
var embeddedArtifact []byte

// Artifact is the on-disk description of a relation graph.
//
// Adjacency is the legacy form: table -> neighbor -> foreign key column,
// listed from both sides. Ownership is inferred from column names, see
// InferForeignKeys.
type Artifact struct {
	Version     int                          `json:"version"`
	ForeignKeys []ForeignKey                 `json:"foreign_keys,omitempty"`
	Adjacency   map[string]map[string]string `json:"adjacency,omitempty"`
}

// Parse decodes a YAML artifact and builds its graph.
func Parse(data []byte) (*Graph, error) {
	var a Artifact
	if err := yaml.UnmarshalStrict(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	if a.Version > ArtifactVersion {
		return nil, fmt.Errorf("%w: unsupported artifact version %d", ErrInvalidGraph, a.Version)
	}

	keys := a.ForeignKeys
	if len(a.Adjacency) > 0 {
		inferred, err := InferForeignKeys(a.Adjacency)
		if err != nil {
			return nil, err
		}
		keys = append(keys, inferred...)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: artifact declares no relations", ErrInvalidGraph)
	}
	return New(keys)
}

// LoadFile reads and parses an artifact from path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading relation artifact: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Embedded returns the graph compiled into the binary.
func Embedded() (*Graph, error) {
	return Parse(embeddedArtifact)
}

// MustEmbedded is like Embedded but panics on error.
func MustEmbedded() *Graph {
	g, err := Embedded()
	if err != nil {
		panic(err)
	}
	return g
}

// Artifact returns the graph in artifact form, keys sorted by table and
// column.
func (g *Graph) Artifact() Artifact {
	keys := g.ForeignKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Table != keys[j].Table {
			return keys[i].Table < keys[j].Table
		}
		return keys[i].Column < keys[j].Column
	})
	return Artifact{Version: ArtifactVersion, ForeignKeys: keys}
}

// YAML renders the graph as an artifact document.
func (g *Graph) YAML() ([]byte, error) {
	return yaml.Marshal(g.Artifact())
}
