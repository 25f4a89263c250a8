package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
)

// MarshalGraph encodes g, with levels when non-nil, as indented JSON.
// The encoding follows node and edge insertion order, so identical graphs
// produce identical bytes and can be content-hashed.
func MarshalGraph(g *dag.DAG, levels *transform.Levels) ([]byte, error) {
	data, err := json.MarshalIndent(FromDAG(g, levels), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteGraph writes the JSON encoding of g to w.
func WriteGraph(g *dag.DAG, levels *transform.Levels, w io.Writer) error {
	data, err := MarshalGraph(g, levels)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteGraphFile writes the JSON encoding of g to path.
func WriteGraphFile(g *dag.DAG, levels *transform.Levels, path string) error {
	data, err := MarshalGraph(g, levels)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadGraph decodes a graph document and rebuilds the DAG. Positions and
// levels stored in the document are restored on the nodes.
func ReadGraph(r io.Reader) (*dag.DAG, error) {
	var doc Graph
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return ToDAG(doc)
}

// ReadGraphFile reads the graph document stored at path.
func ReadGraphFile(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// writeFile replaces path with data, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
