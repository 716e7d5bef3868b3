// Package document is the ordered, mutable representation of a project
// description. It wraps yaml.v3 nodes directly instead of decoding into Go
// maps so that key order survives a load → transform → marshal round trip.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrParse reports malformed input markup. Wrapped errors keep the decoder's
// line context where available.
var ErrParse = errors.New("document: parse error")

// Document is a project description rooted at a top-level mapping.
type Document struct {
	Map
}

// Load parses raw markup into a Document. The top level must be a mapping.
func Load(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrParse)
	}
	root := resolve(node.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping (line %d)", ErrParse, root.Line)
	}
	return &Document{Map{node: root}}, nil
}

// LoadFile reads and parses a project file from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", path, err)
	}
	doc, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("document: %s: %w", path, err)
	}
	return doc, nil
}

// Marshal renders the document back to markup with the original field order.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.node); err != nil {
		return nil, fmt.Errorf("document: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("document: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy. Transforms stage their mutations on a clone and
// swap it in only on full success, so a failed pass leaves the original
// untouched.
func (d *Document) Clone() *Document {
	return &Document{Map{node: CloneNode(d.node)}}
}
