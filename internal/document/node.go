package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scalar builds a plain string scalar node.
func Scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// Sequence builds a sequence node from the given items.
func Sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// Mapping builds an empty mapping node.
func Mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NodeOf encodes an arbitrary Go value into a node.
func NodeOf(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("document: encode value: %w", err)
	}
	return n, nil
}

// CloneNode deep-copies a node tree. Anchors and their aliases keep their
// relationship inside the copy.
func CloneNode(n *yaml.Node) *yaml.Node {
	return cloneNode(n, map[*yaml.Node]*yaml.Node{})
}

func cloneNode(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if c, ok := seen[n]; ok {
		return c
	}
	c := &yaml.Node{}
	*c = *n
	seen[n] = c
	c.Alias = cloneNode(n.Alias, seen)
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child, seen)
		}
	}
	return c
}

// resolve follows an alias node to its anchor target.
func resolve(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

// render gives a canonical textual form used for value comparison.
func render(n *yaml.Node) string {
	n = resolve(n)
	if n == nil {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		return n.Tag + ":" + n.Value
	}
	data, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Sprintf("%#v", n)
	}
	return string(data)
}

func containsNode(seq *yaml.Node, item *yaml.Node) bool {
	want := render(item)
	for _, existing := range seq.Content {
		if render(existing) == want {
			return true
		}
	}
	return false
}

// Equal reports semantic equality of two node trees, ignoring formatting
// details such as style, comments and source position.
func Equal(a, b *yaml.Node) bool {
	a, b = resolve(a), resolve(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Tag != b.Tag || a.Value != b.Value {
		return false
	}
	if len(a.Content) != len(b.Content) {
		return false
	}
	for i := range a.Content {
		if !Equal(a.Content[i], b.Content[i]) {
			return false
		}
	}
	return true
}
