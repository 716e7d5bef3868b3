package document

import "gopkg.in/yaml.v3"

// Map is an ordered view over a yaml mapping node. The zero value is an
// empty, detached mapping; reads on a nil Map are safe and report absence.
type Map struct {
	node *yaml.Node
}

// AsMap wraps a mapping node. It returns nil when the node is not a mapping,
// so callers can chain lookups without kind checks at every step.
func AsMap(n *yaml.Node) *Map {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return &Map{node: n}
}

// Node exposes the underlying mapping node.
func (m *Map) Node() *yaml.Node {
	if m == nil {
		return nil
	}
	return m.node
}

// Len reports the number of keys.
func (m *Map) Len() int {
	if m == nil || m.node == nil {
		return 0
	}
	return len(m.node.Content) / 2
}

// Keys returns the keys in declaration order.
func (m *Map) Keys() []string {
	if m.Len() == 0 {
		return nil
	}
	keys := make([]string, 0, m.Len())
	for i := 0; i < len(m.node.Content); i += 2 {
		keys = append(keys, m.node.Content[i].Value)
	}
	return keys
}

// Get returns the value node for key.
func (m *Map) Get(key string) (*yaml.Node, bool) {
	if m == nil || m.node == nil {
		return nil, false
	}
	for i := 0; i < len(m.node.Content); i += 2 {
		if m.node.Content[i].Value == key {
			return resolve(m.node.Content[i+1]), true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key, replacing any existing entry in place so the
// key keeps its original position.
func (m *Map) Set(key string, value *yaml.Node) {
	for i := 0; i < len(m.node.Content); i += 2 {
		if m.node.Content[i].Value == key {
			m.node.Content[i+1] = value
			return
		}
	}
	m.node.Content = append(m.node.Content, Scalar(key), value)
}

// SetIfAbsent stores value only when key is missing. The user's declared
// value always wins over a contributed default. Reports whether it wrote.
func (m *Map) SetIfAbsent(key string, value *yaml.Node) bool {
	if m.Has(key) {
		return false
	}
	m.node.Content = append(m.node.Content, Scalar(key), value)
	return true
}

// Delete removes key and its value. Reports whether the key existed.
func (m *Map) Delete(key string) bool {
	if m == nil || m.node == nil {
		return false
	}
	for i := 0; i < len(m.node.Content); i += 2 {
		if m.node.Content[i].Value == key {
			m.node.Content = append(m.node.Content[:i], m.node.Content[i+2:]...)
			return true
		}
	}
	return false
}

// AppendUnique treats key as a sequence and appends each item not already
// present, preserving first-occurrence order. The sequence is created when
// missing. Items are compared by canonical rendering, so scalar plugs and
// structured entries both deduplicate.
func (m *Map) AppendUnique(key string, items ...*yaml.Node) {
	seq, ok := m.Get(key)
	if !ok {
		seq = Sequence()
		m.Set(key, seq)
	}
	for _, item := range items {
		if !containsNode(seq, item) {
			seq.Content = append(seq.Content, item)
		}
	}
}

// Mapping returns the nested mapping stored under key, or nil when the key
// is absent or holds a non-mapping value.
func (m *Map) Mapping(key string) *Map {
	n, ok := m.Get(key)
	if !ok {
		return nil
	}
	return AsMap(n)
}

// EnsureMapping returns the nested mapping under key, creating an empty one
// when the key is absent.
func (m *Map) EnsureMapping(key string) *Map {
	if sub := m.Mapping(key); sub != nil {
		return sub
	}
	n := Mapping()
	m.Set(key, n)
	return &Map{node: n}
}

// StringAt returns the scalar string stored under key.
func (m *Map) StringAt(key string) (string, bool) {
	n, ok := m.Get(key)
	if !ok || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// StringsAt returns the scalar items of the sequence stored under key.
// A scalar value is treated as a one-element list.
func (m *Map) StringsAt(key string) []string {
	n, ok := m.Get(key)
	if !ok {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind == yaml.ScalarNode {
				out = append(out, item.Value)
			}
		}
		return out
	}
	return nil
}
