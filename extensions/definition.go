package extensions

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/snapforge/internal/document"
)

// Definition describes an extension authored as a YAML file rather than
// compiled in. The snippet mappings use the engine's merge rules directly:
// sequence-valued fields are unioned into the target, everything else is a
// default that an explicit user value overrides.
type Definition struct {
	Name        string    `yaml:"name"`
	Summary     string    `yaml:"summary,omitempty"`
	Bases       []string  `yaml:"bases,omitempty"`
	Confinement []string  `yaml:"confinement,omitempty"`
	AppSnippet  yaml.Node `yaml:"app-snippet,omitempty"`
	Parts       yaml.Node `yaml:"parts,omitempty"`
	RootSnippet yaml.Node `yaml:"root-snippet,omitempty"`
}

// Normalized returns a trimmed copy of the definition.
func (def Definition) Normalized() Definition {
	clone := def
	clone.Name = strings.TrimSpace(def.Name)
	clone.Summary = strings.TrimSpace(def.Summary)
	clone.Bases = trimmedList(def.Bases)
	clone.Confinement = trimmedList(def.Confinement)
	return clone
}

// Validate ensures the definition is well-formed.
func (def Definition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("extensions: definition name is required")
	}
	for field, node := range map[string]yaml.Node{
		"app-snippet":  def.AppSnippet,
		"parts":        def.Parts,
		"root-snippet": def.RootSnippet,
	} {
		if node.Kind != 0 && node.Kind != yaml.MappingNode {
			return fmt.Errorf("extensions: definition %s: %s must be a mapping", normalized.Name, field)
		}
	}
	if def.AppSnippet.Kind == 0 && def.Parts.Kind == 0 && def.RootSnippet.Kind == 0 {
		return fmt.Errorf("extensions: definition %s contributes nothing", normalized.Name)
	}
	return nil
}

// Extension adapts the definition to the capability contract.
func (def Definition) Extension() Extension {
	return &defined{def: def.Normalized()}
}

// defined is a declarative extension backed by its parsed definition.
type defined struct {
	def Definition
}

func (e *defined) Name() string { return e.def.Name }

func (e *defined) IsApplicable(doc *document.Document) error {
	if len(e.def.Bases) > 0 {
		base, _ := doc.StringAt("base")
		if !contains(e.def.Bases, base) {
			return fmt.Errorf("%w: %s supports bases %v, project has %q", ErrIncompatible, e.def.Name, e.def.Bases, base)
		}
	}
	if len(e.def.Confinement) > 0 {
		confinement, _ := doc.StringAt("confinement")
		if !contains(e.def.Confinement, confinement) {
			return fmt.Errorf("%w: %s supports confinement %v, project has %q", ErrIncompatible, e.def.Name, e.def.Confinement, confinement)
		}
	}
	return nil
}

func (e *defined) AppSnippet(string) Patch {
	return patchFromMapping(&e.def.AppSnippet)
}

func (e *defined) PartSnippet() map[string]*yaml.Node {
	parts := document.AsMap(&e.def.Parts)
	if parts.Len() == 0 {
		return nil
	}
	snippet := make(map[string]*yaml.Node, parts.Len())
	for _, name := range parts.Keys() {
		value, _ := parts.Get(name)
		snippet[e.def.Name+"/"+name] = value
	}
	return snippet
}

func (e *defined) RootSnippet() Patch {
	return patchFromMapping(&e.def.RootSnippet)
}

// patchFromMapping derives the merge op per field from its value kind.
func patchFromMapping(n *yaml.Node) Patch {
	m := document.AsMap(n)
	if m.Len() == 0 {
		return nil
	}
	patch := make(Patch, 0, m.Len())
	for _, key := range m.Keys() {
		value, _ := m.Get(key)
		if value.Kind == yaml.SequenceNode {
			patch = append(patch, Field{Key: key, Op: OpAppendUnique, Value: value})
		} else {
			patch = append(patch, Field{Key: key, Op: OpDefault, Value: value})
		}
	}
	return patch
}

func trimmedList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
