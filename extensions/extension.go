// Package extensions resolves and applies named, reusable project fragments.
//
// An app entry in the project description may reference extensions by name.
// Before schema validation runs, the expansion engine splices each referenced
// extension's contributions into the document: new parts under synthesized
// names, app-level patches, and top-level defaults. The `extensions` field is
// consumed in the process; it must never survive into the validated model.
package extensions

import (
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/snapforge/internal/document"
)

var (
	// ErrUnknownExtension reports a reference to a name missing from the registry.
	ErrUnknownExtension = errors.New("extensions: unknown extension")
	// ErrIncompatible reports an extension refusing to apply to the project,
	// typically a base or confinement mismatch.
	ErrIncompatible = errors.New("extensions: extension not applicable")
	// ErrConflict reports a contributed part colliding with a user-declared one.
	ErrConflict = errors.New("extensions: part name conflict")
)

// Extension is one reusable fragment of project configuration.
type Extension interface {
	// Name is the identifier apps reference.
	Name() string
	// IsApplicable checks the project for compatibility. It returns nil or an
	// error wrapping ErrIncompatible; an extension never silently no-ops.
	IsApplicable(doc *document.Document) error
	// AppSnippet returns the patch applied to each referencing app.
	AppSnippet(appName string) Patch
	// PartSnippet returns contributed part fragments keyed by their
	// synthesized "<extension>/<part>" names.
	PartSnippet() map[string]*yaml.Node
	// RootSnippet returns the patch applied to the document's top level.
	RootSnippet() Patch
}

// Op selects the merge rule for one patched field.
type Op int

const (
	// OpDefault sets the field only when absent; an explicit user value wins.
	OpDefault Op = iota
	// OpAppendUnique unions the field's sequence with the contributed items,
	// preserving first-occurrence order.
	OpAppendUnique
)

// Field is one tagged entry of a patch.
type Field struct {
	Key   string
	Op    Op
	Value *yaml.Node
}

// Patch is an ordered list of field merges contributed by an extension.
type Patch []Field

// Default builds a set-if-absent field entry.
func Default(key string, value *yaml.Node) Field {
	return Field{Key: key, Op: OpDefault, Value: value}
}

// AppendUnique builds an order-preserving sequence-union field entry.
func AppendUnique(key string, items ...*yaml.Node) Field {
	return Field{Key: key, Op: OpAppendUnique, Value: document.Sequence(items...)}
}

// apply merges the patch into target. Contributed nodes are cloned so one
// patch can be applied to several apps without aliasing.
func (p Patch) apply(target *document.Map) {
	for _, f := range p {
		switch f.Op {
		case OpAppendUnique:
			items := make([]*yaml.Node, 0, len(f.Value.Content))
			for _, item := range f.Value.Content {
				items = append(items, document.CloneNode(item))
			}
			target.AppendUnique(f.Key, items...)
		default:
			target.SetIfAbsent(f.Key, document.CloneNode(f.Value))
		}
	}
}
