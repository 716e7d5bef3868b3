package extensions

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/snapforge/internal/document"
)

const (
	appsKey       = "apps"
	partsKey      = "parts"
	extensionsKey = "extensions"
)

// reference records one extension and the apps naming it, both in
// first-appearance order.
type reference struct {
	name string
	apps []string
	ext  Extension
}

// Expand rewrites the document by applying every referenced extension and
// consuming the apps' `extensions` fields.
//
// All merges are staged on a clone and swapped in only when the whole pass
// succeeds; on error the input document is returned untouched. A document
// with no extension references expands to itself, which also makes a second
// invocation on an already-expanded document a safe no-op.
func Expand(doc *document.Document, registry *Registry) (*document.Document, error) {
	refs := collectReferences(doc)
	if len(refs) == 0 {
		if !hasExtensionsField(doc) {
			return doc, nil
		}
		// Empty `extensions: []` lists still have to be consumed.
		staged := doc.Clone()
		stripConsumed(staged)
		return staged, nil
	}

	// Resolve and vet every extension before any mutation so an aborted
	// expansion never leaves a partially applied document behind.
	for i := range refs {
		ext, err := registry.Lookup(refs[i].name)
		if err != nil {
			return doc, fmt.Errorf("app %q: %w", refs[i].apps[0], err)
		}
		if err := ext.IsApplicable(doc); err != nil {
			return doc, fmt.Errorf("extensions: apply %q to app %q: %w", refs[i].name, refs[i].apps[0], err)
		}
		refs[i].ext = ext
	}

	staged := doc.Clone()
	for _, ref := range refs {
		apps := staged.Mapping(appsKey)
		for _, appName := range ref.apps {
			app := apps.Mapping(appName)
			if app == nil {
				return doc, fmt.Errorf("extensions: app %q is not a mapping", appName)
			}
			ref.ext.AppSnippet(appName).apply(app)
		}
		if err := mergeParts(staged, ref); err != nil {
			return doc, err
		}
		ref.ext.RootSnippet().apply(&staged.Map)
	}

	stripConsumed(staged)
	if hasExtensionsField(staged) {
		// A surviving reference past this point would leak the transient
		// field into validation. Fail loudly instead.
		return doc, fmt.Errorf("extensions: internal: unconsumed extensions field after expansion")
	}
	return staged, nil
}

// Expanded reports whether the document carries no extension references.
func Expanded(doc *document.Document) bool {
	return !hasExtensionsField(doc)
}

func hasExtensionsField(doc *document.Document) bool {
	apps := doc.Mapping(appsKey)
	if apps == nil {
		return false
	}
	for _, appName := range apps.Keys() {
		if app := apps.Mapping(appName); app != nil && app.Has(extensionsKey) {
			return true
		}
	}
	return false
}

func collectReferences(doc *document.Document) []reference {
	apps := doc.Mapping(appsKey)
	if apps == nil {
		return nil
	}
	var refs []reference
	index := map[string]int{}
	for _, appName := range apps.Keys() {
		app := apps.Mapping(appName)
		if app == nil {
			continue
		}
		for _, name := range app.StringsAt(extensionsKey) {
			i, seen := index[name]
			if !seen {
				index[name] = len(refs)
				refs = append(refs, reference{name: name, apps: []string{appName}})
				continue
			}
			if !contains(refs[i].apps, appName) {
				refs[i].apps = append(refs[i].apps, appName)
			}
		}
	}
	return refs
}

func mergeParts(staged *document.Document, ref reference) error {
	snippet := ref.ext.PartSnippet()
	if len(snippet) == 0 {
		return nil
	}
	parts := staged.EnsureMapping(partsKey)
	for _, partName := range sortedKeys(snippet) {
		if parts.Has(partName) {
			return fmt.Errorf("%w: extension %q contributes part %q which is already declared", ErrConflict, ref.name, partName)
		}
		parts.Set(partName, document.CloneNode(snippet[partName]))
	}
	return nil
}

func stripConsumed(staged *document.Document) {
	apps := staged.Mapping(appsKey)
	if apps == nil {
		return
	}
	for _, appName := range apps.Keys() {
		if app := apps.Mapping(appName); app != nil {
			app.Delete(extensionsKey)
		}
	}
}

// sortedKeys gives part snippets a deterministic application order; the
// synthesized names carry no ordering of their own.
func sortedKeys(m map[string]*yaml.Node) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
