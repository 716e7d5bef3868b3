// Package metadata harvests project metadata from build output. A part may
// declare parse-info sources; once its build step completes, the extractor
// reads them and the tracker merges the values into the project's final
// metadata without ever overriding what the user declared explicitly.
package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/snapforge/internal/document"
	"github.com/kingrea/snapforge/internal/project"
)

// ErrMultipleAdopters reports an ambiguous configuration where more than one
// part declares metadata sources.
var ErrMultipleAdopters = errors.New("metadata: multiple adopting parts")

// Field names a harvestable metadata field.
const (
	FieldVersion     = "version"
	FieldSummary     = "summary"
	FieldDescription = "description"
)

// fieldOrder fixes the order fields are written back to the document.
var fieldOrder = []string{FieldVersion, FieldSummary, FieldDescription}

// FieldSet is a flat set of extracted values; an empty string means the
// source did not provide the field.
type FieldSet struct {
	Version     string
	Summary     string
	Description string
}

func (fs FieldSet) value(field string) string {
	switch field {
	case FieldVersion:
		return fs.Version
	case FieldSummary:
		return fs.Summary
	case FieldDescription:
		return fs.Description
	}
	return ""
}

type fieldState struct {
	// frozen marks a field the user declared explicitly; harvested values
	// for it are discarded without error.
	frozen    bool
	harvested bool
	value     string
}

// Tracker records which part adopts metadata, which source paths are still
// pending, and the per-field harvest state.
type Tracker struct {
	pending map[string][]string
	fields  map[string]*fieldState
}

// NewTracker scans the validated project for parse-info declarations. At
// most one part may adopt; two or more fail with ErrMultipleAdopters rather
// than guessing a precedence.
func NewTracker(p *project.Project) (*Tracker, error) {
	t := &Tracker{
		pending: map[string][]string{},
		fields: map[string]*fieldState{
			FieldVersion:     {frozen: p.Version != ""},
			FieldSummary:     {frozen: p.Summary != ""},
			FieldDescription: {frozen: p.Description != ""},
		},
	}
	var adopters []string
	for _, part := range p.Parts {
		if len(part.ParseInfo) == 0 {
			continue
		}
		adopters = append(adopters, part.Name)
		t.pending[part.Name] = append([]string(nil), part.ParseInfo...)
	}
	if len(adopters) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrMultipleAdopters, strings.Join(adopters, ", "))
	}
	return t, nil
}

// Pending returns the source paths declared by part that have not been
// consumed yet.
func (t *Tracker) Pending(part string) []string {
	return t.pending[part]
}

// Consume marks a part's sources as processed so a repeated checkpoint call
// does not redo the extraction.
func (t *Tracker) Consume(part string) {
	delete(t.pending, part)
}

// Commit merges extracted values. Frozen fields discard their value
// silently; otherwise the first harvest wins and later ones are ignored.
func (t *Tracker) Commit(fs FieldSet) {
	for _, field := range fieldOrder {
		value := fs.value(field)
		if value == "" {
			continue
		}
		state := t.fields[field]
		if state.frozen || state.harvested {
			continue
		}
		state.harvested = true
		state.value = value
	}
}

// Harvested returns the committed values by field name.
func (t *Tracker) Harvested() map[string]string {
	out := map[string]string{}
	for field, state := range t.fields {
		if state.harvested {
			out[field] = state.value
		}
	}
	return out
}

// Apply writes the harvested values into the document. Frozen fields were
// never harvested, so this only ever fills gaps the user left open.
func (t *Tracker) Apply(doc *document.Document) {
	for _, field := range fieldOrder {
		if state := t.fields[field]; state.harvested {
			doc.Set(field, document.Scalar(state.value))
		}
	}
}
