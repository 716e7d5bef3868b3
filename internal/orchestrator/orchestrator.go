// Package orchestrator wires the expansion engine and metadata adoption into
// the external build lifecycle. The executor calls OnProjectLoaded once
// before any build step and OnPartBuildComplete after each part's build;
// Finalize seals the document for packaging.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kingrea/snapforge/extensions"
	"github.com/kingrea/snapforge/internal/document"
	"github.com/kingrea/snapforge/internal/logging"
	"github.com/kingrea/snapforge/internal/metadata"
	"github.com/kingrea/snapforge/internal/project"
)

// Orchestrator owns the document through its two mutation phases: extension
// expansion at load time and metadata adoption at build checkpoints. All
// calls are sequential within one invocation; there is no concurrent access.
type Orchestrator struct {
	registry *extensions.Registry
	log      *logging.Logger

	doc       *document.Document
	project   *project.Project
	tracker   *metadata.Tracker
	finalized bool
}

// Option customizes Orchestrator construction.
type Option func(*Orchestrator)

// WithLogger attaches an activity logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New returns an orchestrator resolving extensions from registry.
func New(registry *extensions.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: registry}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnProjectLoaded expands the raw document, validates the result, and
// prepares the metadata tracker. It must be called exactly once.
func (o *Orchestrator) OnProjectLoaded(doc *document.Document) (*project.Project, error) {
	if o.doc != nil {
		return nil, fmt.Errorf("orchestrator: project already loaded")
	}
	expanded, err := extensions.Expand(doc, o.registry)
	if err != nil {
		return nil, err
	}
	proj, err := project.Parse(expanded)
	if err != nil {
		return nil, err
	}
	tracker, err := metadata.NewTracker(proj)
	if err != nil {
		return nil, err
	}
	o.doc, o.project, o.tracker = expanded, proj, tracker
	o.log.Printf("loaded project %s (%d parts, %d apps)", proj.Name, len(proj.Parts), len(proj.Apps))
	return proj, nil
}

// OnPartBuildComplete is the per-part checkpoint. When the part declares
// pending parse-info sources, each entry is resolved as a glob pattern
// against the install directory and extracted. A failed extraction forfeits
// only that harvest; missing required fields surface later in Finalize.
func (o *Orchestrator) OnPartBuildComplete(partName, installDir string) error {
	if o.tracker == nil {
		return fmt.Errorf("orchestrator: no project loaded")
	}
	pending := o.tracker.Pending(partName)
	if len(pending) == 0 {
		return nil
	}
	defer o.tracker.Consume(partName)

	root := os.DirFS(installDir)
	for _, pattern := range pending {
		matches, err := doublestar.Glob(root, pattern)
		if err != nil {
			return fmt.Errorf("orchestrator: part %s: parse-info pattern %q: %w", partName, pattern, err)
		}
		if len(matches) == 0 {
			// A literal path matches itself; fall through to Extract so a
			// missing file is logged as such.
			matches = []string{pattern}
		}
		for _, match := range matches {
			fields, err := metadata.Extract(filepath.Join(installDir, match))
			if err != nil {
				o.log.Printf("part %s: harvest forfeited: %v", partName, err)
				continue
			}
			o.tracker.Commit(fields)
			o.log.Debugf("part %s: harvested %s", partName, match)
		}
	}
	return nil
}

// Finalize commits harvested metadata to the document, runs the packaging
// validation, and returns the immutable model with its marshaled form.
func (o *Orchestrator) Finalize() (*project.Project, []byte, error) {
	if o.doc == nil {
		return nil, nil, fmt.Errorf("orchestrator: no project loaded")
	}
	if o.finalized {
		return nil, nil, fmt.Errorf("orchestrator: already finalized")
	}
	o.tracker.Apply(o.doc)
	proj, err := project.Parse(o.doc)
	if err != nil {
		return nil, nil, err
	}
	if err := proj.FinalValidate(); err != nil {
		return nil, nil, err
	}
	data, err := o.doc.Marshal()
	if err != nil {
		return nil, nil, err
	}
	o.finalized = true
	o.project = proj
	return proj, data, nil
}

// Project returns the current validated model, nil before OnProjectLoaded.
func (o *Orchestrator) Project() *project.Project {
	return o.project
}

// Document returns the expanded document, nil before OnProjectLoaded.
func (o *Orchestrator) Document() *document.Document {
	return o.doc
}
