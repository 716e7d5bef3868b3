// Package project is the typed, validated view of an expanded document.
// Parsing happens only after extension expansion; the raw document stays the
// source of truth for marshaling so unknown fields survive untouched.
package project

import (
	"errors"
	"fmt"

	"github.com/kingrea/snapforge/internal/document"
)

// ErrMissingField reports a required metadata field still absent when the
// finalized model is handed to packaging.
var ErrMissingField = errors.New("project: missing required field")

var (
	validConfinement = []string{"strict", "classic", "devmode"}
	validGrade       = []string{"stable", "devel"}
)

// Project is the validated model of a project description.
type Project struct {
	Name        string
	Version     string
	Summary     string
	Description string
	Base        string
	BuildBase   string
	Confinement string
	Grade       string
	AdoptInfo   string
	Parts       []Part
	Apps        []App
}

// Part is one build unit of the project.
type Part struct {
	Name   string
	Plugin string
	Source string
	// ParseInfo lists relative paths (or glob patterns) under the part's
	// install directory holding harvestable metadata.
	ParseInfo []string
}

// App is one runnable entry of the project.
type App struct {
	Name    string
	Command string
	Plugs   []string
}

// Parse decodes and validates the expanded document.
func Parse(doc *document.Document) (*Project, error) {
	p := &Project{}
	p.Name, _ = doc.StringAt("name")
	p.Version, _ = doc.StringAt("version")
	p.Summary, _ = doc.StringAt("summary")
	p.Description, _ = doc.StringAt("description")
	p.Base, _ = doc.StringAt("base")
	p.BuildBase, _ = doc.StringAt("build-base")
	p.Confinement, _ = doc.StringAt("confinement")
	p.Grade, _ = doc.StringAt("grade")
	p.AdoptInfo, _ = doc.StringAt("adopt-info")

	if parts := doc.Mapping("parts"); parts != nil {
		for _, name := range parts.Keys() {
			spec := parts.Mapping(name)
			if spec == nil {
				return nil, fmt.Errorf("project: part %q is not a mapping", name)
			}
			part := Part{Name: name, ParseInfo: spec.StringsAt("parse-info")}
			part.Plugin, _ = spec.StringAt("plugin")
			part.Source, _ = spec.StringAt("source")
			p.Parts = append(p.Parts, part)
		}
	}

	if apps := doc.Mapping("apps"); apps != nil {
		for _, name := range apps.Keys() {
			spec := apps.Mapping(name)
			if spec == nil {
				return nil, fmt.Errorf("project: app %q is not a mapping", name)
			}
			if spec.Has("extensions") {
				// Expansion consumes this field; seeing it here means the
				// document bypassed the engine.
				return nil, fmt.Errorf("project: app %q still declares extensions; document was not expanded", name)
			}
			app := App{Name: name, Plugs: spec.StringsAt("plugs")}
			app.Command, _ = spec.StringAt("command")
			p.Apps = append(p.Apps, app)
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) validate() error {
	if p.Name == "" {
		return fmt.Errorf("project: name is required")
	}
	if p.Confinement != "" && !oneOf(p.Confinement, validConfinement) {
		return fmt.Errorf("project: confinement must be one of %v, got %q", validConfinement, p.Confinement)
	}
	if p.Grade != "" && !oneOf(p.Grade, validGrade) {
		return fmt.Errorf("project: grade must be one of %v, got %q", validGrade, p.Grade)
	}
	if p.AdoptInfo != "" && p.partNamed(p.AdoptInfo) == nil {
		return fmt.Errorf("project: adopt-info names unknown part %q", p.AdoptInfo)
	}
	if !p.adopting() {
		// Without a metadata source the declared fields must carry the
		// project's identity from the start.
		for field, value := range map[string]string{
			"version":     p.Version,
			"summary":     p.Summary,
			"description": p.Description,
		} {
			if value == "" {
				return fmt.Errorf("project: %s is required when no part adopts build metadata", field)
			}
		}
	}
	return nil
}

// FinalValidate is the downstream packaging check: every metadata field must
// be populated once adoption has had its chance.
func (p *Project) FinalValidate() error {
	for field, value := range map[string]string{
		"version":     p.Version,
		"summary":     p.Summary,
		"description": p.Description,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

// adopting reports whether any part declares a metadata source.
func (p *Project) adopting() bool {
	if p.AdoptInfo != "" {
		return true
	}
	for _, part := range p.Parts {
		if len(part.ParseInfo) > 0 {
			return true
		}
	}
	return false
}

func (p *Project) partNamed(name string) *Part {
	for i := range p.Parts {
		if p.Parts[i].Name == name {
			return &p.Parts[i]
		}
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, item := range allowed {
		if value == item {
			return true
		}
	}
	return false
}
