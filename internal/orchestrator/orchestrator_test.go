package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/snapforge/extensions"
	"github.com/kingrea/snapforge/internal/document"
	"github.com/kingrea/snapforge/internal/metadata"
	"github.com/kingrea/snapforge/internal/project"
)

const parseInfoProject = `name: parse-info-project
base: core24
build-base: devel

grade: devel
confinement: strict
adopt-info: parse-info-part

parts:
  parse-info-part:
    plugin: nil
    source: .
    parse-info: [usr/share/metainfo/app.metainfo.xml]
`

const metainfoContents = `<?xml version="1.0" encoding="UTF-8"?>
<component type="desktop-application">
  <id>io.snapforge.appstream</id>
  <name>Sample app</name>
  <summary>Sample summary</summary>
  <description><p>Sample description</p></description>
  <releases>
    <release version="1.2.3" date="2020-01-01"/>
  </releases>
</component>
`

const fakeExtensionDefinition = `name: fake-extension
bases: [core24]
app-snippet:
  plugs: [fake-plug]
parts:
  fake-part:
    plugin: nil
`

func mustLoad(t *testing.T, text string) *document.Document {
	t.Helper()
	doc, err := document.Load([]byte(text))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func registryWithFakeExtension(t *testing.T) *extensions.Registry {
	t.Helper()
	def, err := extensions.ParseDefinitionYAML([]byte(fakeExtensionDefinition))
	if err != nil {
		t.Fatalf("parse definition: %v", err)
	}
	reg := extensions.NewRegistry()
	reg.MustRegister(def.Extension())
	return reg
}

func writeInstallTree(t *testing.T, relPath, contents string) string {
	t.Helper()
	installDir := t.TempDir()
	full := filepath.Join(installDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return installDir
}

func TestOnProjectLoadedExpandsExtensions(t *testing.T) {
	doc := mustLoad(t, `name: sample
version: "1.0"
summary: sample
description: sample
base: core24
confinement: strict
apps:
  app1:
    command: app1
    extensions: [fake-extension]
`)
	o := New(registryWithFakeExtension(t))
	proj, err := o.OnProjectLoaded(doc)
	if err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}
	if len(proj.Parts) != 1 || proj.Parts[0].Name != "fake-extension/fake-part" {
		t.Fatalf("expected contributed part, got %+v", proj.Parts)
	}
	if plugs := proj.Apps[0].Plugs; len(plugs) != 1 || plugs[0] != "fake-plug" {
		t.Fatalf("expected [fake-plug], got %v", plugs)
	}
	if o.Document().Mapping("apps").Mapping("app1").Has("extensions") {
		t.Fatalf("extensions field survived into the expanded document")
	}
}

func TestOnProjectLoadedTwice(t *testing.T) {
	o := New(extensions.NewRegistry())
	doc := mustLoad(t, "name: s\nversion: \"1\"\nsummary: s\ndescription: d\n")
	if _, err := o.OnProjectLoaded(doc); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := o.OnProjectLoaded(doc); err == nil {
		t.Fatalf("expected second load to fail")
	}
}

func TestParseInfoIntegrated(t *testing.T) {
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(mustLoad(t, parseInfoProject)); err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}

	installDir := writeInstallTree(t, "usr/share/metainfo/app.metainfo.xml", metainfoContents)
	if err := o.OnPartBuildComplete("parse-info-part", installDir); err != nil {
		t.Fatalf("OnPartBuildComplete: %v", err)
	}

	proj, out, err := o.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if proj.Summary != "Sample summary" {
		t.Fatalf("summary: got %q", proj.Summary)
	}
	if proj.Description != "Sample description" {
		t.Fatalf("description: got %q", proj.Description)
	}
	if proj.Version != "1.2.3" {
		t.Fatalf("version: got %q", proj.Version)
	}
	if !strings.Contains(string(out), "version: 1.2.3") {
		t.Fatalf("marshaled output missing adopted version:\n%s", out)
	}
}

func TestParseInfoGlobPattern(t *testing.T) {
	text := strings.Replace(parseInfoProject,
		"parse-info: [usr/share/metainfo/app.metainfo.xml]",
		"parse-info: [usr/share/metainfo/*.metainfo.xml]", 1)
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(mustLoad(t, text)); err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}

	installDir := writeInstallTree(t, "usr/share/metainfo/app.metainfo.xml", metainfoContents)
	if err := o.OnPartBuildComplete("parse-info-part", installDir); err != nil {
		t.Fatalf("OnPartBuildComplete: %v", err)
	}
	proj, _, err := o.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if proj.Version != "1.2.3" {
		t.Fatalf("version: got %q", proj.Version)
	}
}

func TestUserDeclaredVersionStaysFrozen(t *testing.T) {
	text := strings.Replace(parseInfoProject, "adopt-info: parse-info-part",
		"version: \"9.9\"\nadopt-info: parse-info-part", 1)
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(mustLoad(t, text)); err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}

	installDir := writeInstallTree(t, "usr/share/metainfo/app.metainfo.xml", metainfoContents)
	if err := o.OnPartBuildComplete("parse-info-part", installDir); err != nil {
		t.Fatalf("OnPartBuildComplete: %v", err)
	}
	proj, _, err := o.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if proj.Version != "9.9" {
		t.Fatalf("harvest overwrote the declared version: %q", proj.Version)
	}
	if proj.Summary != "Sample summary" {
		t.Fatalf("non-frozen fields should still adopt: %q", proj.Summary)
	}
}

func TestMissingMetadataForfeitsHarvest(t *testing.T) {
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(mustLoad(t, parseInfoProject)); err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}

	// The checkpoint itself must not fail the build for one bad harvest.
	if err := o.OnPartBuildComplete("parse-info-part", t.TempDir()); err != nil {
		t.Fatalf("OnPartBuildComplete: %v", err)
	}

	// The missing fields surface as a packaging validation error instead.
	if _, _, err := o.Finalize(); !errors.Is(err, project.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestCheckpointForUnrelatedPart(t *testing.T) {
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(mustLoad(t, parseInfoProject)); err != nil {
		t.Fatalf("OnProjectLoaded: %v", err)
	}
	if err := o.OnPartBuildComplete("unrelated-part", t.TempDir()); err != nil {
		t.Fatalf("checkpoint for a part without parse-info must be a no-op: %v", err)
	}
}

func TestMultipleAdoptersRejectedAtLoad(t *testing.T) {
	doc := mustLoad(t, `name: sample
base: core24
adopt-info: one
parts:
  one:
    plugin: nil
    parse-info: [a.xml]
  two:
    plugin: nil
    parse-info: [b.xml]
`)
	o := New(extensions.NewRegistry())
	if _, err := o.OnProjectLoaded(doc); !errors.Is(err, metadata.ErrMultipleAdopters) {
		t.Fatalf("expected ErrMultipleAdopters, got %v", err)
	}
}
