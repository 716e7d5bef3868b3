package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const appstreamSample = `<?xml version="1.0" encoding="UTF-8"?>
<!-- Some Comment -->
<component type="desktop-application">
  <id>io.snapforge.appstream</id>
  <metadata_license>FSFAP</metadata_license>
  <project_license>GPL-2.0+</project_license>
  <name>Sample app</name>
  <summary>Sample summary</summary>

  <description><p>Sample description</p></description>

  <releases>
    <release version="1.2.3" date="2020-01-01">
      <description>
        <p>Initial release.</p>
      </description>
    </release>
  </releases>
</component>
`

func writeMetainfo(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.metainfo.xml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write metainfo: %v", err)
	}
	return path
}

func TestExtract(t *testing.T) {
	fs, err := Extract(writeMetainfo(t, appstreamSample))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fs.Summary != "Sample summary" {
		t.Fatalf("summary: got %q", fs.Summary)
	}
	if fs.Description != "Sample description" {
		t.Fatalf("description: got %q", fs.Description)
	}
	if fs.Version != "1.2.3" {
		t.Fatalf("version: got %q", fs.Version)
	}
}

func TestExtractVersionUsesFirstRelease(t *testing.T) {
	contents := `<component>
  <summary>s</summary>
  <releases>
    <release version="2.0"/>
    <release version="9.9"/>
  </releases>
</component>`
	fs, err := Extract(writeMetainfo(t, contents))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// Declared order decides, not version comparison.
	if fs.Version != "2.0" {
		t.Fatalf("version: got %q", fs.Version)
	}
}

func TestExtractDescriptionMarkup(t *testing.T) {
	contents := `<component>
  <description>
    <p>First   paragraph
    spanning lines.</p>
    <p>Second paragraph.</p>
    <ul>
      <li>one</li>
      <li>two</li>
    </ul>
  </description>
</component>`
	fs, err := Extract(writeMetainfo(t, contents))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "First paragraph spanning lines.\n\nSecond paragraph.\n\n- one\n- two"
	if fs.Description != want {
		t.Fatalf("description:\ngot  %q\nwant %q", fs.Description, want)
	}
}

func TestExtractSkipsTranslations(t *testing.T) {
	contents := `<component>
  <summary xml:lang="de">Beispielzusammenfassung</summary>
  <summary>Sample summary</summary>
  <description xml:lang="de"><p>Beispiel</p></description>
  <description><p>Sample description</p></description>
</component>`
	fs, err := Extract(writeMetainfo(t, contents))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fs.Summary != "Sample summary" {
		t.Fatalf("summary: got %q", fs.Summary)
	}
	if fs.Description != "Sample description" {
		t.Fatalf("description: got %q", fs.Description)
	}
}

func TestExtractErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Extract(filepath.Join(t.TempDir(), "nope.xml"))
		if !errors.Is(err, ErrMetadataParse) {
			t.Fatalf("expected ErrMetadataParse, got %v", err)
		}
	})
	t.Run("malformed xml", func(t *testing.T) {
		_, err := Extract(writeMetainfo(t, "<component><summary>unclosed"))
		if !errors.Is(err, ErrMetadataParse) {
			t.Fatalf("expected ErrMetadataParse, got %v", err)
		}
	})
	t.Run("wrong root element", func(t *testing.T) {
		_, err := Extract(writeMetainfo(t, "<manifest><summary>s</summary></manifest>"))
		if !errors.Is(err, ErrMetadataParse) {
			t.Fatalf("expected ErrMetadataParse, got %v", err)
		}
	})
}

func TestExtractLatin1Charset(t *testing.T) {
	contents := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<component><summary>Caf\xe9 client</summary></component>"
	fs, err := Extract(writeMetainfo(t, contents))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fs.Summary != "Café client" {
		t.Fatalf("summary: got %q", fs.Summary)
	}
}
