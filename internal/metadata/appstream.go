package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrMetadataParse reports a missing, malformed, or unexpected metadata file.
var ErrMetadataParse = errors.New("metadata: parse error")

// component mirrors the appstream metainfo elements we harvest. Summary and
// description repeat once per translation; only the untranslated entry is
// authoritative.
type component struct {
	XMLName      xml.Name
	Summaries    []localizedText  `xml:"summary"`
	Descriptions []localizedInner `xml:"description"`
	Releases     struct {
		Entries []release `xml:"release"`
	} `xml:"releases"`
}

type localizedText struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

type localizedInner struct {
	Lang  string `xml:"lang,attr"`
	Inner string `xml:",innerxml"`
}

type release struct {
	Version string `xml:"version,attr"`
}

// Extract parses an appstream component file and returns the flat field set.
//
// The version comes from the first release entry in document order; release
// lists are newest-first by convention and we deliberately do not re-sort by
// version comparison.
func Extract(path string) (FieldSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return FieldSet{}, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.CharsetReader = charsetReader
	var c component
	if err := dec.Decode(&c); err != nil {
		return FieldSet{}, fmt.Errorf("%w: %s: %v", ErrMetadataParse, path, err)
	}
	if c.XMLName.Local != "component" {
		return FieldSet{}, fmt.Errorf("%w: %s: root element is %q, want component", ErrMetadataParse, path, c.XMLName.Local)
	}

	fs := FieldSet{}
	for _, s := range c.Summaries {
		if s.Lang == "" {
			fs.Summary = strings.TrimSpace(s.Text)
			break
		}
	}
	for _, d := range c.Descriptions {
		if d.Lang == "" {
			text, err := renderDescription(d.Inner)
			if err != nil {
				return FieldSet{}, fmt.Errorf("%w: %s: description: %v", ErrMetadataParse, path, err)
			}
			fs.Description = text
			break
		}
	}
	if len(c.Releases.Entries) > 0 {
		fs.Version = strings.TrimSpace(c.Releases.Entries[0].Version)
	}
	return fs, nil
}

// renderDescription strips the description's markup down to plain text:
// paragraphs joined by blank lines, list items as "- " lines.
func renderDescription(fragment string) (string, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return "", err
	}
	var paragraphs []string
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode:
			if text := collapse(n.Data); text != "" {
				paragraphs = append(paragraphs, text)
			}
		case n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol"):
			var lines []string
			for li := n.FirstChild; li != nil; li = li.NextSibling {
				if li.Type == html.ElementNode && li.Data == "li" {
					if text := collapse(textContent(li)); text != "" {
						lines = append(lines, "- "+text)
					}
				}
			}
			if len(lines) > 0 {
				paragraphs = append(paragraphs, strings.Join(lines, "\n"))
			}
		case n.Type == html.ElementNode:
			if text := collapse(textContent(n)); text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// charsetReader honors the XML declaration's encoding for documents that are
// not UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
