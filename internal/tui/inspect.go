// Package tui is the interactive inspector for an expanded project. It runs
// after extension expansion, so what the user browses is exactly what
// validation and packaging will see: synthesized parts included, no
// extensions fields left.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/snapforge/internal/document"
	"github.com/kingrea/snapforge/internal/project"
)

type viewState int

const (
	stateBrowse viewState = iota
	stateDetail
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	detailStyle = lipgloss.NewStyle().Padding(1, 2)
	hintStyle   = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// entry is one browsable item: the project header, a part, or an app.
type entry struct {
	kind   string
	name   string
	detail string
}

func (e entry) Title() string       { return e.name }
func (e entry) Description() string { return e.kind }
func (e entry) FilterValue() string { return e.name }

// Model is the inspector's bubbletea model.
type Model struct {
	state  viewState
	list   list.Model
	detail string
	width  int
	height int
}

// NewModel builds the inspector for an expanded document and its validated
// model.
func NewModel(proj *project.Project, doc *document.Document) Model {
	items := buildEntries(proj, doc)
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s (expanded)", proj.Name)
	l.SetShowHelp(true)
	return Model{state: stateBrowse, list: l}
}

func buildEntries(proj *project.Project, doc *document.Document) []list.Item {
	items := []list.Item{
		entry{kind: "project", name: proj.Name, detail: metadataDetail(proj)},
	}
	parts := doc.Mapping("parts")
	for _, name := range parts.Keys() {
		items = append(items, entry{kind: "part", name: name, detail: nodeDetail(parts, name)})
	}
	apps := doc.Mapping("apps")
	for _, name := range apps.Keys() {
		items = append(items, entry{kind: "app", name: name, detail: nodeDetail(apps, name)})
	}
	return items
}

func metadataDetail(proj *project.Project) string {
	var b strings.Builder
	write := func(field, value string) {
		if value == "" {
			value = "(pending adoption)"
		}
		fmt.Fprintf(&b, "%-12s %s\n", field+":", value)
	}
	write("name", proj.Name)
	write("version", proj.Version)
	write("summary", proj.Summary)
	write("base", proj.Base)
	write("confinement", proj.Confinement)
	write("grade", proj.Grade)
	if proj.AdoptInfo != "" {
		write("adopt-info", proj.AdoptInfo)
	}
	return b.String()
}

func nodeDetail(parent *document.Map, key string) string {
	node, ok := parent.Get(key)
	if !ok {
		return ""
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Sprintf("render error: %v", err)
	}
	return string(out)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateBrowse:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "enter":
				if item, ok := m.list.SelectedItem().(entry); ok {
					m.state = stateDetail
					m.detail = item.detail
				}
				return m, nil
			}
		case stateDetail:
			switch msg.String() {
			case "q", "esc", "enter":
				m.state = stateBrowse
				m.detail = ""
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.state == stateDetail {
		title := "detail"
		if item, ok := m.list.SelectedItem().(entry); ok {
			title = fmt.Sprintf("%s %s", item.kind, item.name)
		}
		return titleStyle.Render(title) + "\n" +
			detailStyle.Render(m.detail) + "\n" +
			hintStyle.Render("esc: back • q: back • ctrl+c: quit")
	}
	return m.list.View()
}

// Run starts the inspector in the alternate screen buffer and blocks until
// the user quits.
func Run(proj *project.Project, doc *document.Document) error {
	p := tea.NewProgram(NewModel(proj, doc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
