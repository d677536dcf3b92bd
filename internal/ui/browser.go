// Package ui is the interactive vault browser: a filterable prompt list
// with a markdown preview pane and one-key clipboard copy.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/prompt-vault/internal/clipboard"
	"github.com/dpshade/prompt-vault/internal/models"
	"github.com/dpshade/prompt-vault/internal/service"
)

type viewMode int

const (
	viewList viewMode = iota
	viewDetail
)

// promptItem adapts a prompt to the list widget.
type promptItem struct {
	prompt *models.Prompt
}

func (i promptItem) Title() string { return i.prompt.Title }

func (i promptItem) Description() string {
	desc := fmt.Sprintf("v%d · %s", i.prompt.CurrentVersion, i.prompt.ID)
	if len(i.prompt.Tags) > 0 {
		desc += " · " + strings.Join(i.prompt.Tags, ", ")
	}
	return desc
}

func (i promptItem) FilterValue() string {
	return i.prompt.Title + " " + strings.Join(i.prompt.Tags, " ")
}

type keyMap struct {
	Open   key.Binding
	Back   key.Binding
	Copy   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	Reload: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// Model is the browser state.
type Model struct {
	svc  *service.Service
	mode viewMode

	promptList list.Model
	viewport   viewport.Model
	renderer   *glamour.TermRenderer

	selected *models.Prompt

	width  int
	height int

	statusMsg string
	err       error
}

// NewModel builds the browser over an open service.
func NewModel(svc *service.Service) (*Model, error) {
	prompts := svc.Vault().ListPrompts()
	items := make([]list.Item, len(prompts))
	for i, p := range prompts {
		items[i] = promptItem{prompt: p}
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = "prompt vault"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Model{
		svc:        svc,
		mode:       viewList,
		promptList: l,
		viewport:   vp,
		renderer:   r,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// tickMsg clears the transient status line.
type tickMsg time.Time

func clearStatusCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.promptList.SetSize(msg.Width, msg.Height-2)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 3
		return m, nil

	case tickMsg:
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		if m.mode == viewList && m.promptList.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			if m.mode == viewDetail {
				m.mode = viewList
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, keys.Back):
			if m.mode == viewDetail {
				m.mode = viewList
				return m, nil
			}

		case key.Matches(msg, keys.Open):
			if m.mode == viewList {
				if item, ok := m.promptList.SelectedItem().(promptItem); ok {
					return m.openDetail(item.prompt)
				}
			}

		case key.Matches(msg, keys.Copy):
			if p := m.currentPrompt(); p != nil {
				if err := clipboard.Copy(p.Content); err != nil {
					m.statusMsg = fmt.Sprintf("copy failed: %v", err)
				} else {
					m.statusMsg = fmt.Sprintf("copied %q", p.Title)
				}
				return m, clearStatusCmd()
			}

		case key.Matches(msg, keys.Reload):
			if m.mode == viewList {
				m.reloadList()
				m.statusMsg = "reloaded"
				return m, clearStatusCmd()
			}
		}
	}

	var cmd tea.Cmd
	switch m.mode {
	case viewList:
		m.promptList, cmd = m.promptList.Update(msg)
	case viewDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	status := m.statusMsg
	if m.err != nil {
		status = m.err.Error()
	}

	switch m.mode {
	case viewDetail:
		header := titleStyle.Render(m.selected.Title) +
			statusStyle.Render(fmt.Sprintf("v%d · %s", m.selected.CurrentVersion, m.selected.ID))
		footer := statusStyle.Render("c copy · esc back · q quit")
		if status != "" {
			footer = statusStyle.Render(status)
		}
		return header + "\n" + m.viewport.View() + "\n" + footer
	default:
		out := m.promptList.View()
		if status != "" {
			out += "\n" + statusStyle.Render(status)
		}
		return out
	}
}

// openDetail renders the selected prompt into the preview viewport.
func (m Model) openDetail(p *models.Prompt) (tea.Model, tea.Cmd) {
	rendered, err := m.renderer.Render(p.Content)
	if err != nil {
		rendered = p.Content
	}
	m.selected = p
	m.viewport.SetContent(rendered)
	m.viewport.GotoTop()
	m.mode = viewDetail
	return m, nil
}

func (m Model) currentPrompt() *models.Prompt {
	switch m.mode {
	case viewDetail:
		return m.selected
	default:
		if item, ok := m.promptList.SelectedItem().(promptItem); ok {
			return item.prompt
		}
	}
	return nil
}

// reloadList refreshes list items from the vault.
func (m *Model) reloadList() {
	prompts := m.svc.Vault().ListPrompts()
	items := make([]list.Item, len(prompts))
	for i, p := range prompts {
		items[i] = promptItem{prompt: p}
	}
	m.promptList.SetItems(items)
}

// Run starts the browser and blocks until the user quits.
func Run(svc *service.Service) error {
	model, err := NewModel(svc)
	if err != nil {
		return err
	}
	p := tea.NewProgram(*model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
