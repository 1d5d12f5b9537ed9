package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/replayed/internal/formatter"
	"github.com/desertthunder/replayed/internal/stats"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TableListView ViewState = iota
	TableDetailView
)

// SummaryLoader produces the summary the browser displays.
//
// Called once from Init so the caller decides where the data comes from
// (a combined history file, a fresh pipeline run, a fixture in tests).
type SummaryLoader func() (*stats.Summary, error)

type summaryLoadedMsg struct {
	summary *stats.Summary
	err     error
}

// Model represents the TUI application state.
type Model struct {
	view      ViewState
	load      SummaryLoader
	summary   *stats.Summary
	width     int
	height    int
	tableList list.Model
	rowList   list.Model
	selected  string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided summary loader.
func NewModel(load SummaryLoader) *Model {
	return &Model{
		view:      TableListView,
		load:      load,
		tableList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		rowList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the summary data.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.load()
		return summaryLoadedMsg{summary: summary, err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tableList.SetSize(msg.Width-4, msg.Height-8)
		m.rowList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TableListView:
			return m.handleTableListKeys(msg)
		case TableDetailView:
			return m.handleDetailKeys(msg)
		}

	case summaryLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.summary = msg.summary
		items := make([]list.Item, 0, len(formatter.TableNames))
		for _, name := range formatter.TableNames {
			_, rows, err := formatter.TableRecords(name, m.summary)
			if err != nil {
				continue
			}
			items = append(items, tableItem{name: name, rows: len(rows)})
		}
		m.tableList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.tableList.Title = "Listening Summary"
		m.tableList.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TableListView:
		return m.renderTableList()
	case TableDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleTableListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.tableList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(tableItem); ok {
				m.openTable(item.name)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tableList, cmd = m.tableList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TableListView
		return m, nil
	}

	var cmd tea.Cmd
	m.rowList, cmd = m.rowList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TableListView:
		m.tableList, cmd = m.tableList.Update(msg)
	case TableDetailView:
		m.rowList, cmd = m.rowList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openTable(name string) {
	headers, rows, err := formatter.TableRecords(name, m.summary)
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = rowItem{headers: headers, cells: row}
	}
	m.rowList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.rowList.Title = displayName(name)
	m.rowList.SetSize(m.width-4, m.height-8)
	m.selected = name
	m.view = TableDetailView
}

func (m *Model) renderTableList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.tableList.View(), helpView)
}

func (m *Model) renderDetail() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.rowList.View(), helpView)
}
