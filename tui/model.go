// Package tui is a terminal front end for the todo API. It keeps the list in
// sync with the server and edits through a single shared input.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/logging"
	"github.com/prognoshealth/todolambda/todo"
)

// API is the todo service the model talks to. *client.Client implements it.
type API interface {
	List(ctx context.Context) ([]todo.Todo, error)
	Create(ctx context.Context, text string) (todo.Todo, error)
	Update(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}

// Alerts shown when a call to the API fails.
const (
	AlertEmpty  = "Please enter a task!"
	AlertAdd    = "Failed to add todo. Please try again."
	AlertUpdate = "Failed to update todo. Please try again."
	AlertDelete = "Failed to delete todo. Please try again."
)

type mode int

const (
	browsing mode = iota
	adding
	editing
)

type loadedMsg struct {
	todos []todo.Todo
	err   error
}

type createdMsg struct {
	todo todo.Todo
	err  error
}

type updatedMsg struct {
	id  string
	err error
}

type deletedMsg struct {
	id  string
	err error
}

type keyMap struct {
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Quit    key.Binding
	Submit  key.Binding
	Cancel  key.Binding
}

var keys = keyMap{
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// listItem adapts a todo to bubbles/list.Item.
type listItem struct {
	todo.Todo
}

func (i listItem) FilterValue() string { return i.Text }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+it.Text)
}

// Model is the bubbletea model of the todo list.
type Model struct {
	api    API
	ctx    context.Context
	logger *zap.Logger

	list  list.Model
	input textinput.Model

	mode   mode
	editID string
	alert  string
	loaded bool
}

// New returns a model backed by api. Calls are made with ctx.
func New(ctx context.Context, api API, logger *zap.Logger) Model {
	l := list.New(nil, itemDelegate{}, 76, 16)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 400

	return Model{
		api:    api,
		ctx:    ctx,
		logger: logging.OrNop(logger),
		list:   l,
		input:  ti,
	}
}

// Todos returns the todos currently shown, in display order.
func (m Model) Todos() []todo.Todo {
	items := m.list.Items()
	todos := make([]todo.Todo, 0, len(items))
	for _, it := range items {
		if li, ok := it.(listItem); ok {
			todos = append(todos, li.Todo)
		}
	}

	return todos
}

// Alert returns the last alert shown, if any.
func (m Model) Alert() string {
	return m.alert
}

// Init fetches the list.
func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		todos, err := api.List(ctx)
		return loadedMsg{todos: todos, err: err}
	}
}

func (m Model) create(text string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		t, err := api.Create(ctx, text)
		return createdMsg{todo: t, err: err}
	}
}

func (m Model) update(id, text string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		return updatedMsg{id: id, err: api.Update(ctx, id, text)}
	}
}

func (m Model) remove(id string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		return deletedMsg{id: id, err: api.Delete(ctx, id)}
	}
}

func (m *Model) fail(alert string, err error, fields ...zap.Field) {
	m.alert = alert
	m.logger.Error(alert, append(fields, zap.Error(err))...)
}

func (m *Model) resetInput() {
	m.mode = browsing
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = msg.Width - 10
		return m, nil

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.fail("Failed to load todos: "+msg.err.Error(), msg.err)
			return m, nil
		}

		items := make([]list.Item, 0, len(msg.todos))
		for _, t := range msg.todos {
			items = append(items, listItem{t})
		}
		return m, m.list.SetItems(items)

	case createdMsg:
		if msg.err != nil {
			m.fail(AlertAdd, msg.err)
			return m, nil
		}
		return m, m.list.InsertItem(len(m.list.Items()), listItem{msg.todo})

	case updatedMsg:
		if msg.err != nil {
			m.fail(AlertUpdate, msg.err, zap.String("id", msg.id))
		}
		return m, m.fetch()

	case deletedMsg:
		if msg.err != nil {
			m.fail(AlertDelete, msg.err, zap.String("id", msg.id))
			return m, nil
		}
		for i, it := range m.list.Items() {
			if li, ok := it.(listItem); ok && li.ID == msg.id {
				m.list.RemoveItem(i)
				break
			}
		}
		return m, nil

	case tea.KeyMsg:
		m.alert = ""
		if m.mode != browsing {
			return m.updateInput(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	if m.mode != browsing {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.resetInput()
		return m, nil

	case key.Matches(msg, keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.alert = AlertEmpty
			return m, nil
		}

		var cmd tea.Cmd
		if m.mode == editing {
			cmd = m.update(m.editID, text)
		} else {
			cmd = m.create(text)
		}
		m.resetInput()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Add):
		m.mode = adding
		m.input.Placeholder = "New task..."
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, keys.Edit):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = editing
		m.editID = it.ID
		m.input.Placeholder = ""
		m.input.SetValue(it.Text)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, keys.Delete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.remove(it.ID)

	case key.Matches(msg, keys.Refresh):
		return m, m.fetch()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	count := len(m.list.Items())
	lines := []string{
		fmt.Sprintf("%s   %s %d", titleStyle.Render("Todos"), accentStyle.Render("Total"), count),
		"",
	}

	switch {
	case !m.loaded:
		lines = append(lines, mutedStyle.Render("Loading..."))
	case count == 0:
		lines = append(lines, mutedStyle.Render(placeholder))
	default:
		lines = append(lines, m.list.View())
	}

	if m.mode != browsing {
		label := "Add task"
		if m.mode == editing {
			label = "Update task"
		}
		lines = append(lines, inputStyle.Render(label+"\n"+m.input.View()))
	}

	if m.alert != "" {
		lines = append(lines, errorStyle.Render("✖ "+m.alert))
	}

	lines = append(lines, helpStyle.Render(m.help()))

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) help() string {
	var bindings []key.Binding
	switch m.mode {
	case adding, editing:
		bindings = []key.Binding{keys.Submit, keys.Cancel}
	default:
		bindings = []key.Binding{keys.Add, keys.Edit, keys.Delete, keys.Refresh, keys.Quit}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}

	return strings.Join(parts, " • ")
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, api API, logger *zap.Logger) error {
	p := tea.NewProgram(New(ctx, api, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
