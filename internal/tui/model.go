// Package tui is the terminal front end of a collaborative list: a form
// built from the collection schema above the live, newest-first list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"collablist/pkg/listsync"
	"collablist/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of listsync.Controller the screen drives.
type Controller interface {
	Start(ctx context.Context) error
	Submit(ctx context.Context, fields store.Fields) (store.Entry, error)
	Select(entryID string) bool
	State() listsync.State
}

// StateMsg carries a controller state change into the event loop.
type StateMsg listsync.State

type startedMsg struct{ err error }

type submittedMsg struct {
	entry store.Entry
	err   error
}

type selectedMsg struct{}

// Model is the bubbletea model of the list screen. Focus indexes the form
// inputs; focus == len(inputs) means the list has focus.
type Model struct {
	ctx  context.Context
	ctrl Controller

	state   listsync.State
	inputs  []textinput.Model
	specs   []store.FieldSpec
	focus   int
	cursor  int
	width   int
	spinner spinner.Model
	help    help.Model
	keys    KeyMap
}

func New(ctx context.Context, ctrl Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		state:   ctrl.State(),
		spinner: sp,
		help:    help.New(),
		keys:    DefaultKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.cmdStart())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.applyState(listsync.State(msg))
		return m, nil

	case startedMsg:
		// Failures already reached the status line through StateMsg.
		return m, nil

	case submittedMsg:
		if msg.err == nil {
			for i := range m.inputs {
				m.inputs[i].Reset()
			}
			m.setFocus(0)
		}
		return m, nil

	case selectedMsg:
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextField):
			m.setFocus((m.focus + 1) % (len(m.inputs) + 1))
			return m, nil

		case key.Matches(msg, m.keys.PrevField):
			m.setFocus((m.focus - 1 + len(m.inputs) + 1) % (len(m.inputs) + 1))
			return m, nil

		case key.Matches(msg, m.keys.Submit):
			if m.listFocused() {
				return m, m.cmdSelect()
			}
			if !m.state.WriteEnabled {
				return m, nil
			}
			return m, m.cmdSubmit()

		case m.listFocused() && key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case m.listFocused() && key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.state.View.Rows)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	if m.listFocused() {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) applyState(s listsync.State) {
	m.state = s
	if len(m.inputs) == 0 && len(s.Schema.Fields) > 0 {
		m.buildInputs(s.Schema)
	}
	if m.cursor >= len(s.View.Rows) {
		m.cursor = max(len(s.View.Rows)-1, 0)
	}
}

func (m *Model) buildInputs(schema store.Schema) {
	m.specs = schema.Fields
	m.inputs = make([]textinput.Model, len(schema.Fields))
	for i, spec := range schema.Fields {
		in := textinput.New()
		in.Placeholder = spec.Placeholder
		in.CharLimit = 120
		in.Width = 40
		m.inputs[i] = in
	}
	m.setFocus(0)
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m Model) listFocused() bool {
	return m.focus >= len(m.inputs)
}

// Fields collects the raw input values; trimming and checks are left to
// the controller.
func (m Model) Fields() store.Fields {
	fields := make(store.Fields, len(m.inputs))
	for i, spec := range m.specs {
		fields[spec.Name] = m.inputs[i].Value()
	}
	return fields
}

func (m Model) cmdStart() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return startedMsg{err: ctrl.Start(ctx)}
	}
}

func (m Model) cmdSubmit() tea.Cmd {
	ctx, ctrl, fields := m.ctx, m.ctrl, m.Fields()
	return func() tea.Msg {
		entry, err := ctrl.Submit(ctx, fields)
		return submittedMsg{entry: entry, err: err}
	}
}

func (m Model) cmdSelect() tea.Cmd {
	if len(m.state.View.Rows) == 0 {
		return nil
	}
	ctrl, id := m.ctrl, m.state.View.Rows[m.cursor].ID
	return func() tea.Msg {
		ctrl.Select(id)
		return selectedMsg{}
	}
}

func (m Model) View() string {
	var b strings.Builder

	heading := m.state.Schema.Heading
	if heading == "" {
		heading = "Collaborative List"
	}
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("\n")
	if m.state.UserID != "" {
		b.WriteString(userStyle.Render("User ID: " + listsync.TruncateID(m.state.UserID, m.state.Schema.AuthorPrefix)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, spec := range m.specs {
		b.WriteString(labelStyle.Render(spec.Label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if len(m.specs) > 0 {
		b.WriteString("\n")
		b.WriteString(m.submitButton())
		b.WriteString("\n")
	}

	if m.state.Status.Text != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle(m.state.Status.Kind).Render(m.state.Status.Text))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) submitButton() string {
	label := m.state.Schema.SubmitLabel
	if m.state.Busy {
		return disabledBtn.Render("Adding...")
	}
	if !m.state.WriteEnabled {
		return disabledBtn.Render(label)
	}
	return buttonStyle.Render(label)
}

func (m Model) listView() string {
	switch {
	case m.state.Loading:
		return m.spinner.View() + " Loading..."
	case m.state.View.Empty:
		return emptyStyle.Render(m.state.View.EmptyText)
	}

	rows := make([]string, 0, len(m.state.View.Rows))
	for i, r := range m.state.View.Rows {
		detail := r.Detail
		if r.DetailLabel != "" {
			detail = fmt.Sprintf("%s: %s", r.DetailLabel, r.Detail)
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(r.Title),
			detailStyle.Render(detail),
			authorStyle.Render("Added by: "+r.AddedBy),
		)
		style := rowStyle
		if m.listFocused() && i == m.cursor {
			style = selectedRow
		}
		rows = append(rows, style.Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
