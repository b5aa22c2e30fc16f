package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"collablist/pkg/listsync"
	"collablist/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	state     listsync.State
	started   bool
	submitted []store.Fields
	submitErr error
	selected  []string
}

func (f *fakeController) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeController) Submit(_ context.Context, fields store.Fields) (store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, fields)
	return store.Entry{ID: "new"}, f.submitErr
}

func (f *fakeController) Select(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, id)
	return true
}

func (f *fakeController) State() listsync.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func connectedState() listsync.State {
	snap := store.Snapshot{
		{ID: "a", Fields: store.Fields{"movie": "Inception", "song": "Time"}, AddedBy: "user-0123456789", CreatedAt: time.Unix(100, 0)},
		{ID: "b", Fields: store.Fields{"movie": "Up", "song": "Married Life"}, AddedBy: "user-9876543210", CreatedAt: time.Unix(200, 0)},
	}
	return listsync.State{
		UserID:       "user-0123456789",
		Schema:       store.JukeboxSchema,
		View:         listsync.Render(store.JukeboxSchema, snap),
		Status:       listsync.Status{Text: listsync.StatusConnected, Kind: listsync.StatusSuccess},
		WriteEnabled: true,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestInitStartsController(t *testing.T) {
	ctrl := &fakeController{state: listsync.State{Loading: true}}
	m := New(context.Background(), ctrl)

	cmd := m.cmdStart()
	msg := cmd()
	assert.Equal(t, startedMsg{}, msg)
	assert.True(t, ctrl.started)
	assert.NotNil(t, m.Init())
}

func TestStateBuildsFormFromSchema(t *testing.T) {
	m := New(context.Background(), &fakeController{state: listsync.State{Loading: true}})
	assert.Contains(t, m.View(), "Loading...")

	m, _ = update(t, m, StateMsg(connectedState()))
	require.Len(t, m.inputs, 2)
	assert.Equal(t, 0, m.focus)

	view := m.View()
	assert.Contains(t, view, "Collaborative Movie Jukebox")
	assert.Contains(t, view, "User ID: user-01234...")
	assert.Contains(t, view, "Add Movie/Song")
	assert.Contains(t, view, listsync.StatusConnected)
	assert.Less(t, strings.Index(view, "Married Life"), strings.Index(view, "Iconic Song: Time"), "newest first")
}

func TestEmptyState(t *testing.T) {
	state := connectedState()
	state.View = listsync.Render(store.JukeboxSchema, store.Snapshot{})

	m := New(context.Background(), &fakeController{})
	m, _ = update(t, m, StateMsg(state))
	assert.Contains(t, m.View(), store.JukeboxSchema.EmptyText)
}

func TestSubmitSendsInputValues(t *testing.T) {
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl)
	m, _ = update(t, m, StateMsg(connectedState()))

	m = typeText(t, m, "Heat")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "Force Marker")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	require.Len(t, ctrl.submitted, 1)
	assert.Equal(t, store.Fields{"movie": "Heat", "song": "Force Marker"}, ctrl.submitted[0])

	m, _ = update(t, m, msg)
	assert.Empty(t, m.inputs[0].Value(), "inputs are cleared after a successful add")
	assert.Empty(t, m.inputs[1].Value())
	assert.Equal(t, 0, m.focus)
}

func TestFailedSubmitKeepsInput(t *testing.T) {
	ctrl := &fakeController{submitErr: errors.New("boom")}
	m := New(context.Background(), ctrl)
	m, _ = update(t, m, StateMsg(connectedState()))
	m = typeText(t, m, "Heat")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())
	assert.Equal(t, "Heat", m.inputs[0].Value())
}

func TestSubmitIgnoredWhileDisabled(t *testing.T) {
	state := connectedState()
	state.WriteEnabled = false
	state.Busy = true

	m := New(context.Background(), &fakeController{})
	m, _ = update(t, m, StateMsg(state))
	assert.Contains(t, m.View(), "Adding...")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestListNavigationAndSelect(t *testing.T) {
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl)
	m, _ = update(t, m, StateMsg(connectedState()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.True(t, m.listFocused())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"a"}, ctrl.selected)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestCursorClampedWhenListShrinks(t *testing.T) {
	m := New(context.Background(), &fakeController{})
	m, _ = update(t, m, StateMsg(connectedState()))
	m.cursor = 1

	state := connectedState()
	state.View = listsync.Render(store.JukeboxSchema, store.Snapshot{})
	m, _ = update(t, m, StateMsg(state))
	assert.Equal(t, 0, m.cursor)
}

func TestQuitKey(t *testing.T) {
	m := New(context.Background(), &fakeController{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
