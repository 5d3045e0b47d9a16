package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1natex/tasks-sync-GO/internal/controller"
	"github.com/s1natex/tasks-sync-GO/internal/store"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
	"github.com/s1natex/tasks-sync-GO/internal/testutil"
)

func newTestModel(t *testing.T, remote *testutil.FakeRemote) *Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := controller.New(controller.Options{
		Policy: controller.AuthoritativeRemote,
		Remote: remote,
		Store:  store.NewTaskStore(store.NewMemoryKV(), logger),
		Logger: logger,
	})
	m := New(context.Background(), ctrl, controller.RemoteSource(remote), "remote")
	load := m.Init()
	require.NotNil(t, load)
	m.Update(load())
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and, when it started a remote call, runs the call and
// feeds the result back.
func press(m *Model, s string) {
	before := m.inFlight
	_, cmd := m.Update(key(s))
	if cmd == nil || m.inFlight == before {
		return
	}
	m.Update(cmd())
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestModel_LoadsAndRenders(t *testing.T) {
	remote := testutil.NewFakeRemote(controller.SampleTasks()...)
	m := newTestModel(t, remote)

	view := m.View()
	assert.Contains(t, view, "Your Tasks")
	assert.Contains(t, view, "2 remaining")
	assert.Contains(t, view, "Learn Go")
	assert.Contains(t, view, "[x]")
}

func TestModel_LoadingView(t *testing.T) {
	ctrl := controller.New(controller.Options{})
	m := New(context.Background(), ctrl, controller.SampleSource(), "")

	assert.Contains(t, m.View(), "Loading…")
	press(m, "a")
	assert.Equal(t, focusList, m.focus)
}

func TestModel_EmptyList(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeRemote())
	assert.Contains(t, m.View(), "No tasks yet")
	assert.Contains(t, m.View(), "0 remaining")
}

func TestModel_AddTask(t *testing.T) {
	remote := testutil.NewFakeRemote()
	m := newTestModel(t, remote)

	press(m, "a")
	require.Equal(t, focusAdd, m.focus)
	typeText(m, "Walk dog")
	press(m, "enter")

	list := m.ctrl.Tasks()
	require.Len(t, list, 1)
	assert.Equal(t, tasks.Task{ID: 1, Title: "Walk dog"}, list[0])
	assert.Equal(t, []string{"list", "create:1"}, remote.Calls())
	assert.Empty(t, m.add.Value())
	assert.Equal(t, 0, m.inFlight)

	press(m, "esc")
	assert.Equal(t, focusList, m.focus)
}

func TestModel_ToggleAndDelete(t *testing.T) {
	remote := testutil.NewFakeRemote(controller.SampleTasks()...)
	m := newTestModel(t, remote)

	press(m, "j")
	press(m, "space")
	assert.True(t, m.ctrl.Tasks()[1].Completed)
	assert.Equal(t, 1, m.ctrl.Remaining())

	press(m, "j")
	press(m, "d")
	assert.Len(t, m.ctrl.Tasks(), 2)
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, []string{"list", "update:2", "delete:3"}, remote.Calls())
}

func TestModel_EditTitle(t *testing.T) {
	remote := testutil.NewFakeRemote(controller.SampleTasks()...)
	m := newTestModel(t, remote)

	press(m, "e")
	require.Equal(t, focusEdit, m.focus)
	e, ok := m.ctrl.Editing()
	require.True(t, ok)
	assert.Equal(t, "Learn Go", e.DraftTitle)

	press(m, "backspace")
	press(m, "backspace")
	typeText(m, "Rust")
	press(m, "enter")

	assert.Equal(t, focusList, m.focus)
	assert.Equal(t, "Learn Rust", m.ctrl.Tasks()[0].Title)
	_, ok = m.ctrl.Editing()
	assert.False(t, ok)
}

func TestModel_EditCancel(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeRemote(controller.SampleTasks()...))

	press(m, "e")
	typeText(m, "!!")
	press(m, "esc")

	assert.Equal(t, "Learn Go", m.ctrl.Tasks()[0].Title)
	assert.Equal(t, focusList, m.focus)
}

func TestModel_FailedSyncShowsErrorAndReverts(t *testing.T) {
	remote := testutil.NewFakeRemote(controller.SampleTasks()...)
	remote.DeleteErr = errors.New("HTTP 500")
	m := newTestModel(t, remote)

	press(m, "d")

	assert.Len(t, m.ctrl.Tasks(), 3)
	assert.Contains(t, m.View(), "Failed to delete task: HTTP 500")

	press(m, "esc")
	assert.NotContains(t, m.View(), "Failed to delete task")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeRemote())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeRemote())

	press(m, "h")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	press(m, "h")
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "a b", normalizeTitle("a\nb"))
	assert.Equal(t, "(untitled)", normalizeTitle("  "))
}
