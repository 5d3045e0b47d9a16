// Package ui renders the task list in the terminal.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/s1natex/tasks-sync-GO/internal/controller"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

type focus int

const (
	focusList focus = iota
	focusAdd
	focusEdit
)

// Model is the Bubble Tea model. All controller access happens in Update,
// on the program goroutine; remote calls run as commands.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	source controller.Source
	mode   string

	cursor   int
	focus    focus
	add      textinput.Model
	edit     textinput.Model
	inFlight int
	styles   styles
	showHelp bool
}

type loadedMsg struct {
	tasks []tasks.Task
	err   error
}

type syncedMsg struct {
	outcome controller.Outcome
}

// New builds a model that loads from source on start. mode is shown in the
// header.
func New(ctx context.Context, ctrl *controller.Controller, source controller.Source, mode string) *Model {
	add := textinput.New()
	add.Placeholder = "Add a new task"
	add.CharLimit = tasks.MaxTitleLen
	add.Width = 40

	edit := textinput.New()
	edit.CharLimit = tasks.MaxTitleLen
	edit.Width = 40

	return &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		source: source,
		mode:   mode,
		add:    add,
		edit:   edit,
		styles: defaultStyles(),
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m *Model) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("ui requires a TTY")
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *Model) loadCmd() tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		list, err := src(ctx)
		return loadedMsg{tasks: list, err: err}
	}
}

// syncCmd runs p off the program goroutine.
func (m *Model) syncCmd(p *controller.Pending) tea.Cmd {
	if p == nil {
		return nil
	}
	m.inFlight++
	ctx := m.ctx
	return func() tea.Msg {
		return syncedMsg{outcome: p.Run(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.ctrl.Loaded(msg.tasks, msg.err)
		m.clampCursor()
		return m, nil

	case syncedMsg:
		m.inFlight--
		m.ctrl.Resolve(msg.outcome)
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.focus {
		case focusEdit:
			return m.updateEdit(msg)
		case focusAdd:
			return m.updateAdd(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.Loading() {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	list := m.ctrl.Tasks()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case " ", "x":
		if t, ok := m.selected(list); ok {
			return m, m.syncCmd(m.ctrl.Toggle(t.ID))
		}
	case "d", "delete":
		if t, ok := m.selected(list); ok {
			cmd := m.syncCmd(m.ctrl.Delete(t.ID))
			m.clampCursor()
			return m, cmd
		}
	case "e":
		if t, ok := m.selected(list); ok && m.ctrl.BeginEdit(t.ID) {
			e, _ := m.ctrl.Editing()
			m.edit.SetValue(e.DraftTitle)
			m.edit.CursorEnd()
			m.focus = focusEdit
			return m, m.edit.Focus()
		}
	case "a", "enter", "tab":
		m.focus = focusAdd
		return m, m.add.Focus()
	case "esc":
		m.ctrl.DismissError()
	case "h", "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		p := m.ctrl.Add(m.add.Value())
		m.add.Reset()
		m.cursor = len(m.ctrl.Tasks()) - 1
		m.clampCursor()
		return m, m.syncCmd(p)
	case tea.KeyEsc, tea.KeyTab:
		m.add.Blur()
		m.focus = focusList
		return m, nil
	}
	var cmd tea.Cmd
	m.add, cmd = m.add.Update(msg)
	return m, cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.ctrl.SetDraft(m.edit.Value())
		p := m.ctrl.CommitEdit()
		m.leaveEdit()
		return m, m.syncCmd(p)
	case tea.KeyEsc:
		m.ctrl.CancelEdit()
		m.leaveEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.ctrl.SetDraft(m.edit.Value())
	return m, cmd
}

func (m *Model) leaveEdit() {
	m.edit.Blur()
	m.edit.Reset()
	m.focus = focusList
}

func (m *Model) selected(list []tasks.Task) (tasks.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(list) {
		return tasks.Task{}, false
	}
	return list[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Tasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	st := m.ctrl.State()

	b.WriteString(m.styles.title.Render("Your Tasks"))
	if m.mode != "" {
		b.WriteString("  " + m.styles.muted.Render("["+m.mode+"]"))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("%d remaining", st.Remaining)))
	if m.inFlight > 0 {
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("  syncing %d…", m.inFlight)))
	}
	b.WriteString("\n\n")

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if st.Phase == controller.Loading {
		b.WriteString(m.styles.muted.Render("  Loading…") + "\n")
	}
	if st.Err != "" && st.Phase != controller.Loading {
		b.WriteString(m.styles.err.Render("  "+st.Err) + "\n")
	}
	if len(st.Tasks) == 0 {
		if st.Phase != controller.Loading {
			b.WriteString(m.styles.muted.Render("  No tasks yet") + "\n")
		}
	} else {
		for i, t := range st.Tasks {
			b.WriteString(m.renderTask(i, t, st.Editing))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.add.View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.muted.Render(footer(m.focus)))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderTask(i int, t tasks.Task, editing *controller.Editing) string {
	pointer := "  "
	if i == m.cursor && m.focus != focusAdd {
		pointer = m.styles.accent.Render("> ")
	}
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	if editing != nil && editing.TaskID == t.ID {
		return pointer + box + " " + m.edit.View()
	}
	title := normalizeTitle(t.Title)
	if t.Completed {
		title = m.styles.done.Render(title)
	}
	return pointer + box + " " + title
}

// normalizeTitle keeps a task on one line.
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func footer(f focus) string {
	switch f {
	case focusAdd:
		return "enter add | esc back to list | ctrl+c quit"
	case focusEdit:
		return "enter save | esc cancel"
	default:
		return "space toggle | e edit | d delete | a add | h help | q quit"
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  ↑/k, ↓/j     Move\n")
	b.WriteString("  space, x     Toggle completed\n")
	b.WriteString("  e            Edit title\n")
	b.WriteString("  d, delete    Delete task\n")
	b.WriteString("  a, enter     Add a task\n")
	b.WriteString("  esc          Dismiss error / leave input\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
