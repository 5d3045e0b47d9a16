// Package controller owns the in-memory task list. Every mutation is applied
// locally first, mirrored to the local store, and then handed back to the
// caller as a Pending remote call. The caller runs the call wherever it
// likes and feeds the Outcome back through Resolve on the goroutine that owns
// the controller.
//
// A Controller is not safe for concurrent use. Pending.Run is: it touches
// only the remote service.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/s1natex/tasks-sync-GO/internal/analytics"
	"github.com/s1natex/tasks-sync-GO/internal/remote"
	"github.com/s1natex/tasks-sync-GO/internal/store"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

// RemoteService is the task service the controller mirrors to.
// *remote.Client implements it.
type RemoteService interface {
	ListTasks(ctx context.Context) ([]tasks.Task, error)
	CreateTask(ctx context.Context, t tasks.Task) (tasks.Task, error)
	UpdateTask(ctx context.Context, t tasks.Task) (tasks.Task, error)
	DeleteTask(ctx context.Context, id int64) (remote.Confirmation, error)
}

// TaskStore is the local persistence slot. *store.TaskStore implements it.
type TaskStore interface {
	LoadTasks() []tasks.Task
	SaveTasks(list []tasks.Task)
	VisitorID() string
}

type nopStore struct{}

func (nopStore) LoadTasks() []tasks.Task { return []tasks.Task{} }
func (nopStore) SaveTasks([]tasks.Task)  {}
func (nopStore) VisitorID() string       { return store.AnonymousVisitor }

// Options configures a Controller. Remote nil means offline: mutations are
// local only. Store nil disables persistence.
type Options struct {
	Policy SyncPolicy
	Remote RemoteService
	Store  TaskStore
	Sink   analytics.EventSink
	Logger *slog.Logger
}

// Editing is an in-progress title edit.
type Editing struct {
	TaskID     int64
	DraftTitle string
}

// State is a read-only snapshot for rendering.
type State struct {
	Phase     Phase
	Tasks     []tasks.Task
	Remaining int
	Err       string
	Editing   *Editing
}

type Controller struct {
	policy    SyncPolicy
	remote    RemoteService
	store     TaskStore
	sink      analytics.EventSink
	logger    *slog.Logger
	visitorID string

	phase   Phase
	list    []tasks.Task
	err     string
	editing *Editing

	// seq numbers mutations; born maps a task id to the Add that created
	// the instance currently in the list.
	seq  uint64
	born map[int64]uint64
}

func New(opts Options) *Controller {
	c := &Controller{
		policy: opts.Policy,
		remote: opts.Remote,
		store:  opts.Store,
		sink:   opts.Sink,
		logger: opts.Logger,
		phase:  Loading,
		list:   []tasks.Task{},
		born:   make(map[int64]uint64),
	}
	if c.store == nil {
		c.store = nopStore{}
	}
	if c.sink == nil {
		c.sink = analytics.Nop{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.visitorID = c.store.VisitorID()
	return c
}

// Policy returns the configured revert policy.
func (c *Controller) Policy() SyncPolicy { return c.policy }

// VisitorID returns the identity attached to analytics events.
func (c *Controller) VisitorID() string { return c.visitorID }

// Load runs src synchronously and applies the result.
func (c *Controller) Load(ctx context.Context, src Source) {
	list, err := src(ctx)
	c.Loaded(list, err)
}

// Loaded moves the controller from Loading to Ready. Calls after the first
// are ignored. On error the list is empty and the error is recorded.
func (c *Controller) Loaded(list []tasks.Task, err error) {
	if c.phase != Loading {
		return
	}
	c.phase = Ready
	if err != nil {
		c.err = "Failed to load tasks: " + err.Error()
		c.logger.Warn("tasks_load_failed", slog.String("error", err.Error()))
		return
	}
	c.list = dedupe(list)
	c.err = ""
	c.persist()
	c.logger.Debug("tasks_loaded", slog.Int("count", len(c.list)))
}

// dedupe keeps the first task for every id.
func dedupe(list []tasks.Task) []tasks.Task {
	seen := make(map[int64]struct{}, len(list))
	out := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (c *Controller) Phase() Phase        { return c.phase }
func (c *Controller) Loading() bool       { return c.phase == Loading }
func (c *Controller) Err() string         { return c.err }
func (c *Controller) Remaining() int      { return tasks.Remaining(c.list) }
func (c *Controller) Tasks() []tasks.Task { return tasks.Clone(c.list) }

// DismissError clears the recorded error message.
func (c *Controller) DismissError() { c.err = "" }

// Editing reports the edit in progress, if any.
func (c *Controller) Editing() (Editing, bool) {
	if c.editing == nil {
		return Editing{}, false
	}
	return *c.editing, true
}

// State returns a snapshot of everything the view needs.
func (c *Controller) State() State {
	s := State{
		Phase:     c.phase,
		Tasks:     c.Tasks(),
		Remaining: c.Remaining(),
		Err:       c.err,
	}
	if c.editing != nil {
		e := *c.editing
		s.Editing = &e
	}
	return s
}

// Add appends a new task titled title (trimmed). Blank titles, and calls
// made before the list is Ready, change nothing and return nil.
func (c *Controller) Add(title string) *Pending {
	title = strings.TrimSpace(title)
	if title == "" || c.phase != Ready {
		return nil
	}
	t := tasks.Task{ID: tasks.NextID(c.list), Title: title}
	c.list = append(c.list, t)
	c.persist()

	p := c.pending(opCreate, t)
	c.born[t.ID] = p.seq
	c.track("task_created", analytics.Props{"titleLength": len([]rune(title))})
	return c.syncable(p)
}

// Delete removes the task with id. Unknown ids change nothing.
func (c *Controller) Delete(id int64) *Pending {
	i := tasks.IndexOf(c.list, id)
	if i < 0 {
		return nil
	}
	prev := tasks.Clone(c.list)
	prevBorn := maps.Clone(c.born)
	t := c.list[i]
	c.list = append(c.list[:i:i], c.list[i+1:]...)
	delete(c.born, id)
	if c.editing != nil && c.editing.TaskID == id {
		c.editing = nil
	}
	c.persist()

	p := c.pending(opDelete, t)
	p.prevList = prev
	p.prevBorn = prevBorn
	c.track("task_deleted", nil)
	return c.syncable(p)
}

// Toggle flips the completed flag of the task with id.
func (c *Controller) Toggle(id int64) *Pending {
	i := tasks.IndexOf(c.list, id)
	if i < 0 {
		return nil
	}
	next := c.list[i]
	next.Completed = !next.Completed
	p := c.replace(i, next)
	c.track("task_toggled", analytics.Props{"completed": next.Completed})
	return c.syncable(p)
}

// Edit sets the title of the task with id. Blank titles change nothing.
func (c *Controller) Edit(id int64, title string) *Pending {
	title = strings.TrimSpace(title)
	i := tasks.IndexOf(c.list, id)
	if title == "" || i < 0 {
		return nil
	}
	next := c.list[i]
	next.Title = title
	p := c.replace(i, next)
	c.track("task_updated", nil)
	return c.syncable(p)
}

func (c *Controller) replace(i int, next tasks.Task) *Pending {
	prev := c.list[i]
	c.list[i] = next
	c.persist()

	p := c.pending(opUpdate, next)
	p.prevTask = prev
	return p
}

// BeginEdit enters edit mode for the task with id, seeding the draft with
// its current title.
func (c *Controller) BeginEdit(id int64) bool {
	i := tasks.IndexOf(c.list, id)
	if i < 0 {
		return false
	}
	c.editing = &Editing{TaskID: id, DraftTitle: c.list[i].Title}
	return true
}

// SetDraft replaces the draft title while editing.
func (c *Controller) SetDraft(title string) {
	if c.editing != nil {
		c.editing.DraftTitle = title
	}
}

// CancelEdit leaves edit mode without changes.
func (c *Controller) CancelEdit() { c.editing = nil }

// CommitEdit leaves edit mode and applies the draft through Edit.
func (c *Controller) CommitEdit() *Pending {
	if c.editing == nil {
		return nil
	}
	e := *c.editing
	c.editing = nil
	return c.Edit(e.TaskID, e.DraftTitle)
}

// Sync runs p and resolves its outcome. Convenient for synchronous callers.
func (c *Controller) Sync(ctx context.Context, p *Pending) error {
	o := p.Run(ctx)
	c.Resolve(o)
	return o.Err
}

// Resolve applies the outcome of a remote call. Success changes nothing.
// Failure records the error and, under AuthoritativeRemote, reverts the
// mutation the call was mirroring.
func (c *Controller) Resolve(o Outcome) {
	p := o.pending
	if p == nil || o.Err == nil {
		return
	}
	c.err = fmt.Sprintf("Failed to %s task: %v", p.op.verb(), o.Err)
	c.logger.Warn("task_sync_failed",
		slog.String("op", p.op.String()),
		slog.Int64("task_id", p.task.ID),
		slog.String("policy", c.policy.String()),
		slog.String("error", o.Err.Error()),
	)
	c.track("task_sync_failed", analytics.Props{"op": p.op.String()})

	if c.policy != AuthoritativeRemote {
		return
	}
	if c.revert(p) {
		c.persist()
	}
}

func (c *Controller) revert(p *Pending) bool {
	switch p.op {
	case opCreate:
		// Only undo the instance this Add created; the id may have been
		// deleted and reused since.
		if c.born[p.task.ID] != p.seq {
			return false
		}
		i := tasks.IndexOf(c.list, p.task.ID)
		if i < 0 {
			return false
		}
		c.list = append(c.list[:i:i], c.list[i+1:]...)
		delete(c.born, p.task.ID)
		return true

	case opUpdate:
		// A newer local change to the same task wins over this revert.
		i := tasks.IndexOf(c.list, p.task.ID)
		if i < 0 || c.list[i] != p.task {
			return false
		}
		c.list[i] = p.prevTask
		return true

	case opDelete:
		c.list = tasks.Clone(p.prevList)
		c.born = maps.Clone(p.prevBorn)
		return true
	}
	return false
}

func (c *Controller) pending(op opKind, t tasks.Task) *Pending {
	c.seq++
	return &Pending{op: op, task: t, seq: c.seq, remote: c.remote}
}

// syncable drops the pending call when there is no remote to mirror to.
func (c *Controller) syncable(p *Pending) *Pending {
	if c.remote == nil {
		return nil
	}
	return p
}

func (c *Controller) persist() {
	c.store.SaveTasks(tasks.Clone(c.list))
}

func (c *Controller) track(event string, props analytics.Props) {
	if props == nil {
		props = analytics.Props{}
	}
	props["visitor_id"] = c.visitorID
	c.sink.Track(event, props)
}
