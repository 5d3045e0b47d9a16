package controller

import (
	"context"

	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

// verb is used in user-facing error messages.
func (k opKind) verb() string {
	switch k {
	case opCreate:
		return "add"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

// Pending is a remote call mirroring one local mutation.
type Pending struct {
	op     opKind
	seq    uint64
	task   tasks.Task
	remote RemoteService

	prevTask tasks.Task
	prevList []tasks.Task
	prevBorn map[int64]uint64
}

// Outcome is the result of running a Pending call.
type Outcome struct {
	pending *Pending
	Err     error
}

// TaskID is the id of the task the call is about.
func (p *Pending) TaskID() int64 { return p.task.ID }

// Run performs the remote call. A nil Pending yields an empty Outcome.
func (p *Pending) Run(ctx context.Context) Outcome {
	if p == nil || p.remote == nil {
		return Outcome{}
	}
	var err error
	switch p.op {
	case opCreate:
		_, err = p.remote.CreateTask(ctx, p.task)
	case opUpdate:
		_, err = p.remote.UpdateTask(ctx, p.task)
	case opDelete:
		_, err = p.remote.DeleteTask(ctx, p.task.ID)
	}
	return Outcome{pending: p, Err: err}
}
