package controller

import (
	"fmt"
	"strings"
)

// SyncPolicy decides what a failed remote call undoes.
type SyncPolicy int

const (
	// AuthoritativeRemote treats the server as ground truth: a failed call
	// reverts the optimistic local change.
	AuthoritativeRemote SyncPolicy = iota
	// AuthoritativeLocal treats the local list as ground truth: a failed
	// call only records the error.
	AuthoritativeLocal
)

func (p SyncPolicy) String() string {
	switch p {
	case AuthoritativeRemote:
		return "remote"
	case AuthoritativeLocal:
		return "local"
	default:
		return fmt.Sprintf("SyncPolicy(%d)", int(p))
	}
}

// ParseSyncPolicy accepts "remote" and "local".
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return AuthoritativeRemote, nil
	case "local":
		return AuthoritativeLocal, nil
	default:
		return 0, fmt.Errorf("unknown sync policy %q", s)
	}
}

// Phase is the controller lifecycle: Loading, then Ready for the rest of
// the session.
type Phase int

const (
	Loading Phase = iota
	Ready
)

func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "loading"
}
