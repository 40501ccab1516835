package group

import "context"

// Target is a messaging group a program can deliver to. Ownership lives in
// the external directory; the engine only reads it.
type Target struct {
	ID     string `json:"id"`
	Handle string `json:"handle"` // group JID
	Name   string `json:"name,omitempty"`
	Active bool   `json:"active"`
}

// IGroupDirectory resolves delivery targets. Resolution happens fresh at
// dispatch time, never cached across runs.
type IGroupDirectory interface {
	ListActive(ctx context.Context) ([]Target, error)
	// Resolve filters the given ids down to currently-active targets,
	// silently dropping unknown or inactive ones.
	Resolve(ctx context.Context, ids []string) ([]Target, error)
}

// ITargetRegistry maintains the curated target table used when dispatch is
// configured against the database directory instead of the live group list.
type ITargetRegistry interface {
	UpsertTarget(ctx context.Context, target Target) error
}
