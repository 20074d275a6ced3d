package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry owns one workspace per manager and closes the ones left idle.
type Registry struct {
	deps    Deps
	idleTTL time.Duration

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	deps.setDefaults()
	return &Registry{
		deps:       deps,
		idleTTL:    idleTTL,
		workspaces: make(map[string]*Workspace),
	}
}

// Open returns the workspace of managerID, creating and loading it on first
// use. A failed initial load still returns the workspace.
func (r *Registry) Open(ctx context.Context, managerID string) *Workspace {
	r.mu.Lock()
	w, ok := r.workspaces[managerID]
	if !ok {
		w = NewWorkspace(managerID, r.deps)
		r.workspaces[managerID] = w
	}
	r.mu.Unlock()

	w.touch()
	if !ok {
		if err := w.Refresh(ctx, ScopeAll); err != nil {
			w.logger(ctx).Warn(ctx, "initial console load incomplete", zap.Error(err))
		}
	}
	return w
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Evict closes workspaces idle since before now minus the idle TTL.
func (r *Registry) Evict(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	var idle []*Workspace
	for id, w := range r.workspaces {
		if now.Sub(w.idleSince()) > r.idleTTL {
			idle = append(idle, w)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, w := range idle {
		w.Close()
	}
	return len(idle)
}

// Run evicts idle workspaces until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := max(r.idleTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Evict(now); n > 0 {
				r.deps.Logger.Debug(ctx, "evicted idle workspaces", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range all {
		w.Close()
	}
}
