package board

import (
	"context"
	"log/slog"
	"sync"
)

// Registry keeps one controller per signed-in owner so in-flight markers are
// shared by every request of that owner.
type Registry struct {
	adapter Adapter
	logger  *slog.Logger
	opts    []Option

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(adapter Adapter, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapter:     adapter,
		logger:      logger,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the owner's controller, creating and loading it on first use.
func (r *Registry) Get(ctx context.Context, session Session) (*Controller, error) {
	if session.OwnerID == "" {
		return nil, ErrNoSession
	}
	r.mu.Lock()
	ctrl, ok := r.controllers[session.OwnerID]
	if !ok {
		opts := append([]Option{WithLogger(r.logger)}, r.opts...)
		created, err := New(session, r.adapter, opts...)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		ctrl = created
		r.controllers[session.OwnerID] = ctrl
	}
	r.mu.Unlock()

	if !ok {
		if err := ctrl.Load(ctx); err != nil {
			r.mu.Lock()
			if r.controllers[session.OwnerID] == ctrl {
				delete(r.controllers, session.OwnerID)
			}
			r.mu.Unlock()
			return nil, err
		}
	}
	return ctrl, nil
}

// Drop ends the owner's controller, as on logout.
func (r *Registry) Drop(ownerID string) {
	r.mu.Lock()
	ctrl, ok := r.controllers[ownerID]
	delete(r.controllers, ownerID)
	r.mu.Unlock()
	if ok {
		ctrl.End()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
