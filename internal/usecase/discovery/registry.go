package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
)

const DefaultSessionTTL = 30 * time.Minute

// Registry holds live sessions keyed by viewer id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      logging.Logger
}

func NewRegistry(ttl time.Duration, log logging.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Get returns the viewer's session and marks it active.
func (r *Registry) Get(viewerID string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[viewerID]
	r.mu.Unlock()

	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Reset installs a fresh queue for the viewer. An existing session is reused
// under a new generation.
func (r *Registry) Reset(viewer *domain.Profile, queue []*domain.DiscoverCandidate) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[viewer.ID]; ok {
		s.reset(viewer, queue, now)
		return s
	}
	s := NewSession(viewer, queue, now)
	r.sessions[viewer.ID] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the ttl and returns how many went.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.log.Debug(ctx, "evicted idle discovery sessions", "count", n)
			}
		}
	}
}
