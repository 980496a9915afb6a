package http

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"apiprobe/internal/config"
)

// Registry owns every session in the process. It is constructed by the
// orchestrator, passed by reference to whoever needs a session, and torn
// down exactly once at a single shutdown point.
type Registry struct {
	cfg    *config.Config
	policy RetryPolicy
	log    zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Client
}

// NewRegistry creates an empty registry. No session, and therefore no
// network connection, exists until the first Get.
func NewRegistry(cfg *config.Config, log zerolog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		policy:   NewRetryPolicy(cfg.Retry),
		log:      log,
		sessions: make(map[string]*Client),
	}
}

// Get returns the session for the named target, building it on first use.
// Repeated calls with the same name return the identical instance.
func (r *Registry) Get(name string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[name]; ok {
		return session, nil
	}

	target, ok := r.cfg.Targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q", name)
	}

	session := NewClient(target, r.policy, r.log)
	r.sessions[name] = session
	return session, nil
}

// CloseAll releases every session's pooled connections. A failure to close
// one session is logged and never stops the rest.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, session := range r.sessions {
		if err := session.Close(); err != nil {
			r.log.Warn().Str("target", name).Err(err).Msg("failed to close session")
			continue
		}
		r.log.Debug().Str("target", name).Int64("requests", session.Requests()).Msg("session closed")
	}
	r.sessions = make(map[string]*Client)
}
