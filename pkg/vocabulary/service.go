package vocabulary

import (
	"context"
	"sync"

	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/transport"

	"golang.org/x/sync/singleflight"
)

// Service loads the vocabulary once and serves it from memory until it is
// invalidated. Concurrent callers share a single query.
type Service struct {
	transport transport.Transport
	statement cypher.Statement

	cache   *Vocabulary
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewService creates a Service that extracts terms from the result of stmt.
func NewService(t transport.Transport, stmt cypher.Statement) *Service {
	return &Service{
		transport: t,
		statement: stmt,
	}
}

// Get returns the cached vocabulary, loading it on first use.
func (s *Service) Get(ctx context.Context) (Vocabulary, error) {
	s.cacheMu.RLock()
	if s.cache != nil {
		v := *s.cache
		s.cacheMu.RUnlock()
		return v, nil
	}
	s.cacheMu.RUnlock()

	result, err, _ := s.group.Do("vocabulary", func() (any, error) {
		s.cacheMu.RLock()
		if s.cache != nil {
			v := *s.cache
			s.cacheMu.RUnlock()
			return v, nil
		}
		s.cacheMu.RUnlock()

		env, err := s.transport.Execute(ctx, s.statement)
		if err != nil {
			return nil, err
		}
		v, err := Extract(env)
		if err != nil {
			return nil, err
		}

		s.cacheMu.Lock()
		s.cache = &v
		s.cacheMu.Unlock()

		logger.Debug("[Vocabulary] Loaded",
			"actions", len(v.Actions),
			"enums", len(v.EnumValues),
			"clouds", len(v.CloudValues),
		)
		return v, nil
	})
	if err != nil {
		return Vocabulary{}, err
	}

	return result.(Vocabulary), nil
}

// Invalidate drops the cached vocabulary so the next Get reloads it.
func (s *Service) Invalidate() {
	s.cacheMu.Lock()
	s.cache = nil
	s.cacheMu.Unlock()
}
