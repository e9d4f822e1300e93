package session

import (
	"fmt"
	"sync"

	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/pkg/events"
)

const logModule = "session"

// Store owns the current State. Operations hold Begin for their whole
// duration, network calls included, so two operations never interleave.
type Store struct {
	opMu sync.Mutex

	mu    sync.RWMutex
	state State

	publisher events.IPublisher
	logger    logger.ILogger
}

// NewStore starts anonymous. publisher may be nil.
func NewStore(publisher events.IPublisher, log logger.ILogger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		state:     Anonymous(),
		publisher: publisher,
		logger:    log,
	}
}

// Current returns a copy that the caller may keep.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Begin blocks until no other operation is running and returns the release func.
func (s *Store) Begin() func() {
	s.opMu.Lock()
	var once sync.Once
	return func() { once.Do(s.opMu.Unlock) }
}

// Commit applies t atomically. A transition producing an invalid state is
// rejected and the current state is kept.
func (s *Store) Commit(t Transition) (State, error) {
	s.mu.Lock()
	next := t.Apply(s.state.clone())
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return s.Current(), fmt.Errorf("commit %s: %w", t.Name, err)
	}
	s.state = next
	s.mu.Unlock()

	summary := next.Summary()
	s.logger.Debug(logModule, "State committed", map[string]interface{}{
		"transition": t.Name,
		"state":      summary,
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(events.NewSessionChanged(t.Name, summary)); err != nil {
			s.logger.Warn(logModule, "Failed to publish session change", map[string]interface{}{
				"transition": t.Name,
				"error":      err.Error(),
			})
		}
	}

	return next.clone(), nil
}
