package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps navigators for rendered batches so HTTP clients can page
// through them. Expired navigators are dropped on access.
type Sessions struct {
	mu   sync.Mutex
	navs map[string]*Navigator
	idle time.Duration
	now  func() time.Time
}

func NewSessions(idle time.Duration) *Sessions {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Sessions{navs: map[string]*Navigator{}, idle: idle, now: time.Now}
}

// Open registers pages under a fresh id.
func (s *Sessions) Open(pages []Page) (string, *Navigator, error) {
	nav, err := newNavigator(pages, s.idle, s.now)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.navs[id] = nav
	return id, nav, nil
}

// Get returns the navigator for id; ok is false when unknown or expired.
func (s *Sessions) Get(id string) (*Navigator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nav, ok := s.navs[id]
	if !ok {
		return nil, false
	}
	if nav.Expired() {
		delete(s.navs, id)
		return nil, false
	}
	return nav, true
}

// Len counts live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.navs)
}

func (s *Sessions) sweep() {
	for id, nav := range s.navs {
		if nav.Expired() {
			delete(s.navs, id)
		}
	}
}
