package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Closer is implemented by page types kept in a Sessions map.
type Closer interface {
	Close()
}

type session[P Closer] struct {
	page     P
	lastUsed time.Time
}

// Sessions keeps pages by id and drops pages idle for longer than the TTL.
type Sessions[P Closer] struct {
	ttl time.Duration
	log *logrus.Logger
	now func() time.Time

	mu    sync.Mutex
	items map[string]*session[P]
}

func NewSessions[P Closer](ttl time.Duration, logger *logrus.Logger) *Sessions[P] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sessions[P]{ttl: ttl, log: logger, now: time.Now, items: make(map[string]*session[P])}
}

// Add stores page under a fresh id.
func (s *Sessions[P]) Add(page P) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.items[id] = &session[P]{page: page, lastUsed: s.now()}
	s.mu.Unlock()
	return id
}

// Get returns the page for id and marks it used.
func (s *Sessions[P]) Get(id string) (P, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		var zero P
		return zero, false
	}
	item.lastUsed = s.now()
	return item.page, true
}

// Delete closes and removes the page for id.
func (s *Sessions[P]) Delete(id string) bool {
	s.mu.Lock()
	item, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if ok {
		item.page.Close()
	}
	return ok
}

func (s *Sessions[P]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep closes and removes pages idle past the TTL. It returns how many were removed.
func (s *Sessions[P]) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []P
	for id, item := range s.items {
		if item.lastUsed.Before(cutoff) {
			expired = append(expired, item.page)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, page := range expired {
		page.Close()
	}
	if len(expired) > 0 {
		s.log.WithField("count", len(expired)).Debug("expired idle sessions")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes all pages.
func (s *Sessions[P]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sessions[P]) closeAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*session[P])
	s.mu.Unlock()
	for _, item := range items {
		item.page.Close()
	}
}
