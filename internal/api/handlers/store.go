package handlers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tazeemc/Entropy/internal/backtest"
)

// ResultStore keeps the most recent backtest results in memory so their
// records can be fetched after the run. Oldest results are evicted first.
type ResultStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*backtest.Result
	order []uuid.UUID
	limit int
}

func NewResultStore(limit int) *ResultStore {
	if limit < 1 {
		limit = 1
	}
	return &ResultStore{
		items: make(map[uuid.UUID]*backtest.Result),
		limit: limit,
	}
}

// Put stores a result and returns its id.
func (s *ResultStore) Put(res *backtest.Result) uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[id] = res
	s.order = append(s.order, id)
	for len(s.order) > s.limit {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

func (s *ResultStore) Get(id uuid.UUID) (*backtest.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.items[id]
	return res, ok
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
