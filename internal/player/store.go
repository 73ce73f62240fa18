package player

import (
	"slices"
	"sync"
)

// Store maps guild IDs to their queues. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	queues map[string]*Queue
	locks  map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		queues: make(map[string]*Queue),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Lock enters guildID's critical section and returns the function that
// leaves it.
func (s *Store) Lock(guildID string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[guildID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Store) Get(guildID string) (*Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[guildID]
	return q, ok
}

// CreateIfAbsent returns the guild's queue, building it with factory when
// there is none. created reports whether factory ran successfully.
// The caller must hold Lock(guildID); factory runs without the store mutex
// so it may do network I/O.
func (s *Store) CreateIfAbsent(guildID string, factory func() (*Queue, error)) (q *Queue, created bool, err error) {
	if q, ok := s.Get(guildID); ok {
		return q, false, nil
	}

	q, err = factory()
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.queues[guildID] = q
	s.mu.Unlock()
	return q, true, nil
}

// Remove drops the guild's queue, whatever it is.
func (s *Store) Remove(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, guildID)
}

// RemoveQueue drops q only if it is still the guild's queue.
func (s *Store) RemoveQueue(q *Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queues[q.GuildID] != q {
		return false
	}
	delete(s.queues, q.GuildID)
	return true
}

// GuildIDs lists the guilds that currently have a queue, sorted.
func (s *Store) GuildIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.queues))
	for id := range s.queues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
