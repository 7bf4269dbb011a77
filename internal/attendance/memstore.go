package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and by deployments that load
// a dataset once at startup instead of streaming it through Kafka.
type MemStore struct {
	mu      sync.RWMutex
	facts   map[factKey]Fact
	classes map[string]Class
	version int64
}

type factKey struct {
	studentID string
	classID   string
	day       string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		facts:   make(map[factKey]Fact),
		classes: make(map[string]Class),
	}
}

func (s *MemStore) StudentIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.facts {
		seen[k.studentID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemStore) Days(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.facts {
		seen[k.day] = struct{}{}
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

func (s *MemStore) FactsForDay(ctx context.Context, day string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var facts []Fact
	for k, f := range s.facts {
		if k.day == day {
			facts = append(facts, f)
		}
	}
	// Deterministic order: by class, then student (matches the SQL store).
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].ClassID != facts[j].ClassID {
			return facts[i].ClassID < facts[j].ClassID
		}
		return facts[i].StudentID < facts[j].StudentID
	})
	return facts, nil
}

func (s *MemStore) Classes(ctx context.Context) (map[string]Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classes := make(map[string]Class, len(s.classes))
	for id, c := range s.classes {
		classes[id] = c
	}
	return classes, nil
}

func (s *MemStore) UpsertFact(ctx context.Context, fact Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[factKey{fact.StudentID, fact.ClassID, fact.Day}] = fact
	s.version++
	return nil
}

func (s *MemStore) UpsertClass(ctx context.Context, class Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class.ID] = class
	s.version++
	return nil
}

func (s *MemStore) Version(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}
