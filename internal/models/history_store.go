package models

import (
	"sort"
	"sync"
)

// HistoryStore is the append-only, world-keyed store of observed snapshots.
// Series are never reordered, merged or trimmed.
type HistoryStore struct {
	mu     sync.RWMutex
	series map[string]HistorySeries
	order  []string
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		series: make(map[string]HistorySeries),
	}
}

// RecordsFor returns a copy of the series of id. Unknown ids yield an empty series.
func (s *HistoryStore) RecordsFor(id string) HistorySeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.series[id]
	out := make(HistorySeries, len(src))
	copy(out, src)
	return out
}

// Append adds snap to the end of the series of id. Colliding timestamps are kept.
func (s *HistoryStore) Append(id string, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[id]; !ok {
		s.order = append(s.order, id)
	}
	s.series[id] = append(s.series[id], snap)
}

// Has reports whether id already holds a snapshot taken at ts.
func (s *HistoryStore) Has(id string, ts int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.series[id] {
		if snap.Timestamp == ts {
			return true
		}
	}
	return false
}

// Last returns the most recent snapshot of id.
func (s *HistoryStore) Last(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.series[id]
	if len(series) == 0 {
		return Snapshot{}, false
	}
	return series[len(series)-1], true
}

// IDs lists world ids in the order they were first appended.
func (s *HistoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

// Count returns the number of snapshots across all worlds.
func (s *HistoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, series := range s.series {
		n += len(series)
	}
	return n
}

func (s *HistoryStore) GetData() map[string]HistorySeries {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]HistorySeries, len(s.series))
	for id, series := range s.series {
		cp := make(HistorySeries, len(series))
		copy(cp, series)
		result[id] = cp
	}
	return result
}

// PutData replaces the store content. Ids listed in order come first; ids only
// present in data follow in lexical order.
func (s *HistoryStore) PutData(data map[string]HistorySeries, order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series = make(map[string]HistorySeries, len(data))
	s.order = make([]string, 0, len(data))
	for _, id := range order {
		series, ok := data[id]
		if !ok {
			continue
		}
		if _, dup := s.series[id]; dup {
			continue
		}
		s.series[id] = series
		s.order = append(s.order, id)
	}

	var rest []string
	for id := range data {
		if _, ok := s.series[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		s.series[id] = data[id]
		s.order = append(s.order, id)
	}
}
