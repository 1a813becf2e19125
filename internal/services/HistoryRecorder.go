package services

import (
	"worldinfo/internal/models"
)

// HistoryRecorder appends fetched snapshots to a store at most once per
// (world id, timestamp) pair. Snapshots older than the tail of their series are
// rejected so every series stays chronological.
type HistoryRecorder struct {
	store *models.HistoryStore
}

func NewHistoryRecorder(store *models.HistoryStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// AppendBatch returns how many snapshots were appended and how many were dropped.
func (hr *HistoryRecorder) AppendBatch(batch []models.Snapshot) (appended, dropped int) {
	for _, snap := range batch {
		if snap.ID == "" {
			dropped++
			continue
		}
		if last, ok := hr.store.Last(snap.ID); ok && snap.Timestamp < last.Timestamp {
			dropped++
			continue
		}
		if hr.store.Has(snap.ID, snap.Timestamp) {
			dropped++
			continue
		}
		hr.store.Append(snap.ID, snap)
		appended++
	}
	return appended, dropped
}
