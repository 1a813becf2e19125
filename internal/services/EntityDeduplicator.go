package services

import (
	"worldinfo/internal/models"
)

// Deduplicate collapses a fetched batch into one record per world. A later
// occurrence replaces an earlier one but keeps the position of the first.
// Records without an id are skipped and counted.
func Deduplicate(batch []models.Snapshot) (*models.EntitySet, int) {
	set := models.NewEntitySet()
	skipped := 0
	for _, snap := range batch {
		if snap.ID == "" {
			skipped++
			continue
		}
		set.Put(snap)
	}
	return set, skipped
}
