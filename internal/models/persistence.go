package models

import "time"

const HistoryFileVersion = 2

// HistoryFile is the V2 persistence envelope. V1 files are a bare
// map of world id to series and carry no version field.
type HistoryFile struct {
	Version  int                      `json:"version"`
	SavedAt  time.Time                `json:"saved_at"`
	Order    []string                 `json:"order"`
	Entities map[string]HistorySeries `json:"entities"`
}
