package services

import (
	"sort"
	"sync"
	"time"
	"worldinfo/internal/chart"
	"worldinfo/internal/models"
	"worldinfo/internal/structures"

	"github.com/google/uuid"
)

const (
	SortPopular = "popular"
	SortLatest  = "latest"
)

type IngestResult struct {
	BatchID    string    `json:"batchId"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Received   int       `json:"received"`
	Skipped    int       `json:"skipped"`
	Entities   int       `json:"entities"`
	Appended   int       `json:"appended"`
	Duplicates int       `json:"duplicates"`
}

type EntityLabel struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type TrackerServiceInterface interface {
	IngestRaw(batch []models.RawRecord, fetchedAt time.Time) IngestResult
	Ingest(batch []models.Snapshot, fetchedAt time.Time) IngestResult
	Current() []models.Snapshot
	MetricsRows() []models.MetricsRow
	HistoryRows(id string) []models.MetricsRow
	Chart(id string, canvas chart.Canvas) (chart.Projection, bool)
	Dashboard(width int) chart.Layout
	Entities() []EntityLabel
	Search(tag, order string) []models.Snapshot
	Tags() []string
	PutTableRows(rows []models.MetricsRow)
	GetSnapshot() *models.HistoryFile
	PutHistory(file *models.HistoryFile)
	GetEntityCount() int
	GetSnapshotCount() int
}

// TrackerService is the session state: the history store, the current record of
// every world from the last fetch and the last raw batch for searching.
type TrackerService struct {
	mu         sync.RWMutex
	ingestMu   sync.Mutex
	store      *models.HistoryStore
	recorder   *HistoryRecorder
	current    *models.EntitySet
	lastBatch  []models.Snapshot
	tableRows  []models.MetricsRow
	projector  *chart.Projector
	canvas     chart.Canvas
	panelWidth int
}

func NewTrackerService(conf *structures.Config) TrackerServiceInterface {
	store := models.NewHistoryStore()
	limits := conf.Chart.Limits

	panelWidth := conf.Dashboard.PanelWidth
	if panelWidth <= 0 {
		panelWidth = chart.DefaultPanelWidth
	}

	return &TrackerService{
		store:    store,
		recorder: NewHistoryRecorder(store),
		current:  models.NewEntitySet(),
		projector: chart.NewProjector(chart.Limits{
			models.ChannelVisits:     limits.Visits,
			models.ChannelFavorites:  limits.Favorites,
			models.ChannelHeat:       limits.Heat,
			models.ChannelPopularity: limits.Popularity,
		}),
		canvas: chart.Canvas{
			Width:  float64(conf.Chart.Width),
			Height: float64(conf.Chart.Height),
			Margin: float64(conf.Chart.Margin),
		}.Measured(chart.Canvas{Width: 600, Height: 200, Margin: chart.DefaultMargin}),
		panelWidth: panelWidth,
	}
}

// IngestRaw converts a fetched batch at the collaborator boundary and ingests it.
func (ts *TrackerService) IngestRaw(batch []models.RawRecord, fetchedAt time.Time) IngestResult {
	snaps, skipped := models.SnapshotsFromRaw(batch, fetchedAt)
	res := ts.Ingest(snaps, fetchedAt)
	res.Received += skipped
	res.Skipped += skipped
	return res
}

// Ingest replaces the current world set with the deduplicated batch and records
// the batch in history.
func (ts *TrackerService) Ingest(batch []models.Snapshot, fetchedAt time.Time) IngestResult {
	ts.ingestMu.Lock()
	defer ts.ingestMu.Unlock()

	set, skipped := Deduplicate(batch)
	appended, duplicates := ts.recorder.AppendBatch(set.Values())

	kept := make([]models.Snapshot, 0, len(batch))
	for _, s := range batch {
		if s.ID != "" {
			kept = append(kept, s)
		}
	}

	ts.mu.Lock()
	ts.current = set
	ts.lastBatch = kept
	ts.mu.Unlock()

	return IngestResult{
		BatchID:    uuid.NewString(),
		FetchedAt:  fetchedAt.UTC(),
		Received:   len(batch),
		Skipped:    skipped,
		Entities:   set.Len(),
		Appended:   appended,
		Duplicates: duplicates,
	}
}

func (ts *TrackerService) Current() []models.Snapshot {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.current.Values()
}

// MetricsRows derives one row per current world. Before the first fetch the rows
// loaded from a stored table are returned instead.
func (ts *TrackerService) MetricsRows() []models.MetricsRow {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.current.Len() == 0 {
		out := make([]models.MetricsRow, len(ts.tableRows))
		copy(out, ts.tableRows)
		return out
	}

	rows := make([]models.MetricsRow, 0, ts.current.Len())
	for _, snap := range ts.current.Values() {
		rows = append(rows, DeriveMetrics(snap, snap.LifecycleDates))
	}
	return rows
}

// HistoryRows derives a row for every stored snapshot of id against the dates
// observed with that snapshot.
func (ts *TrackerService) HistoryRows(id string) []models.MetricsRow {
	series := ts.store.RecordsFor(id)
	rows := make([]models.MetricsRow, 0, len(series))
	for _, snap := range series {
		rows = append(rows, DeriveMetrics(snap, snap.LifecycleDates))
	}
	return rows
}

// Chart projects the history of id. It reports false for worlds without history.
func (ts *TrackerService) Chart(id string, canvas chart.Canvas) (chart.Projection, bool) {
	series := ts.store.RecordsFor(id)
	if len(series) == 0 {
		return chart.Projection{}, false
	}

	ts.mu.RLock()
	cur, ok := ts.current.Get(id)
	ts.mu.RUnlock()
	if !ok {
		cur = series[len(series)-1]
	}

	events := chart.EventsFor(series, cur.LifecycleDates)
	return ts.projector.Project(series, events, canvas.Measured(ts.canvas)), true
}

// Dashboard places one chart panel per current world.
func (ts *TrackerService) Dashboard(width int) chart.Layout {
	ts.mu.RLock()
	panels := ts.current.Len()
	if panels == 0 {
		panels = len(ts.tableRows)
	}
	ts.mu.RUnlock()
	return chart.PlanDashboard(panels, width, ts.panelWidth)
}

// Entities lists every world with history, labelled "name (id)".
func (ts *TrackerService) Entities() []EntityLabel {
	ids := ts.store.IDs()
	out := make([]EntityLabel, 0, len(ids))
	for _, id := range ids {
		label := id
		if first := ts.store.RecordsFor(id); len(first) > 0 {
			label = first[0].Label()
		}
		out = append(out, EntityLabel{ID: id, Label: label})
	}
	return out
}

// Search filters the last fetched batch by tag ("" or "all" keeps everything)
// and orders it by publication date or by visits, both descending.
func (ts *TrackerService) Search(tag, order string) []models.Snapshot {
	ts.mu.RLock()
	worlds := make([]models.Snapshot, 0, len(ts.lastBatch))
	for _, s := range ts.lastBatch {
		if tag == "" || tag == "all" || hasTag(s, tag) {
			worlds = append(worlds, s)
		}
	}
	ts.mu.RUnlock()

	if order == SortLatest {
		sort.SliceStable(worlds, func(i, j int) bool {
			return worlds[i].PublicationDate > worlds[j].PublicationDate
		})
	} else {
		sort.SliceStable(worlds, func(i, j int) bool {
			return worlds[i].Visits > worlds[j].Visits
		})
	}
	return worlds
}

func hasTag(s models.Snapshot, tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Tags returns the sorted distinct tags of the last fetched batch.
func (ts *TrackerService) Tags() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, s := range ts.lastBatch {
		for _, t := range s.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (ts *TrackerService) PutTableRows(rows []models.MetricsRow) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tableRows = rows
}

func (ts *TrackerService) GetSnapshot() *models.HistoryFile {
	return &models.HistoryFile{
		Version:  models.HistoryFileVersion,
		SavedAt:  time.Now().UTC(),
		Order:    ts.store.IDs(),
		Entities: ts.store.GetData(),
	}
}

func (ts *TrackerService) PutHistory(file *models.HistoryFile) {
	if file == nil {
		return
	}
	ts.store.PutData(file.Entities, file.Order)
}

func (ts *TrackerService) GetEntityCount() int {
	return ts.store.Len()
}

func (ts *TrackerService) GetSnapshotCount() int {
	return ts.store.Count()
}
