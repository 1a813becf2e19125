package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"worldinfo/internal/chart"
	"worldinfo/internal/fetch"
	"worldinfo/internal/models"
	"worldinfo/internal/services"
	"worldinfo/internal/structures"
	"worldinfo/internal/testutil"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchJSON = `[
	{"id":"wrld_1","name":"Forest","visits":100,"favorites":10,"tags":["game"],"publicationDate":"2023-01-01"},
	{"id":"wrld_2","name":"Lake","visits":500,"favorites":0,"tags":["chill"],"publicationDate":"2023-01-20"},
	{"name":"no id"}
]`

type fixture struct {
	ac      *ApiController
	service services.TrackerServiceInterface
	cache   *testutil.MockCache
	fetcher *testutil.MockFetcher
	metrics *testutil.MockMetrics
	logger  *testutil.MockLogger
}

func newFixture() *fixture {
	f := &fixture{
		service: services.NewTrackerService(&structures.Config{}),
		cache:   testutil.NewMockCache(),
		fetcher: &testutil.MockFetcher{},
		metrics: &testutil.MockMetrics{},
		logger:  &testutil.MockLogger{},
	}
	f.ac = NewApiController(f.logger, f.service, f.cache, f.fetcher, f.metrics)
	return f
}

func (f *fixture) ingest(t *testing.T, fetchedAt string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/snapshots?fetchedAt="+fetchedAt, strings.NewReader(batchJSON))
	rr := httptest.NewRecorder()
	f.ac.IngestSnapshots(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
}

func serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(method, target, nil))
	return rr
}

// --- IngestSnapshots ---

func TestIngestSnapshots_Valid(t *testing.T) {
	f := newFixture()
	staleKey := f.ac.cacheKey("worlds")
	f.cache.Set(staleKey, []byte("stale"))

	req := httptest.NewRequest(http.MethodPost, "/snapshots?fetchedAt=2023-01-31T00:00:00Z", strings.NewReader(batchJSON))
	rr := httptest.NewRecorder()
	f.ac.IngestSnapshots(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var res services.IngestResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Received)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Appended)

	assert.Equal(t, 1, f.cache.Clears)
	_, ok := f.cache.Get(staleKey)
	assert.False(t, ok)
	assert.NotEqual(t, staleKey, f.ac.cacheKey("worlds"))
	require.Len(t, f.metrics.Ingests, 1)
	assert.Equal(t, 1, f.logger.Count("info"))
	assert.Equal(t, 2, f.service.GetSnapshotCount())
}

func TestIngestSnapshots_InvalidJSON(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/snapshots", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()
	f.ac.IngestSnapshots(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, f.service.GetSnapshotCount())
}

func TestIngestSnapshots_BadFetchedAt(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/snapshots?fetchedAt=yesterday", strings.NewReader(batchJSON))
	rr := httptest.NewRecorder()
	f.ac.IngestSnapshots(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.metrics.Ingests)
}

// --- Fetch ---

func TestFetch_IngestsUpstreamRecords(t *testing.T) {
	f := newFixture()
	f.fetcher.Records = []models.RawRecord{{"id": "wrld_9", "name": "Cave"}}

	rr := serve(f.ac.Fetch, http.MethodPost, "/fetch?keyword=cave&limit=10")

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, f.fetcher.Queries, 1)
	assert.Equal(t, fetch.Query{Keyword: "cave", Limit: 10}, f.fetcher.Queries[0])
	assert.Equal(t, 1, f.metrics.Fetches["ok"])
	assert.Equal(t, 1, f.service.GetEntityCount())
}

func TestFetch_EmptyQuery(t *testing.T) {
	f := newFixture()
	f.fetcher.Err = fetch.ErrEmptyQuery

	rr := serve(f.ac.Fetch, http.MethodPost, "/fetch")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, f.metrics.Fetches["error"])
}

func TestFetch_UpstreamFailure(t *testing.T) {
	f := newFixture()
	f.fetcher.Err = &fetch.UpstreamError{Status: 503, Body: "down"}

	rr := serve(f.ac.Fetch, http.MethodPost, "/fetch?user=usr_1")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, 1, f.logger.Count("error"))
	assert.Zero(t, f.service.GetSnapshotCount())
}

func TestFetch_BadLimit(t *testing.T) {
	f := newFixture()
	rr := serve(f.ac.Fetch, http.MethodPost, "/fetch?keyword=x&limit=-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.fetcher.Queries)
}

func TestFetch_TransportError(t *testing.T) {
	f := newFixture()
	f.fetcher.Err = errors.New("connection refused")

	rr := serve(f.ac.Fetch, http.MethodPost, "/fetch?keyword=x")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

// --- GetWorlds ---

func TestGetWorlds_ComputesAndCaches(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetWorlds, http.MethodGet, "/worlds")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var rows []models.MetricsRow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "wrld_1", rows[0].ID)
	assert.Equal(t, 30, rows[0].DaysSincePublication)

	cached, ok := f.cache.Get(f.ac.cacheKey("worlds"))
	assert.True(t, ok)
	assert.Equal(t, rr.Body.Bytes(), cached)
}

func TestGetWorlds_ServesFromCache(t *testing.T) {
	f := newFixture()
	f.cache.Set(f.ac.cacheKey("worlds"), []byte(`[{"id":"cached"}]`))

	rr := serve(f.ac.GetWorlds, http.MethodGet, "/worlds")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `[{"id":"cached"}]`, rr.Body.String())
}

func TestServeFromCacheOrCompute_SharesConcurrentMisses(t *testing.T) {
	f := newFixture()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	compute := func() (any, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return []string{"a"}, nil
	}

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			f.ac.serveFromCacheOrCompute(rr, "shared", compute)
			codes[i] = rr.Code
		}(i)
	}
	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	cached, ok := f.cache.Get(f.ac.cacheKey("shared"))
	assert.True(t, ok)
	assert.Equal(t, `["a"]`, string(cached))
}

func TestServeFromCacheOrCompute_IngestDuringComputeNotServedStale(t *testing.T) {
	f := newFixture()
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		f.ac.serveFromCacheOrCompute(httptest.NewRecorder(), "worlds", func() (any, error) {
			rows := f.service.MetricsRows()
			close(entered)
			<-release
			return rows, nil
		})
	}()
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/snapshots?fetchedAt=2023-01-31T00:00:00Z", strings.NewReader(batchJSON))
	rr := httptest.NewRecorder()
	f.ac.IngestSnapshots(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	close(release)
	<-done

	rr = serve(f.ac.GetWorlds, http.MethodGet, "/worlds")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"wrld_1"`)
}

func TestServeFromCacheOrCompute_ErrorNotCached(t *testing.T) {
	f := newFixture()
	rr := httptest.NewRecorder()
	f.ac.serveFromCacheOrCompute(rr, "broken", func() (any, error) {
		return nil, errors.New("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	_, ok := f.cache.Get(f.ac.cacheKey("broken"))
	assert.False(t, ok)
}

func TestGetWorldsCSV(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetWorldsCSV, http.MethodGet, "/worlds.csv")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "wrld_1")
}

// --- GetHistory ---

func TestGetHistory(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")
	f.ingest(t, "2023-02-01T00:00:00Z")

	rr := serve(f.ac.GetHistory, http.MethodGet, "/history?id=wrld_1")
	assert.Equal(t, http.StatusOK, rr.Code)

	var rows []models.MetricsRow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
}

func TestGetHistory_UnknownIsEmptyList(t *testing.T) {
	f := newFixture()
	rr := serve(f.ac.GetHistory, http.MethodGet, "/history?id=nope")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestGetHistory_MissingID(t *testing.T) {
	f := newFixture()
	rr := serve(f.ac.GetHistory, http.MethodGet, "/history")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- GetEntities ---

func TestGetEntities(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetEntities, http.MethodGet, "/entities")
	var labels []services.EntityLabel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &labels))
	assert.Equal(t, []services.EntityLabel{
		{ID: "wrld_1", Label: "Forest (wrld_1)"},
		{ID: "wrld_2", Label: "Lake (wrld_2)"},
	}, labels)
}

// --- GetChart ---

func TestGetChart(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetChart, http.MethodGet, "/chart?id=wrld_1&w=900&h=300")
	assert.Equal(t, http.StatusOK, rr.Code)

	var proj chart.Projection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &proj))
	assert.Equal(t, 900.0, proj.Canvas.Width)
	assert.Equal(t, 300.0, proj.Canvas.Height)
	assert.Len(t, proj.Channels, len(models.Channels))
}

func TestGetChart_Errors(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	tests := []struct {
		target string
		status int
	}{
		{"/chart", http.StatusBadRequest},
		{"/chart?id=wrld_1&w=wide", http.StatusBadRequest},
		{"/chart?id=wrld_1&h=-5", http.StatusBadRequest},
		{"/chart?id=unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := serve(f.ac.GetChart, http.MethodGet, tt.target)
		assert.Equal(t, tt.status, rr.Code, tt.target)
	}
}

// --- GetDashboard ---

func TestGetDashboard(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetDashboard, http.MethodGet, "/dashboard?width=1000")
	assert.Equal(t, http.StatusOK, rr.Code)

	var layout chart.Layout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &layout))
	assert.Equal(t, 3, layout.Columns)
	assert.Len(t, layout.Placements, 2)
}

func TestGetDashboard_BadWidth(t *testing.T) {
	f := newFixture()
	rr := serve(f.ac.GetDashboard, http.MethodGet, "/dashboard?width=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- SearchWorlds / GetTags ---

func TestSearchWorlds(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.SearchWorlds, http.MethodGet, "/worlds/search?tag=chill")
	assert.Equal(t, http.StatusOK, rr.Code)

	var worlds []models.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &worlds))
	require.Len(t, worlds, 1)
	assert.Equal(t, "wrld_2", worlds[0].ID)

	_, ok := f.cache.Get(f.ac.cacheKey("search:popular:chill"))
	assert.True(t, ok)
}

func TestSearchWorlds_LatestOrder(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.SearchWorlds, http.MethodGet, "/worlds/search?sort=latest")
	var worlds []models.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &worlds))
	require.Len(t, worlds, 2)
	assert.Equal(t, "wrld_2", worlds[0].ID)
}

func TestSearchWorlds_BadSort(t *testing.T) {
	f := newFixture()
	rr := serve(f.ac.SearchWorlds, http.MethodGet, "/worlds/search?sort=random")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetTags(t *testing.T) {
	f := newFixture()
	f.ingest(t, "2023-01-31T00:00:00Z")

	rr := serve(f.ac.GetTags, http.MethodGet, "/tags")
	assert.Equal(t, `["chill","game"]`, rr.Body.String())
}
