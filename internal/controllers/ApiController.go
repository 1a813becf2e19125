package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"worldinfo/internal/chart"
	"worldinfo/internal/fetch"
	"worldinfo/internal/history"
	"worldinfo/internal/models"
	"worldinfo/internal/providers"
	"worldinfo/internal/services"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const maxRequestBodySize = 8 << 20

type ApiController struct {
	logger  providers.Logger
	service services.TrackerServiceInterface
	cache   providers.CacheProviderInterface
	fetcher fetch.FetcherInterface
	metrics providers.MetricsProviderInterface
	flight  singleflight.Group

	// generation counts ingests; cached responses are keyed by it
	generation atomic.Uint64
}

func NewApiController(logger providers.Logger, service services.TrackerServiceInterface, cache providers.CacheProviderInterface, fetcher fetch.FetcherInterface, metrics providers.MetricsProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
		fetcher: fetcher,
		metrics: metrics,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// cacheKey scopes name to the current ingest generation. A response computed
// while an ingest ran is stored under the old generation and never served.
func (ac *ApiController) cacheKey(name string) string {
	return name + "#" + strconv.FormatUint(ac.generation.Load(), 10)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, name string, compute func() (any, error)) {
	cacheKey := ac.cacheKey(name)
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	// concurrent misses on one key share a single compute
	shared, err, _ := ac.flight.Do(cacheKey, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		gson, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		ac.cache.Set(cacheKey, gson)
		return gson, nil
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	gson := shared.([]byte)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// optionalInt reads a non-negative integer query parameter. Absent means 0.
func optionalInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return v, nil
}

func (ac *ApiController) ingest(batch []models.RawRecord, fetchedAt time.Time) services.IngestResult {
	result := ac.service.IngestRaw(batch, fetchedAt)
	ac.generation.Inc()
	ac.cache.Clear()
	ac.metrics.ObserveIngest(result)
	ac.logger.Infof(providers.TypePost, "Ingested batch %s: %d received, %d worlds, %d appended, %d duplicates, %d skipped",
		result.BatchID, result.Received, result.Entities, result.Appended, result.Duplicates, result.Skipped)
	return result
}

// IngestSnapshots accepts a JSON array of raw world records. The fetch time
// defaults to now and can be set with an RFC 3339 fetchedAt parameter.
func (ac *ApiController) IngestSnapshots(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var batch []models.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	fetchedAt := time.Now()
	if raw := r.URL.Query().Get("fetchedAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "fetchedAt must be RFC 3339", http.StatusBadRequest)
			return
		}
		fetchedAt = t
	}

	writeJSON(w, http.StatusCreated, ac.ingest(batch, fetchedAt))
}

// Fetch queries the upstream API by keyword or user id and ingests the result.
func (ac *ApiController) Fetch(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalInt(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := fetch.Query{
		Keyword: r.URL.Query().Get("keyword"),
		UserID:  r.URL.Query().Get("user"),
		Limit:   limit,
	}

	batch, err := ac.fetcher.Fetch(r.Context(), q)
	if err != nil {
		ac.metrics.IncFetchTotal("error")
		if errors.Is(err, fetch.ErrEmptyQuery) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ac.logger.Errorf(providers.TypePost, "Fetch failed: %s", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	ac.metrics.IncFetchTotal("ok")

	writeJSON(w, http.StatusOK, ac.ingest(batch, time.Now()))
}

func (ac *ApiController) GetWorlds(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "worlds", func() (any, error) {
		return ac.service.MetricsRows(), nil
	})
}

func (ac *ApiController) GetWorldsCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="worlds.csv"`)
	if err := history.WriteTable(w, ac.service.MetricsRows()); err != nil {
		ac.logger.Errorf(providers.TypeGet, "Unable to write table: %s", err)
	}
}

func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "history:"+id, func() (any, error) {
		return ac.service.HistoryRows(id), nil
	})
}

func (ac *ApiController) GetEntities(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "entities", func() (any, error) {
		return ac.service.Entities(), nil
	})
}

// GetChart projects one world on a canvas of w by h pixels. Missing sizes fall
// back to the configured canvas.
func (ac *ApiController) GetChart(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	width, err := optionalInt(r, "w")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := optionalInt(r, "h")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	proj, ok := ac.service.Chart(id, chart.Canvas{Width: float64(width), Height: float64(height)})
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (ac *ApiController) GetDashboard(w http.ResponseWriter, r *http.Request) {
	width, err := optionalInt(r, "width")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ac.service.Dashboard(width))
}

func (ac *ApiController) SearchWorlds(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("sort")
	if order == "" {
		order = services.SortPopular
	}
	if order != services.SortPopular && order != services.SortLatest {
		http.Error(w, "sort must be latest or popular", http.StatusBadRequest)
		return
	}
	tag := r.URL.Query().Get("tag")
	ac.serveFromCacheOrCompute(w, "search:"+order+":"+tag, func() (any, error) {
		return ac.service.Search(tag, order), nil
	})
}

func (ac *ApiController) GetTags(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "tags", func() (any, error) {
		return ac.service.Tags(), nil
	})
}
