package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numWorlds    = 200
	batchSize    = 25
)

var tags = []string{"game", "chill", "horror", "music", "avatar"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

// fetch times must grow across ingests, otherwise snapshots are dropped
var clock atomic.Int64

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== WorldInfo Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Worlds: %d | Batch size: %d\n\n", numWorlds, batchSize)

	clock.Store(time.Now().Add(-365 * 24 * time.Hour).Unix())

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Seeding history (POST /snapshots) ---")
	runPhase(testDuration, doIngest)

	fmt.Println("\n--- Phase 2: Mixed load (30% POST, 70% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doIngest(rng)
		case r < 0.50:
			return doGet("/worlds", "GET /worlds")
		case r < 0.70:
			return doGet(fmt.Sprintf("/chart?id=%s&w=800&h=240", worldID(rng)), "GET /chart")
		case r < 0.85:
			return doGet(fmt.Sprintf("/history?id=%s", worldID(rng)), "GET /history")
		default:
			return doGet("/worlds/search?tag="+tags[rng.Intn(len(tags))], "GET /worlds/search")
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (5% POST, 95% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doIngest(rng)
		case r < 0.35:
			return doGet("/worlds", "GET /worlds")
		case r < 0.60:
			return doGet(fmt.Sprintf("/chart?id=%s", worldID(rng)), "GET /chart")
		case r < 0.75:
			return doGet("/dashboard?width=1200", "GET /dashboard")
		case r < 0.90:
			return doGet("/entities", "GET /entities")
		default:
			return doGet("/tags", "GET /tags")
		}
	})
}

func worldID(rng *rand.Rand) string {
	return fmt.Sprintf("wrld_%04d", rng.Intn(numWorlds))
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doIngest(rng *rand.Rand) result {
	fetchedAt := time.Unix(clock.Add(3600), 0).UTC()
	batch := make([]map[string]any, batchSize)
	for i := range batch {
		visits := rng.Intn(20000)
		batch[i] = map[string]any{
			"id":              worldID(rng),
			"name":            fmt.Sprintf("World %d", i),
			"visits":          visits,
			"favorites":       rng.Intn(visits/10 + 1),
			"heat":            rng.Intn(10),
			"popularity":      rng.Intn(10),
			"tags":            []string{tags[rng.Intn(len(tags))]},
			"publicationDate": fetchedAt.AddDate(0, 0, -rng.Intn(300)-1).Format(time.RFC3339),
		}
	}

	data, _ := json.Marshal(batch)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/snapshots?fetchedAt="+fetchedAt.Format(time.RFC3339), "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /snapshots", 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /snapshots", resp.StatusCode, lat, resp.StatusCode != http.StatusCreated}
}

func doGet(path, endpoint string) result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	// unknown ids are expected while history is still sparse
	failed := resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound
	return result{endpoint, resp.StatusCode, lat, failed}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
