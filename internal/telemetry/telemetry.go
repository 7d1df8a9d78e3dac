// Package telemetry records local segmentation and query metrics:
// engine usage, fallback rate, latency distribution, and zero-result
// queries. Everything stays on disk in a local SQLite file - nothing is
// reported externally.
package telemetry

import (
	"sync"
	"time"
)

// LatencyBucket is one histogram bucket for segmentation latency.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// SegmentationEvent is one segmentation call worth recording.
type SegmentationEvent struct {
	EngineLabel  string
	TokenCount   int
	FallbackUsed bool
	Latency      time.Duration
}

// QueryEvent is one processed search query.
type QueryEvent struct {
	Query       string
	Kind        string
	ResultCount int
	Latency     time.Duration
}

// Recorder aggregates events in memory. Flush writes the aggregates to
// a Store and resets the counters. All methods are safe for concurrent
// use; recording never blocks on I/O.
type Recorder struct {
	mu sync.Mutex

	engineCounts   map[string]int64
	fallbackCount  int64
	segmentLatency map[LatencyBucket]int64
	queryKinds     map[string]int64
	queryLatency   map[LatencyBucket]int64
	zeroResults    []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		engineCounts:   map[string]int64{},
		segmentLatency: map[LatencyBucket]int64{},
		queryKinds:     map[string]int64{},
		queryLatency:   map[LatencyBucket]int64{},
	}
}

// RecordSegmentation counts one segmentation call.
func (r *Recorder) RecordSegmentation(ev SegmentationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.engineCounts[ev.EngineLabel]++
	if ev.FallbackUsed {
		r.fallbackCount++
	}
	r.segmentLatency[LatencyToBucket(ev.Latency)]++
}

// RecordQuery counts one processed query.
func (r *Recorder) RecordQuery(ev QueryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queryKinds[ev.Kind]++
	r.queryLatency[LatencyToBucket(ev.Latency)]++
	if ev.ResultCount == 0 && ev.Query != "" {
		r.zeroResults = append(r.zeroResults, ev.Query)
	}
}

// Snapshot returns a copy of the current aggregates without resetting.
func (r *Recorder) Snapshot() (engines map[string]int64, fallbacks int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	engines = make(map[string]int64, len(r.engineCounts))
	for k, v := range r.engineCounts {
		engines[k] = v
	}
	return engines, r.fallbackCount
}

// Flush persists the aggregates for today's date and resets the
// in-memory counters. Store errors are returned but leave the counters
// reset: telemetry is best-effort and must never wedge the pipeline.
func (r *Recorder) Flush(store *Store) error {
	r.mu.Lock()
	engines := r.engineCounts
	fallbacks := r.fallbackCount
	segLatency := r.segmentLatency
	kinds := r.queryKinds
	qLatency := r.queryLatency
	zero := r.zeroResults

	r.engineCounts = map[string]int64{}
	r.fallbackCount = 0
	r.segmentLatency = map[LatencyBucket]int64{}
	r.queryKinds = map[string]int64{}
	r.queryLatency = map[LatencyBucket]int64{}
	r.zeroResults = nil
	r.mu.Unlock()

	date := time.Now().UTC().Format("2006-01-02")

	if err := store.SaveEngineCounts(date, engines, fallbacks); err != nil {
		return err
	}
	if err := store.SaveLatencyCounts(date, "segment", segLatency); err != nil {
		return err
	}
	if err := store.SaveQueryKindCounts(date, kinds); err != nil {
		return err
	}
	if err := store.SaveLatencyCounts(date, "query", qLatency); err != nil {
		return err
	}
	for _, q := range zero {
		if err := store.AddZeroResultQuery(q, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}
