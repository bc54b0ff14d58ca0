package cache

// Stats holds cache performance metrics.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Entries   int     `json:"entries"`
	Cost      int64   `json:"cost_bytes"`
	HitRate   float64 `json:"hit_rate"`
}

// ResponseStats extends Stats with per-backend hit/miss breakdowns for
// the response cache snapshot.
type ResponseStats struct {
	Stats
	PerBackend map[string]BackendStats `json:"per_backend"`
}

// BackendStats holds the per-backend slice of the response cache counters.
type BackendStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}
