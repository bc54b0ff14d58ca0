package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the payload size above which cached values are
// stored zstd-compressed. Small payloads are not worth the CPU.
const compressThreshold = 4 * 1024

// entryOverhead approximates the per-entry bookkeeping cost charged
// against the byte budget in addition to the payload itself.
const entryOverhead = 128

// ResponseKey uniquely identifies a cached backend response. Keys are
// always backend-scoped: the same query against two backends yields two
// independent entries.
type ResponseKey struct {
	Backend   string
	QueryHash string
}

type storedValue struct {
	data       []byte
	compressed bool
}

// ResponseCache caches enhancement backend responses with per-backend
// TTLs and a shared byte budget. Values above compressThreshold are
// transparently zstd-compressed; the compressed size is what counts
// against the budget.
type ResponseCache struct {
	cache      *Cache[ResponseKey, storedValue]
	defaultTTL time.Duration
	ttls       map[string]time.Duration

	enc *zstd.Encoder
	dec *zstd.Decoder

	mu         sync.Mutex
	perBackend map[string]*BackendStats
}

// NewResponseCache creates a response cache bounded by maxBytes. The ttls
// map assigns each backend its configured TTL; backends not present use
// defaultTTL.
func NewResponseCache(maxBytes int64, defaultTTL time.Duration, ttls map[string]time.Duration) (*ResponseCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	if ttls == nil {
		ttls = make(map[string]time.Duration)
	}

	return &ResponseCache{
		cache: New[ResponseKey, storedValue](maxBytes, func(v storedValue) int64 {
			return int64(len(v.data)) + entryOverhead
		}),
		defaultTTL: defaultTTL,
		ttls:       ttls,
		enc:        enc,
		dec:        dec,
		perBackend: make(map[string]*BackendStats),
	}, nil
}

// Get retrieves a cached response for the backend and query. Returns the
// payload and true on a live hit; expired or missing entries report false.
// Decompression failures degrade to a miss, never an error.
func (rc *ResponseCache) Get(backend, query string) ([]byte, bool) {
	key := MakeKey(backend, query)

	sv, age, ok := rc.cache.GetWithAge(key)
	if !ok {
		rc.count(backend, false, 0)
		return nil, false
	}
	slog.Debug("cache hit", "backend", backend, "age", age)

	data := sv.data
	if sv.compressed {
		decoded, err := rc.dec.DecodeAll(sv.data, nil)
		if err != nil {
			slog.Warn("cache entry decompression failed, treating as miss",
				"backend", backend, "error", err)
			rc.cache.Invalidate(key)
			rc.count(backend, false, 0)
			return nil, false
		}
		data = decoded
	}

	rc.count(backend, true, 0)
	return data, true
}

// Set stores a response under the backend's configured TTL. The TTL is
// determined solely by the backend; callers cannot override it per call.
// Returns false only when the value could not be stored.
func (rc *ResponseCache) Set(backend, query string, value []byte) bool {
	if len(value) == 0 {
		return false
	}

	sv := storedValue{data: value}
	if len(value) > compressThreshold {
		compressed := rc.enc.EncodeAll(value, make([]byte, 0, len(value)/2))
		if len(compressed) < len(value) {
			sv = storedValue{data: compressed, compressed: true}
		}
	}

	rc.cache.Set(MakeKey(backend, query), sv, rc.ttl(backend))
	rc.count(backend, false, 1)
	return true
}

// Invalidate drops the cached entry for one backend/query pair.
func (rc *ResponseCache) Invalidate(backend, query string) {
	rc.cache.Invalidate(MakeKey(backend, query))
}

// InvalidateBackend drops every cached entry for a backend.
func (rc *ResponseCache) InvalidateBackend(backend string) {
	rc.cache.InvalidateFunc(func(k ResponseKey) bool {
		return k.Backend == backend
	})
}

// Flush removes all entries.
func (rc *ResponseCache) Flush() {
	rc.cache.Flush()
}

// Stats returns a snapshot of cache counters, including per-backend
// hit/miss breakdowns and live entry counts.
func (rc *ResponseCache) Stats() ResponseStats {
	s := ResponseStats{
		Stats:      rc.cache.Stats(),
		PerBackend: make(map[string]BackendStats),
	}

	entries := make(map[string]int)
	for _, k := range rc.cache.Keys() {
		entries[k.Backend]++
	}

	rc.mu.Lock()
	for backend, bs := range rc.perBackend {
		s.PerBackend[backend] = BackendStats{
			Hits:    bs.Hits,
			Misses:  bs.Misses,
			Entries: entries[backend],
		}
	}
	rc.mu.Unlock()

	for backend, n := range entries {
		if _, ok := s.PerBackend[backend]; !ok {
			s.PerBackend[backend] = BackendStats{Entries: n}
		}
	}
	return s
}

func (rc *ResponseCache) ttl(backend string) time.Duration {
	if ttl, ok := rc.ttls[backend]; ok && ttl > 0 {
		return ttl
	}
	return rc.defaultTTL
}

// count updates the per-backend counters. hit/miss are mutually exclusive
// with sets (sets pass hit=false, set=1 and are not counted as misses).
func (rc *ResponseCache) count(backend string, hit bool, set int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	bs, ok := rc.perBackend[backend]
	if !ok {
		bs = &BackendStats{}
		rc.perBackend[backend] = bs
	}
	if set > 0 {
		return
	}
	if hit {
		bs.Hits++
	} else {
		bs.Misses++
	}
}

// MakeKey builds a backend-scoped cache key from the raw query text.
func MakeKey(backend, query string) ResponseKey {
	h := sha256.Sum256([]byte(Normalize(query)))
	return ResponseKey{
		Backend:   backend,
		QueryHash: hex.EncodeToString(h[:16]),
	}
}

// Normalize canonicalizes query text for cache keying: lowercased with
// whitespace runs collapsed to single spaces.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
