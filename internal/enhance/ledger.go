package enhance

import "time"

// CallRecord captures one dispatch attempt against a backend. Records
// are immutable once appended to a Ledger.
type CallRecord struct {
	Backend        string        `json:"backend"`
	Capability     string        `json:"capability"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	Cached         bool          `json:"cached"`
	Error          string        `json:"error,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Ledger is the ordered list of call attempts made while servicing one
// logical request. It is owned by the caller of the Dispatcher and
// discarded at end of request; it is not safe for concurrent use.
type Ledger struct {
	records []CallRecord
}

// NewLedger creates an empty per-request ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a record to the ledger.
func (l *Ledger) Append(rec CallRecord) {
	l.records = append(l.records, rec)
}

// Records returns the appended records in order. The returned slice is
// the ledger's backing store; callers must not mutate it.
func (l *Ledger) Records() []CallRecord {
	return l.records
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// HasFailure reports whether any recorded attempt failed.
func (l *Ledger) HasFailure() bool {
	for _, rec := range l.records {
		if !rec.Success {
			return true
		}
	}
	return false
}

// Response is the outcome of one dispatch, successful or degraded. The
// dispatcher always returns a Response, never a panic, even when every
// backend failed.
type Response struct {
	Content          []byte `json:"content"`
	SourceBackend    string `json:"source_backend"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Success          bool   `json:"success"`
	Cached           bool   `json:"cached"`
	Error            string `json:"error,omitempty"`
}
