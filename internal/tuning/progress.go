package tuning

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"FinTune/internal/domain/models"
)

// progressEntry holds the live counters for one instrument. Workers update
// it concurrently through atomics; readers get consistent-enough snapshots
// without locks.
type progressEntry struct {
	symbol    string
	total     int
	tested    atomic.Int64
	status    atomic.Value // models.TuningStatus
	bestBits  atomic.Uint64
	startedAt time.Time
	updatedAt atomic.Int64 // unix nanos
	endedAt   atomic.Int64
}

func (e *progressEntry) snapshot() models.TuningProgress {
	p := models.TuningProgress{
		Symbol:        e.symbol,
		TotalConfigs:  e.total,
		TestedConfigs: int(e.tested.Load()),
		Status:        e.status.Load().(models.TuningStatus),
		BestScore:     math.Float64frombits(e.bestBits.Load()),
		StartedAt:     e.startedAt,
	}
	if u := e.updatedAt.Load(); u > 0 {
		p.UpdatedAt = time.Unix(0, u)
	}
	if u := e.endedAt.Load(); u > 0 {
		p.EndedAt = time.Unix(0, u)
	}
	return p
}

// ProgressBoard is the shared, concurrently updated tuning progress map.
type ProgressBoard struct {
	entries sync.Map // symbol -> *progressEntry
}

func NewProgressBoard() *ProgressBoard {
	return &ProgressBoard{}
}

// Start registers a run and returns its tracker. A restarted symbol
// replaces its previous record.
func (b *ProgressBoard) Start(symbol string, totalConfigs int) *ProgressTracker {
	e := &progressEntry{symbol: symbol, total: totalConfigs, startedAt: time.Now()}
	e.status.Store(models.StatusRunning)
	e.updatedAt.Store(e.startedAt.UnixNano())
	b.entries.Store(symbol, e)
	return &ProgressTracker{entry: e}
}

// Get returns the snapshot for one symbol, if present.
func (b *ProgressBoard) Get(symbol string) (models.TuningProgress, bool) {
	v, ok := b.entries.Load(symbol)
	if !ok {
		return models.TuningProgress{}, false
	}
	return v.(*progressEntry).snapshot(), true
}

// Snapshot returns all records, sorted by symbol for stable output.
func (b *ProgressBoard) Snapshot() []models.TuningProgress {
	var out []models.TuningProgress
	b.entries.Range(func(_, v interface{}) bool {
		out = append(out, v.(*progressEntry).snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ProgressTracker is the write handle held by one orchestration run.
type ProgressTracker struct {
	entry *progressEntry
}

// TaskDone records one resolved task (success or failure).
func (t *ProgressTracker) TaskDone() {
	t.entry.tested.Add(1)
	t.entry.updatedAt.Store(time.Now().UnixNano())
}

// SetBestScore publishes the current running-best business score.
func (t *ProgressTracker) SetBestScore(score float64) {
	t.entry.bestBits.Store(math.Float64bits(score))
	t.entry.updatedAt.Store(time.Now().UnixNano())
}

// Finish sets the terminal status and end timestamp.
func (t *ProgressTracker) Finish(status models.TuningStatus) {
	t.entry.status.Store(status)
	now := time.Now().UnixNano()
	t.entry.updatedAt.Store(now)
	t.entry.endedAt.Store(now)
}

// Snapshot returns the current state of this run.
func (t *ProgressTracker) Snapshot() models.TuningProgress {
	return t.entry.snapshot()
}

// ExceptionQueue is the global append-only failure report. Entries are never
// mutated after append.
type ExceptionQueue struct {
	mu      sync.Mutex
	entries []models.ExceptionEntry
}

func NewExceptionQueue() *ExceptionQueue {
	return &ExceptionQueue{}
}

// Append records one captured failure.
func (q *ExceptionQueue) Append(e models.ExceptionEntry) {
	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()
}

// Snapshot returns a copy of all entries in append order.
func (q *ExceptionQueue) Snapshot() []models.ExceptionEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.ExceptionEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of recorded exceptions.
func (q *ExceptionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
