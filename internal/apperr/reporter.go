package apperr

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of reports kept when none is configured.
const DefaultCapacity = 100

// Report is one recorded failure.
type Report struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Reporter keeps the most recent reports in a ring buffer and counts every
// report per kind. It is safe for concurrent use.
type Reporter struct {
	mu     sync.Mutex
	buf    []Report
	next   int
	full   bool
	counts map[Kind]int
	logger *slog.Logger
	now    func() time.Time
}

// NewReporter creates a reporter retaining up to capacity reports.
// A nil logger discards log output.
func NewReporter(capacity int, logger *slog.Logger) *Reporter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reporter{
		buf:    make([]Report, capacity),
		counts: make(map[Kind]int),
		logger: logger,
		now:    time.Now,
	}
}

// Report records err. Nil errors are ignored. Reporting never fails.
func (r *Reporter) Report(err error) {
	if r == nil || err == nil {
		return
	}
	rep := Report{
		ID:      uuid.NewString(),
		Kind:    KindOf(err),
		Message: err.Error(),
	}
	if ae, ok := err.(*Error); ok {
		rep.Op = ae.Op
	}

	r.mu.Lock()
	rep.Time = r.now()
	r.buf[r.next] = rep
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.counts[rep.Kind]++
	r.mu.Unlock()

	r.logger.Warn("error reported",
		slog.String("id", rep.ID),
		slog.String("kind", string(rep.Kind)),
		slog.String("op", rep.Op),
		slog.String("error", rep.Message))
}

// Recent returns up to n reports, newest first. n <= 0 returns all retained.
func (r *Reporter) Recent(n int) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.buf)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Report, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Counts returns the number of reports per kind since creation or the last Reset.
// Counts include reports that have been overwritten in the ring buffer.
func (r *Reporter) Counts() map[Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Kind]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// Reset drops all retained reports and counts.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.next = 0
	r.full = false
	r.counts = make(map[Kind]int)
}
