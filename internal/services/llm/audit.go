package llm

import (
	"sync"
	"time"

	"github.com/ternarybob/litemark/internal/common"
)

// DefaultAuditSize is the number of recent calls kept by an AuditLog
const DefaultAuditSize = 50

// AuditEntry records one completion call
type AuditEntry struct {
	Timestamp time.Time          `json:"timestamp"`
	Provider  common.LLMProvider `json:"provider"`
	Model     string             `json:"model"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	Duration  int64              `json:"duration_ms"`
}

// AuditStats summarizes the calls seen since startup
type AuditStats struct {
	Calls     int64        `json:"calls"`
	Failures  int64        `json:"failures"`
	LastError string       `json:"last_error,omitempty"`
	Recent    []AuditEntry `json:"recent,omitempty"`
}

// AuditLog keeps counters and a ring of recent calls in memory
type AuditLog struct {
	mu        sync.Mutex
	entries   []AuditEntry
	next      int
	full      bool
	calls     int64
	failures  int64
	lastError string
}

// NewAuditLog creates an audit log holding up to size recent entries
func NewAuditLog(size int) *AuditLog {
	if size <= 0 {
		size = DefaultAuditSize
	}
	return &AuditLog{entries: make([]AuditEntry, size)}
}

// Record adds one call outcome
func (a *AuditLog) Record(provider common.LLMProvider, model string, duration time.Duration, err error) {
	entry := AuditEntry{
		Timestamp: time.Now(),
		Provider:  provider,
		Model:     model,
		Success:   err == nil,
		Duration:  duration.Milliseconds(),
	}
	if err != nil {
		entry.Error = common.Truncate(err.Error(), 200)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if err != nil {
		a.failures++
		a.lastError = entry.Error
	}
	a.entries[a.next] = entry
	a.next = (a.next + 1) % len(a.entries)
	if a.next == 0 {
		a.full = true
	}
}

// Stats returns counters and up to limit recent entries, newest first
func (a *AuditLog) Stats(limit int) AuditStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AuditStats{
		Calls:     a.calls,
		Failures:  a.failures,
		LastError: a.lastError,
	}

	n := a.next
	if a.full {
		n = len(a.entries)
	}
	if limit > n {
		limit = n
	}
	for i := 0; i < limit; i++ {
		idx := (a.next - 1 - i + len(a.entries)) % len(a.entries)
		stats.Recent = append(stats.Recent, a.entries[idx])
	}
	return stats
}
