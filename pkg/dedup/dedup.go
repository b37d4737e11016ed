package dedup

import (
	"context"
	"sync"
	"time"
)

// Ledger remembers job ids for a bounded time so that a redelivered job descriptor is
// recognised before anything is written again.
//
// A worker Claims the job before reading, Marks it after a commit that created records
// and Releases it when nothing was created, so a later delivery may retry.
type Ledger interface {
	// Seen reports whether jobID is claimed or committed and has not expired yet.
	Seen(ctx context.Context, jobID string) (bool, error)
	// Claim atomically takes jobID for the lease period. It reports false when another
	// delivery holds or has committed the job.
	Claim(ctx context.Context, jobID string) (bool, error)
	// Mark records jobID as committed for the full ttl.
	Mark(ctx context.Context, jobID string) error
	// Release drops a claim that produced no records.
	Release(ctx context.Context, jobID string) error
}

// Nop never remembers anything.
type Nop struct{}

func (Nop) Seen(context.Context, string) (bool, error)  { return false, nil }
func (Nop) Claim(context.Context, string) (bool, error) { return true, nil }
func (Nop) Mark(context.Context, string) error          { return nil }
func (Nop) Release(context.Context, string) error       { return nil }

// Memory is a process local Ledger, for single instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	lease   time.Duration
	now     func() time.Time
	entries map[string]time.Time // job id -> expiry
}

// NewMemory creates an in-process ledger. Claims live for lease, marks for ttl.
func NewMemory(ttl, lease time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		lease:   lease,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

func (m *Memory) Seen(_ context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(jobID, m.now()), nil
}

func (m *Memory) Claim(_ context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.live(jobID, now) {
		return false, nil
	}
	m.entries[jobID] = now.Add(m.lease)
	return true, nil
}

func (m *Memory) Mark(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// opportunistic sweep keeps the map bounded by live entries
	for id, expiry := range m.entries {
		if !now.Before(expiry) {
			delete(m.entries, id)
		}
	}
	m.entries[jobID] = now.Add(m.ttl)
	return nil
}

func (m *Memory) Release(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jobID)
	return nil
}

// live must be called with mu held
func (m *Memory) live(jobID string, now time.Time) bool {
	expiry, ok := m.entries[jobID]
	if !ok {
		return false
	}
	if !now.Before(expiry) {
		delete(m.entries, jobID)
		return false
	}
	return true
}
