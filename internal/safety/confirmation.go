package safety

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConfirmationTTL is how long a pending confirmation stays usable.
const ConfirmationTTL = 5 * time.Minute

// sweepInterval is how often the background sweeper evicts expired entries.
// Lookups also check expiry, so the sweeper only bounds memory growth.
const sweepInterval = time.Minute

// PendingOperation describes a blocked operation verbatim, with everything
// needed to replay it after the caller confirms.
type PendingOperation struct {
	Surface Surface

	// Query is the original SQL text for database-surface operations.
	Query string

	// Method, Path, QueryParams and Body describe an API-surface request.
	Method      string
	Path        string
	QueryParams map[string]string
	Body        map[string]any
}

type pendingEntry struct {
	op        PendingOperation
	createdAt time.Time
	expiresAt time.Time
}

// confirmationStore keeps operations awaiting confirmation, keyed by an
// opaque random id. All access goes through the mutex; entries are consumed
// on first successful lookup so a confirmation can never replay twice.
type confirmationStore struct {
	mu      sync.Mutex
	pending map[string]pendingEntry
	now     func() time.Time
	done    chan struct{}
	stopped sync.Once
}

func newConfirmationStore(now func() time.Time) *confirmationStore {
	if now == nil {
		now = time.Now
	}
	s := &confirmationStore{
		pending: make(map[string]pendingEntry),
		now:     now,
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Store registers an operation and returns its confirmation id.
func (s *confirmationStore) Store(op PendingOperation) string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	s.pending[id] = pendingEntry{
		op:        op,
		createdAt: now,
		expiresAt: now.Add(ConfirmationTTL),
	}
	s.mu.Unlock()

	return id
}

// Consume returns the stored operation and removes it atomically. An
// unknown or expired id reports ok=false. Removal under the lock guarantees
// that two concurrent Consume calls for the same id cannot both succeed.
func (s *confirmationStore) Consume(id string) (PendingOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[id]
	if !ok {
		return PendingOperation{}, false
	}
	delete(s.pending, id)
	if s.now().After(entry.expiresAt) {
		return PendingOperation{}, false
	}
	return entry.op, true
}

// Len reports the number of pending entries, expired or not.
func (s *confirmationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *confirmationStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *confirmationStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for id, entry := range s.pending {
		if now.After(entry.expiresAt) {
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()
}

func (s *confirmationStore) Close() {
	s.stopped.Do(func() { close(s.done) })
}
