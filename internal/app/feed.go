package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
)

const provisionalPrefix = "temp-"

// Feed is the live view of one user's attempt list. Every change is pushed to
// subscribers as a full snapshot.
type Feed struct {
	userID      string
	now         func() time.Time
	mu          sync.RWMutex
	loaded      bool
	attempts    []domain.Attempt
	subscribers map[chan domain.AttemptList]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(userID string) *Feed {
	return NewFeedWithClock(userID, time.Now)
}

// NewFeedWithClock allows deterministic timestamps in tests.
func NewFeedWithClock(userID string, now func() time.Time) *Feed {
	return &Feed{
		userID:      userID,
		now:         now,
		subscribers: make(map[chan domain.AttemptList]struct{}),
	}
}

// Provisional adds a tentative entry and returns its temporary id.
func (f *Feed) Provisional(attempt domain.Attempt) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	attempt.ID = provisionalPrefix + uuid.NewString()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = f.now()
	}
	f.attempts = append([]domain.Attempt{attempt}, f.attempts...)
	f.broadcastLocked()
	return attempt.ID
}

// Confirm swaps the provisional entry for the stored record.
func (f *Feed) Confirm(tempID string, saved domain.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// a reconcile between insert and confirm may already list the stored record
	next := f.attempts[:0]
	for _, a := range f.attempts {
		if a.ID != saved.ID && a.ID != tempID {
			next = append(next, a)
		}
	}
	f.attempts = append(next, saved)
	sortNewestFirst(f.attempts)
	f.broadcastLocked()
}

// Discard removes a provisional entry after a failed write.
func (f *Feed) Discard(tempID string) {
	f.Remove(tempID)
}

// Remove drops the entry with the given id, if present.
func (f *Feed) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.attempts {
		if f.attempts[i].ID == id {
			f.attempts = append(f.attempts[:i], f.attempts[i+1:]...)
			f.broadcastLocked()
			return
		}
	}
}

// Replace reconciles the view with a fresh read from the store. Entries
// still awaiting confirmation are kept.
func (f *Feed) Replace(attempts []domain.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]domain.Attempt, 0, len(attempts)+1)
	for _, a := range f.attempts {
		if strings.HasPrefix(a.ID, provisionalPrefix) {
			next = append(next, a)
		}
	}
	next = append(next, attempts...)
	sortNewestFirst(next)
	f.attempts = next
	f.loaded = true
	f.broadcastLocked()
}

// Loaded reports whether the feed has been filled from the store.
func (f *Feed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Snapshot returns a copy of the current view.
func (f *Feed) Snapshot() domain.AttemptList {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

// IsEmpty reports whether nobody is subscribed to the feed.
func (f *Feed) IsEmpty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

// Subscribe registers a listener that first receives the current snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.AttemptList, func()) {
	ch := make(chan domain.AttemptList, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	// buffer is empty, so this cannot block
	ch <- f.snapshotLocked()
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) broadcastLocked() {
	list := f.snapshotLocked()
	for ch := range f.subscribers {
		select {
		case ch <- list:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- list
		}
	}
}

func (f *Feed) snapshotLocked() domain.AttemptList {
	attempts := make([]domain.Attempt, len(f.attempts))
	copy(attempts, f.attempts)
	return domain.AttemptList{
		UserID:    f.userID,
		Attempts:  attempts,
		UpdatedAt: f.now(),
	}
}

func sortNewestFirst(attempts []domain.Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
	})
}
