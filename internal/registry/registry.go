// Package registry holds the engine's deduplicated view of currently
// active sessions and the pure pagination projection over it.
package registry

import (
	"sync"
	"time"

	"github.com/sanohind/sessiondeck/internal/domain"
	"github.com/sanohind/sessiondeck/internal/metrics"
)

// Registry is the in-memory set of currently-known-active sessions. It is
// owned by the sync engine: exactly one writer, any number of snapshot
// readers. Writers replace the contents wholesale; the only incremental
// mutation is the optimistic removal after a confirmed invalidation.
type Registry struct {
	mu       sync.RWMutex
	sessions []domain.Session
	stale    bool
}

func New() *Registry {
	return &Registry{}
}

// Dedupe folds a raw fetch result into a canonical list with one entry per
// session ID. The remote source does not guarantee uniqueness, so this runs
// on every fetch. First observation wins when duplicates disagree.
func Dedupe(raw []domain.Session) []domain.Session {
	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.Session, 0, len(raw))
	for _, s := range raw {
		if _, dup := seen[s.ID]; dup {
			metrics.RegistryDuplicatesDropped.Inc()
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Replace swaps in a freshly fetched session list as one atomic snapshot.
// The input is deduplicated, and LastActivityTime is clamped against the
// previous observation of the same session: that field never regresses.
// Returns a copy of the applied snapshot.
func (r *Registry) Replace(raw []domain.Session) []domain.Session {
	merged := Dedupe(raw)

	r.mu.Lock()
	prev := make(map[string]time.Time, len(r.sessions))
	for _, s := range r.sessions {
		prev[s.ID] = s.LastActivityTime
	}
	for i := range merged {
		if last, ok := prev[merged[i].ID]; ok && merged[i].LastActivityTime.Before(last) {
			merged[i].LastActivityTime = last
		}
	}
	r.sessions = merged
	r.stale = false
	r.mu.Unlock()

	metrics.RegistrySessions.Set(float64(len(merged)))
	return copySessions(merged)
}

// WarmStart seeds the registry from a cached snapshot. The entries are
// marked stale until the first successful poll replaces them wholesale.
func (r *Registry) WarmStart(cached []domain.Session) {
	merged := Dedupe(cached)

	r.mu.Lock()
	r.sessions = merged
	r.stale = true
	r.mu.Unlock()

	metrics.RegistrySessions.Set(float64(len(merged)))
}

// Remove deletes one session by ID, returning the removed entry. Used for
// the optimistic update after a confirmed invalidation; the next poll
// remains authoritative.
func (r *Registry) Remove(id string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sessions {
		if s.ID == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			metrics.RegistrySessions.Set(float64(len(r.sessions)))
			return s, true
		}
	}
	return domain.Session{}, false
}

// Snapshot returns a consistent copy of the current session list.
func (r *Registry) Snapshot() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySessions(r.sessions)
}

// Len returns the number of sessions currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stale reports whether the current contents came from a warm-start cache
// rather than a live poll.
func (r *Registry) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stale
}

// Page returns one bounded view over the current snapshot.
func (r *Registry) Page(page, pageSize int) domain.SessionPage {
	r.mu.RLock()
	total := len(r.sessions)
	stale := r.stale
	slice := Paginate(r.sessions, page, pageSize)
	r.mu.RUnlock()

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return domain.SessionPage{
		Sessions:   slice,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Stale:      stale,
	}
}

// Paginate returns the 1-based page of the given size, clipped to the list
// bounds. Out-of-range pages yield an empty slice rather than an error; the
// caller's UI layer clamps the index. Pure projection, never mutates input.
func Paginate(list []domain.Session, page, pageSize int) []domain.Session {
	if page < 1 || pageSize < 1 {
		return []domain.Session{}
	}
	start := (page - 1) * pageSize
	if start >= len(list) {
		return []domain.Session{}
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return copySessions(list[start:end])
}

func copySessions(list []domain.Session) []domain.Session {
	out := make([]domain.Session, len(list))
	copy(out, list)
	return out
}
