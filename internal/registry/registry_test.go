package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanohind/sessiondeck/internal/domain"
)

func session(id, username string) domain.Session {
	return domain.Session{ID: id, Username: username}
}

func sessions(n int) []domain.Session {
	out := make([]domain.Session, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, session(fmt.Sprintf("s%03d", i), fmt.Sprintf("user%d", i)))
	}
	return out
}

func TestDedupe_DistinctIDsSurvive(t *testing.T) {
	input := []domain.Session{session("a", "u1"), session("b", "u2"), session("c", "u3")}
	assert.Len(t, Dedupe(input), 3)
}

func TestDedupe_FirstObservedWins(t *testing.T) {
	input := []domain.Session{
		session("a", "u1"),
		session("a", "u1-dup"),
		session("b", "u2"),
	}

	out := Dedupe(input)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "u1", out[0].Username)
	assert.Equal(t, "b", out[1].ID)
}

func TestDedupe_CountInvariant(t *testing.T) {
	// n entries with k distinct ids collapse to exactly k entries.
	var input []domain.Session
	for i := 0; i < 50; i++ {
		input = append(input, session(fmt.Sprintf("id%d", i%7), "u"))
	}
	assert.Len(t, Dedupe(input), 7)
}

func TestDedupe_SameUserDifferentSessionsKept(t *testing.T) {
	// Dedup is keyed by session ID, never by username: one user may hold
	// several concurrent logins.
	input := []domain.Session{session("a", "alice"), session("b", "alice")}
	assert.Len(t, Dedupe(input), 2)
}

func TestReplace_WholesaleSwap(t *testing.T) {
	r := New()
	r.Replace([]domain.Session{session("a", "u1"), session("b", "u2")})
	r.Replace([]domain.Session{session("c", "u3")})

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "c", snap[0].ID)
	assert.False(t, r.Stale())
}

func TestReplace_DedupesOnEveryFetch(t *testing.T) {
	r := New()
	applied := r.Replace([]domain.Session{session("a", "u1"), session("a", "u1-dup"), session("b", "u2")})

	require.Len(t, applied, 2)
	assert.Equal(t, "u1", applied[0].Username)
	assert.Equal(t, 2, r.Len())
}

func TestReplace_LastActivityNeverRegresses(t *testing.T) {
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-10 * time.Minute)

	r := New()
	s := session("a", "u1")
	s.LastActivityTime = later
	r.Replace([]domain.Session{s})

	s.LastActivityTime = earlier
	applied := r.Replace([]domain.Session{s})

	require.Len(t, applied, 1)
	assert.Equal(t, later, applied[0].LastActivityTime)
}

func TestReplace_LastActivityAdvances(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := earlier.Add(5 * time.Minute)

	r := New()
	s := session("a", "u1")
	s.LastActivityTime = earlier
	r.Replace([]domain.Session{s})

	s.LastActivityTime = later
	applied := r.Replace([]domain.Session{s})

	assert.Equal(t, later, applied[0].LastActivityTime)
}

func TestWarmStart_MarksStale(t *testing.T) {
	r := New()
	r.WarmStart([]domain.Session{session("a", "u1")})

	assert.True(t, r.Stale())
	assert.Equal(t, 1, r.Len())

	r.Replace([]domain.Session{session("a", "u1")})
	assert.False(t, r.Stale())
}

func TestRemove_ExistingSession(t *testing.T) {
	r := New()
	r.Replace([]domain.Session{session("a", "u1"), session("b", "u2")})

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "u1", removed.Username)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b", snap[0].ID)
}

func TestRemove_UnknownSession(t *testing.T) {
	r := New()
	r.Replace([]domain.Session{session("a", "u1")})

	_, ok := r.Remove("zzz")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestSnapshot_IsACopy(t *testing.T) {
	r := New()
	r.Replace([]domain.Session{session("a", "u1")})

	snap := r.Snapshot()
	snap[0].Username = "mutated"

	assert.Equal(t, "u1", r.Snapshot()[0].Username)
}

func TestPaginate_MiddlePage(t *testing.T) {
	list := sessions(25)

	page := Paginate(list, 3, 10)

	require.Len(t, page, 5)
	assert.Equal(t, "s020", page[0].ID)
	assert.Equal(t, "s024", page[4].ID)
}

func TestPaginate_FullPages(t *testing.T) {
	list := sessions(25)
	assert.Len(t, Paginate(list, 1, 10), 10)
	assert.Len(t, Paginate(list, 2, 10), 10)
}

func TestPaginate_OutOfRange(t *testing.T) {
	list := sessions(25)
	assert.Empty(t, Paginate(list, 4, 10))
	assert.Empty(t, Paginate(list, 0, 10))
	assert.Empty(t, Paginate(list, -1, 10))
	assert.Empty(t, Paginate(list, 1, 0))
}

func TestPaginate_ConcatenationReproducesList(t *testing.T) {
	list := sessions(23)
	pageSize := 7

	var rebuilt []domain.Session
	for page := 1; page <= 4; page++ {
		rebuilt = append(rebuilt, Paginate(list, page, pageSize)...)
	}

	assert.Equal(t, list, rebuilt)
}

func TestPage_Metadata(t *testing.T) {
	r := New()
	r.Replace(sessions(25))

	page := r.Page(3, 10)

	assert.Len(t, page.Sessions, 5)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Stale)
}
