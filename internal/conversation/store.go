// Package conversation holds per-call state: the stage machine, the rolling
// exchange memory and the session store that owns both.
package conversation

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/metrics"
)

const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 30 * time.Minute
	recentIntentWindow = 2
)

// Session is the state of one call. The turn lock serialises whole turns;
// the field lock guards the fields below it.
type Session struct {
	ID string

	turn sync.Mutex

	mu        sync.Mutex
	stage     core.Stage
	turnCount int
	history   []core.Exchange
	intents   []core.Intent
	createdAt time.Time
}

func newSession(id string) *Session {
	return &Session{ID: id, stage: core.StageGreeting, createdAt: time.Now()}
}

// LockTurn blocks until no other turn of this call is running.
func (s *Session) LockTurn() { s.turn.Lock() }

// UnlockTurn releases the turn lock.
func (s *Session) UnlockTurn() { s.turn.Unlock() }

// RecentIntents returns up to the last two winning intents, oldest first.
func (s *Session) RecentIntents() []core.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Intent, len(s.intents))
	copy(out, s.intents)
	return out
}

// RecordIntent remembers the winner of the current turn.
func (s *Session) RecordIntent(intent core.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append(s.intents, intent)
	if len(s.intents) > recentIntentWindow {
		s.intents = s.intents[len(s.intents)-recentIntentWindow:]
	}
}

// Options bounds the store.
type Options struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// Store keeps sessions in an LRU whose entries expire after IdleTTL without
// activity.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
}

func NewStore(opts Options) *Store {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	onEvict := func(id string, s *Session) {
		metrics.ActiveSessions.Dec()
		log.Debug().
			Str("component", "sessions").
			Str("call_id", id).
			Dur("age", time.Since(s.createdAt)).
			Msg("session evicted")
	}
	return &Store{cache: expirable.NewLRU[string, *Session](opts.MaxSessions, onEvict, opts.IdleTTL)}
}

// Session returns the session for callID, creating it on first reference.
// Every call refreshes the idle timer.
func (st *Store) Session(callID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.cache.Get(callID)
	if !ok {
		// an expired entry the sweeper has not reached yet
		st.cache.Remove(callID)
		s = newSession(callID)
		metrics.ActiveSessions.Inc()
		log.Debug().Str("component", "sessions").Str("call_id", callID).Msg("session created")
	}
	st.cache.Add(callID, s)
	return s
}

// Lookup returns an existing session without creating or refreshing it.
func (st *Store) Lookup(callID string) (*Session, bool) {
	return st.cache.Peek(callID)
}

// Remove drops a session immediately.
func (st *Store) Remove(callID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cache.Remove(callID)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	return st.cache.Len()
}
