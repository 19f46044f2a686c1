package relay

import (
	"errors"
	"sync"
	"time"
)

// StaleThreshold is how old the latest record may be before reads start
// carrying a staleness warning.
const StaleThreshold = 10 * time.Second

var ErrNoData = errors.New("no timestamp data")

// Record is the payload pushed by the producer. Only the "gmt" field is
// interpreted; everything else (videoId, currentTime, isLive, error, ...)
// is stored and echoed verbatim.
type Record map[string]any

// GMT returns the canonical timestamp field, or "" if absent/non-string.
func (r Record) GMT() string {
	s, _ := r["gmt"].(string)
	return s
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// State holds the relay's process-wide mutable state: the latest record,
// its receipt time, and an optional one-shot redirect instruction. A single
// mutex guards the whole struct so push/read/redirect never interleave
// partially.
type State struct {
	mu         sync.Mutex
	latest     Record
	receivedAt time.Time
	redirect   string

	now func() time.Time
}

// NewState creates an empty State. now is injectable for tests; nil means
// time.Now.
func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now}
}

// Update overwrites the latest record and its receipt time, and atomically
// takes the pending redirect if one is armed. The take-and-clear happens in
// the same critical section as the overwrite, so a redirect is delivered to
// exactly one push.
func (s *State) Update(rec Record) (redirect string, delivered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = rec.clone()
	s.receivedAt = s.now()

	if s.redirect != "" {
		redirect, delivered = s.redirect, true
		s.redirect = ""
	}
	return redirect, delivered
}

// Latest returns a copy of the latest record and its age. ErrNoData when
// nothing has been pushed yet. Never mutates stored state.
func (s *State) Latest() (Record, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return nil, 0, ErrNoData
	}
	return s.latest.clone(), s.now().Sub(s.receivedAt), nil
}

// SetRedirect arms a one-shot redirect instruction, replacing any
// unconsumed value (last-write-wins, no queueing).
func (s *State) SetRedirect(ts string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirect = ts
}

// PendingRedirect returns the armed redirect without consuming it.
func (s *State) PendingRedirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}
