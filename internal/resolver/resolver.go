// Package resolver picks the message best matching a playback timestamp out
// of a chronologically ordered feed. It biases forward when the target is
// advancing so rapid small updates never re-select an already-passed message
// (visible as backward flicker), and falls back to a plain nearest match when
// the target jumps backward (seek/rewind).
package resolver

import (
	"errors"
	"time"
)

// latePenaltyMillis is added to the distance of candidates strictly before a
// forward-moving target. They stay selectable when nothing is at or after the
// target yet, but always lose to any at-or-after candidate.
const latePenaltyMillis int64 = 1_000_000

var ErrNoCandidate = errors.New("no candidate with a timestamp")

// Candidate is one feed item. A zero Timestamp means the item carries no
// usable time and is skipped.
type Candidate struct {
	ID        string
	Timestamp time.Time
}

func (c Candidate) hasTime() bool { return !c.Timestamp.IsZero() }

// Memory carries the previous resolution across calls. LastTarget is the
// target of the previous resolution (zero when none); LastMatchedID is the
// id last acted on ("" when none).
type Memory struct {
	LastTarget    time.Time
	LastMatchedID string
}

// Match is a resolution result. Distance is the synthetic millisecond score
// of the selected candidate, not a raw time delta. Settled means no action
// is needed: the selection equals the remembered match and it verified as a
// local minimum.
type Match struct {
	ID             string
	Index          int
	Distance       int64
	LocallyMinimal bool
	Settled        bool
}

// Resolve finds the candidate best matching target. candidates must be in
// ascending chronological order; that ordering is assumed, not enforced.
func Resolve(target time.Time, candidates []Candidate, mem Memory) (Match, error) {
	forward := !mem.LastTarget.IsZero() && target.After(mem.LastTarget)

	// In forward mode, never re-consider items strictly before the last
	// match once the target has advanced past them.
	start := 0
	if forward && mem.LastMatchedID != "" {
		for i, c := range candidates {
			if c.ID == mem.LastMatchedID {
				start = i
				break
			}
		}
	}

	best := -1
	var bestDist int64
	for i := start; i < len(candidates); i++ {
		if !candidates[i].hasTime() {
			continue
		}
		d := distance(candidates[i].Timestamp, target, forward)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best == -1 {
		return Match{}, ErrNoCandidate
	}

	m := Match{
		ID:             candidates[best].ID,
		Index:          best,
		Distance:       bestDist,
		LocallyMinimal: locallyMinimal(target, candidates, best, bestDist, forward),
	}
	m.Settled = m.LocallyMinimal && m.ID == mem.LastMatchedID
	return m, nil
}

// distance scores a candidate at t against target T in milliseconds. Forward
// mode rewards items at or after the target and penalizes earlier ones;
// absolute mode is the plain |t-T|.
func distance(t, target time.Time, forward bool) int64 {
	delta := t.Sub(target).Milliseconds()
	if !forward {
		if delta < 0 {
			return -delta
		}
		return delta
	}
	if delta >= 0 {
		return delta
	}
	return -delta + latePenaltyMillis
}

// locallyMinimal re-scores the immediate array neighbors of the selection.
// A neighbor strictly closer than the selection can legitimately exist just
// outside the forward-mode window; callers treat the flag as a hint to
// suppress redundant action, not as an error.
func locallyMinimal(target time.Time, candidates []Candidate, k int, dist int64, forward bool) bool {
	for _, i := range []int{k - 1, k + 1} {
		if i < 0 || i >= len(candidates) || !candidates[i].hasTime() {
			continue
		}
		if distance(candidates[i].Timestamp, target, forward) < dist {
			return false
		}
	}
	return true
}
