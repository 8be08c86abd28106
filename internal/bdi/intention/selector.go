package intention

import (
	"sort"
	"strings"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
)

// tier5Sources and tier4Sources classify a desire's priority tier for the
// reactive-interrupt rule (spec §4.4); every other source is treated as a
// lower tier that never triggers an interrupt.
var tier5Sources = map[string]bool{desire.SourceWorldEvent: true, desire.SourceUserMessage: true}
var tier4Sources = map[string]bool{desire.SourceIncomingMessage: true}

// Selector binds at most one new Intention per tick and manages reactive
// suspend/resume of running intentions (spec §4.4).
type Selector struct{}

// NewSelector constructs an Intention Selector.
func NewSelector() *Selector { return &Selector{} }

// SelectCandidate filters and ranks desires per spec §4.4 step 1-2,
// returning the single best candidate or nil. The caller is responsible for
// materializing the plan, binding the Intention, and transitioning the
// desire to PURSUED (and, for world_event sources, to ACHIEVED).
func (s *Selector) SelectCandidate(desires []*desire.Desire, intentions []*Intention, query func(string) bool) *desire.Desire {
	bound := make(map[string]bool, len(intentions))
	for _, in := range intentions {
		if in.Status == StatusActive {
			bound[in.DesireID] = true
		}
	}

	var candidates []*desire.Desire
	for _, d := range desires {
		if d.Status != desire.StatusActive {
			continue
		}
		if bound[d.ID] {
			continue
		}
		if d.IsExpired() {
			continue
		}
		if !d.IsAchievable(query) {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Utility() > candidates[j].Utility()
	})
	return candidates[0]
}

// HasActiveIntention reports whether any intention in the list is ACTIVE.
func HasActiveIntention(intentions []*Intention) bool {
	for _, in := range intentions {
		if in.Status == StatusActive {
			return true
		}
	}
	return false
}

// InterruptForSocial applies spec §4.4's reactive-interrupt rule for a
// newly-arrived Tier-5 or Tier-4 desire, suspending qualifying ACTIVE
// interruptible intentions, and returns the ones it suspended (for logging).
func InterruptForSocial(intentions []*Intention, urgent *desire.Desire) []*Intention {
	isTier5 := tier5Sources[urgent.Source]
	isTier4 := tier4Sources[urgent.Source]
	if !isTier5 && !isTier4 {
		return nil
	}

	if isTier4 {
		for _, in := range intentions {
			if in.Status == StatusActive && !in.Interruptible {
				// An already-social intention is running; Tier 4 defers to it.
				return nil
			}
		}
	}

	var suspended []*Intention
	for _, in := range intentions {
		if in.Status != StatusActive || !in.Interruptible {
			continue
		}
		if isTier5 && strings.Contains(strings.ToLower(in.DesireDescription), "user") {
			continue
		}
		in.Suspend("interrupted by: " + truncate(urgent.Description, 40))
		suspended = append(suspended, in)
	}
	return suspended
}

// ResumeSuspended transitions every SUSPENDED intention back to ACTIVE, in
// insertion order, when called with no new candidate and no urgent active
// social desire and no currently-active intention (spec §4.4 "Resume").
func ResumeSuspended(intentions []*Intention) {
	for _, in := range intentions {
		in.Resume()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
