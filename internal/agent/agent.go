// Package agent owns the Agent aggregate (spec §3 "Data Model"): identity,
// personality, emotion vector, social battery, belief store, and the
// per-agent desire/intention lists together with their generator/planner
// collaborators.
package agent

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// Agent is the owner of one BDI state (spec §3). It exclusively owns its
// beliefs, desires, intentions, and the Desire Generator's counters; callers
// outside this package must go through its methods rather than mutate
// sub-state directly, matching the single-writer discipline the World Tick
// Loop depends on (spec §5).
type Agent struct {
	mu sync.Mutex

	ID     string
	Name   string
	Avatar string

	Personality emotion.Personality
	Emotions    emotion.Vector

	SocialBattery float64

	Beliefs    *belief.Store
	Desires    []*desire.Desire
	Intentions []*intention.Intention

	Generator *desire.Generator
	Planner   *plan.Planner

	ActivePartners []string
}

// New constructs an Agent with a fresh id, full social battery, an empty
// belief store, and a Desire Generator bound to the given advisor (nil is a
// valid, fully-functional fallback-only configuration).
func New(name string, personality emotion.Personality, advisor llm.Advisor) *Agent {
	return &Agent{
		ID:            uuid.NewString(),
		Name:          name,
		Personality:   personality,
		Emotions:      emotion.Vector{},
		SocialBattery: 1.0,
		Beliefs:       belief.New(),
		Generator:     desire.NewGenerator(advisor),
		Planner:       plan.NewPlanner(advisor),
	}
}

// LLMPersonality projects the agent's OCEAN vector into the shape the llm
// package expects, avoiding an import of package agent from package llm.
func (a *Agent) LLMPersonality() llm.Personality {
	return llm.Personality{
		Openness:          a.Personality.Openness,
		Conscientiousness: a.Personality.Conscientiousness,
		Extraversion:      a.Personality.Extraversion,
		Agreeableness:     a.Personality.Agreeableness,
		Neuroticism:       a.Personality.Neuroticism,
	}
}

// LLMEmotions projects the agent's emotion vector into the llm package's shape.
func (a *Agent) LLMEmotions() llm.Emotions {
	return llm.Emotions{
		Happiness:  a.Emotions.Happiness,
		Sadness:    a.Emotions.Sadness,
		Anger:      a.Emotions.Anger,
		Fear:       a.Emotions.Fear,
		Surprise:   a.Emotions.Surprise,
		Disgust:    a.Emotions.Disgust,
		Loneliness: a.Emotions.Loneliness,
		Comfort:    a.Emotions.Comfort,
	}
}

// ApplyEmotion updates the agent's emotion vector for trigger t.
func (a *Agent) ApplyEmotion(t emotion.Trigger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Emotions = emotion.Apply(a.Emotions, a.Personality, t)
}

// UpdateDialogueEmotion mirrors a dialogue's affinity delta into the
// agent's emotion vector.
func (a *Agent) UpdateDialogueEmotion(affinityDelta float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Emotions = emotion.UpdateFromDialogue(a.Emotions, affinityDelta)
}

// DrainBattery subtracts cost from SocialBattery, clamped to [0,1].
func (a *Agent) DrainBattery(cost float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SocialBattery = clamp01(a.SocialBattery - cost)
}

// RestoreBattery adds amount to SocialBattery, clamped to [0,1].
func (a *Agent) RestoreBattery(amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SocialBattery = clamp01(a.SocialBattery + amount)
}

// IsInConversation reports whether partnerID is currently an active
// conversation partner.
func (a *Agent) IsInConversation(partnerID string) bool {
	for _, p := range a.ActivePartners {
		if p == partnerID {
			return true
		}
	}
	return false
}

// AddActivePartner registers partnerID as an active conversation partner if
// not already present.
func (a *Agent) AddActivePartner(partnerID string) {
	if a.IsInConversation(partnerID) {
		return
	}
	a.ActivePartners = append(a.ActivePartners, partnerID)
}

// RemoveActivePartner drops partnerID from the active-partners set.
func (a *Agent) RemoveActivePartner(partnerID string) {
	out := a.ActivePartners[:0]
	for _, p := range a.ActivePartners {
		if p != partnerID {
			out = append(out, p)
		}
	}
	a.ActivePartners = out
}

// ActiveIntention returns the agent's single ACTIVE intention, if any.
func (a *Agent) ActiveIntention() *intention.Intention {
	for _, in := range a.Intentions {
		if in.Status == intention.StatusActive {
			return in
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
