// Package desire implements the Desire Generator (spec §4.2): the most
// intricate component in the engine, producing prioritized candidate goals
// from personality, emotion, social battery, beliefs, perceptions, and an
// LLM advisor.
package desire

import (
	"time"

	"github.com/google/uuid"
)

// Status is the desire lifecycle state.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusPursued    Status = "PURSUED"
	StatusAchieved   Status = "ACHIEVED"
	StatusAbandoned  Status = "ABANDONED"
	StatusImpossible Status = "IMPOSSIBLE"
)

// Motivation classifies why a desire exists.
type Motivation string

const (
	MotivationSurvival    Motivation = "SURVIVAL"
	MotivationSafety      Motivation = "SAFETY"
	MotivationSocial      Motivation = "SOCIAL"
	MotivationEsteem      Motivation = "ESTEEM"
	MotivationAchievement Motivation = "ACHIEVEMENT"
	MotivationCuriosity   Motivation = "CURIOSITY"
	MotivationWorldEvent  Motivation = "WORLD_EVENT"
)

// Desire sources recognized by the priority-tier machinery (spec §4.2,
// §4.4, §9). These are the exact source strings the pipeline emits; the
// Intention Selector and Deliberation Cycle switch on them verbatim.
const (
	SourceWorldEvent      = "world_event"
	SourceUserMessage     = "user_message"
	SourceIncomingMessage = "incoming_message"
	SourceDeepWorkReject  = "deep_work_reject"
	SourceLLMDynamic      = "llm_dynamic"
	SourceLLMFallback     = "llm_fallback"
	SourceIdleDrive       = "idle_drive"
	SourceWrapUp          = "wrap_up"
)

// Tier priority constants (spec §4.2's "Tier (1-5)" priority hierarchy).
const (
	PriorityWorldEvent   = 1.00
	PriorityUserMessage  = 1.00
	PriorityIncoming     = 0.90
	PriorityLLMSocial    = 0.65
	PriorityLLMNonSocial = 0.40
	PriorityDeepWorkBusy = 0.60
	PriorityIdle         = 0.10
)

// Desire is a candidate goal.
type Desire struct {
	ID                   string
	Description          string
	Priority             float64
	Urgency              float64
	Status               Status
	MotivationType       Motivation
	Source               string
	Preconditions        []string
	PersonalityAlignment float64
	CreatedAt            time.Time
	Deadline             *time.Time
	Context              map[string]interface{}
}

// New constructs a Desire with a fresh id, ACTIVE status, and CreatedAt=now.
func New(description string, priority, urgency float64, motivation Motivation, source string) *Desire {
	return &Desire{
		ID:                   uuid.NewString(),
		Description:          description,
		Priority:             priority,
		Urgency:              urgency,
		Status:               StatusActive,
		MotivationType:       motivation,
		Source:               source,
		PersonalityAlignment: 0.5,
		CreatedAt:            time.Now(),
		Context:              make(map[string]interface{}),
	}
}

// Utility is priority * urgency * personality_alignment; used only as a
// tie-breaker inside a priority tier (spec §3).
func (d *Desire) Utility() float64 {
	return d.Priority * d.Urgency * d.PersonalityAlignment
}

// IsExpired reports whether Deadline has passed.
func (d *Desire) IsExpired() bool {
	return d.Deadline != nil && time.Now().After(*d.Deadline)
}

// IsAchievable evaluates every precondition query string against the belief
// query function; a desire with no preconditions is trivially achievable.
func (d *Desire) IsAchievable(query func(string) bool) bool {
	for _, p := range d.Preconditions {
		if !query(p) {
			return false
		}
	}
	return true
}

func (d *Desire) String() string {
	desc := d.Description
	if len(desc) > 30 {
		desc = desc[:30]
	}
	return "Desire(" + desc + ", " + d.Status.String() + ")"
}

func (s Status) String() string { return string(s) }
