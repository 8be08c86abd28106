package deliberation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// verdictAdvisor returns a fixed TurnVerdict from AnalyzeConversationTurn and
// otherwise behaves like the fallback provider.
type verdictAdvisor struct {
	llm.FallbackProvider
	verdict llm.TurnVerdict
}

func (v *verdictAdvisor) AnalyzeConversationTurn(ctx context.Context, name, id string, p llm.Personality, history []llm.TurnMessage, battery float64) (llm.TurnVerdict, error) {
	return v.verdict, nil
}

func newCycle(advisor llm.Advisor) *Cycle {
	return New(desire.NewGenerator(advisor), plan.NewPlanner(advisor), intention.NewSelector(), advisor, nil)
}

func TestCycle_WorldEventSuspendsRoutineButSparesUserIntention(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	routineDesire := desire.New("wander", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)
	routineIntent := intention.FromDesire(routineDesire, plan.New(&plan.Step{Action: plan.Observe}, &plan.Step{Action: plan.Think}))
	routineIntent.Status = intention.StatusActive

	userDesire := desire.New("respond to user", desire.PriorityUserMessage, 1.0, desire.MotivationSocial, desire.SourceUserMessage)
	userIntent := intention.FromDesire(userDesire, plan.New(&plan.Step{Action: plan.SendMessage}))
	userIntent.Status = intention.StatusActive
	userIntent.Interruptible = true // hypothetical, to exercise the "user" description guard

	worldDesire := desire.New("react to event", desire.PriorityWorldEvent, 1.0, desire.MotivationWorldEvent, desire.SourceWorldEvent)

	res := c.Run(context.Background(), Input{
		AgentID:     "a1",
		AgentName:   "Alice",
		Beliefs:     store,
		Desires:     []*desire.Desire{worldDesire},
		Intentions:  []*intention.Intention{routineIntent, userIntent},
		Personality: llm.Personality{},
		Emotions:    llm.Emotions{},
	})

	assert.Equal(t, intention.StatusSuspended, routineIntent.Status)
	assert.Equal(t, intention.StatusActive, userIntent.Status)
	assert.Equal(t, 1, res.Info.EventInterrupted)
}

func TestCycle_HardLimitRequestsForceQuitAfterTenTurns(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	for i := 0; i < HardLimitTurns; i++ {
		c.Run(context.Background(), Input{
			AgentID:     "a1",
			AgentName:   "Alice",
			Beliefs:     store,
			Personality: llm.Personality{},
			Emotions:    llm.Emotions{},
			Perceptions: []desire.Perception{{Type: "communication", Subject: "a2", Data: map[string]interface{}{}}},
		})
	}

	quits := c.ConsumeForceQuitPartners()
	assert.True(t, quits["a2"])
}

func TestCycle_WrapUpVerdictReplacesIntentionWithFarewell(t *testing.T) {
	advisor := &verdictAdvisor{verdict: llm.WrapUp}
	c := newCycle(advisor)
	store := belief.New()

	chattingDesire := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	chattingDesire.Context["target_agent"] = "a2"
	chattingIntent := intention.FromDesire(chattingDesire, plan.New(&plan.Step{Action: plan.SendMessage}, &plan.Step{Action: plan.WaitForResponse}))
	chattingIntent.Status = intention.StatusActive

	res := c.Run(context.Background(), Input{
		AgentID:            "a1",
		AgentName:          "Alice",
		Beliefs:            store,
		Desires:            []*desire.Desire{chattingDesire},
		Intentions:         []*intention.Intention{chattingIntent},
		Personality:        llm.Personality{},
		Emotions:           llm.Emotions{},
		ActiveConvPartners: []string{"a2"},
	})

	assert.Equal(t, intention.StatusAbandoned, chattingIntent.Status)
	assert.Equal(t, desire.StatusAbandoned, chattingDesire.Status)
	assert.Equal(t, 1, res.Info.WrapUpTriggered)

	var farewell *intention.Intention
	for _, in2 := range res.Intentions {
		if in2.Status == intention.StatusActive {
			farewell = in2
		}
	}
	require.NotNil(t, farewell)
	assert.False(t, farewell.Interruptible)

	var farewellDesire *desire.Desire
	for _, d := range res.Desires {
		if d.ID == farewell.DesireID {
			farewellDesire = d
		}
	}
	require.NotNil(t, farewellDesire, "farewell intention's DesireID must resolve in res.Desires")
	assert.Equal(t, desire.SourceWrapUp, farewellDesire.Source)
}

func TestCycle_ForceQuitVerdictRequestsTeardownWithoutMutatingIntention(t *testing.T) {
	advisor := &verdictAdvisor{verdict: llm.ForceQuit}
	c := newCycle(advisor)
	store := belief.New()

	chattingDesire := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	chattingDesire.Context["target_agent"] = "a2"
	chattingIntent := intention.FromDesire(chattingDesire, plan.New(&plan.Step{Action: plan.SendMessage}))
	chattingIntent.Status = intention.StatusActive

	c.Run(context.Background(), Input{
		AgentID:            "a1",
		AgentName:          "Alice",
		Beliefs:            store,
		Desires:            []*desire.Desire{chattingDesire},
		Intentions:         []*intention.Intention{chattingIntent},
		Personality:        llm.Personality{},
		Emotions:           llm.Emotions{},
		ActiveConvPartners: []string{"a2"},
	})

	assert.True(t, c.ConsumeForceQuitPartners()["a2"])
	assert.Equal(t, intention.StatusActive, chattingIntent.Status)
}

func TestCycle_IntentionSelectionBindsHighestTierDesire(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	idle := desire.New("wander aimlessly", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)
	urgent := desire.New("react to event", desire.PriorityWorldEvent, 1.0, desire.MotivationWorldEvent, desire.SourceWorldEvent)

	res := c.Run(context.Background(), Input{
		AgentID:     "a1",
		AgentName:   "Alice",
		Beliefs:     store,
		Desires:     []*desire.Desire{idle, urgent},
		Personality: llm.Personality{},
		Emotions:    llm.Emotions{},
	})

	require.NotNil(t, res.NewIntention)
	assert.Equal(t, urgent.ID, res.NewIntention.DesireID)
	assert.False(t, res.NewIntention.Interruptible)
	assert.Equal(t, 1.0, res.NewIntention.Priority)
	assert.Equal(t, desire.StatusAchieved, urgent.Status)
}

func TestCycle_SelectedDesireAlwaysGetsANonEmptyPlan(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	d := desire.New("do something entirely unclassifiable qwxyz", desire.PriorityLLMNonSocial, 0.5, desire.MotivationAchievement, desire.SourceLLMDynamic)

	res := c.Run(context.Background(), Input{
		AgentID:     "a1",
		AgentName:   "Alice",
		Beliefs:     store,
		Desires:     []*desire.Desire{d},
		Personality: llm.Personality{},
		Emotions:    llm.Emotions{},
	})

	require.NotNil(t, res.NewIntention)
	assert.NotEmpty(t, res.NewIntention.Plan.Steps)
}

func TestCycle_IdleGuardKillsZombieIntentionAfterThreshold(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	d := desire.New("wander aimlessly", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)
	d.Status = desire.StatusPursued
	step := &plan.Step{Action: plan.Observe, Executed: true}
	zombie := intention.FromDesire(d, plan.New(step))
	zombie.Status = intention.StatusSuspended

	// An unachievable incoming_message desire stays ACTIVE and blocks the
	// cycle's end-of-tick resume-suspended fallback, so the zombie remains
	// SUSPENDED across ticks long enough for the idle guard to fire.
	blocker := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	blocker.Preconditions = []string{"never_true"}

	intentions := []*intention.Intention{zombie}
	desires := []*desire.Desire{d, blocker}

	for i := 0; i <= IdleGuardThreshold; i++ {
		res := c.Run(context.Background(), Input{
			AgentID:     "a1",
			AgentName:   "Alice",
			Beliefs:     store,
			Desires:     desires,
			Intentions:  intentions,
			Personality: llm.Personality{},
			Emotions:    llm.Emotions{},
		})
		intentions = res.Intentions
	}

	assert.Equal(t, intention.StatusAbandoned, zombie.Status)
}

func TestCycle_CleanupDedupesDesiresByDescription(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	dup1 := desire.New("wander aimlessly", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)
	dup2 := desire.New("wander aimlessly", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)

	res := c.Run(context.Background(), Input{
		AgentID:     "a1",
		AgentName:   "Alice",
		Beliefs:     store,
		Desires:     []*desire.Desire{dup1, dup2},
		Personality: llm.Personality{},
		Emotions:    llm.Emotions{},
	})

	assert.Equal(t, 1, res.Info.TotalDesires)
}

func TestCycle_PerceptionsUpdateBeliefStore(t *testing.T) {
	c := newCycle(nil)
	store := belief.New()

	c.Run(context.Background(), Input{
		AgentID:     "a1",
		AgentName:   "Alice",
		Beliefs:     store,
		Personality: llm.Personality{},
		Emotions:    llm.Emotions{Happiness: 0.7},
		Perceptions: []desire.Perception{{Type: "observation", Subject: "self", Data: map[string]interface{}{"location": "plaza"}}},
	})

	loc, ok := store.Get(belief.Self, "self", "location")
	require.True(t, ok)
	assert.Equal(t, "plaza", loc.Value)

	emo, ok := store.Get(belief.Self, "a1", "emotion_happiness")
	require.True(t, ok)
	assert.Equal(t, 0.7, emo.Value)
}
