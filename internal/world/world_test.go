package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/comms"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/deliberation"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

func newTestAgent(name string) *agent.Agent {
	return agent.New(name, emotion.Personality{Extraversion: 0.5, Neuroticism: 0.3}, llm.NewFallbackProvider())
}

func fakeAction(in *intention.Intention, step *plan.Step, idx int) deliberation.ScheduledAction {
	return deliberation.ScheduledAction{IntentionID: in.ID, Action: step, StepIndex: idx}
}

func testMessagesFrom(senderID string) []comms.Message {
	return []comms.Message{{SenderID: senderID, Content: "hi", MessageType: comms.Statement}}
}

func TestTickPeriod_RespectsTimeSpeedBounds(t *testing.T) {
	w := New(nil, nil)
	w.SetTimeSpeed(1.0)
	assert.Equal(t, time.Duration(BaseTickSeconds*float64(time.Second)), w.tickPeriod())

	w.SetTimeSpeed(100) // clamped to MaxTimeSpeed
	assert.Equal(t, MaxTimeSpeed, w.timeSpeed)
	assert.True(t, w.tickPeriod() >= time.Duration(MinTickSeconds*float64(time.Second)))

	w.SetTimeSpeed(0.001) // clamped to MinTimeSpeed
	assert.Equal(t, MinTimeSpeed, w.timeSpeed)
}

func TestAddAgent_IsIdempotentAndRegistersWithHub(t *testing.T) {
	w := New(nil, nil)
	a := newTestAgent("Alice")
	w.AddAgent(a)
	w.AddAgent(a)
	assert.Len(t, w.order, 1)
	assert.Contains(t, w.Hub().RegisteredAgents(), a.ID)
}

func TestAtomicForceQuit_TearsDownBothSidesSymmetrically(t *testing.T) {
	w := New(nil, nil)
	alice := newTestAgent("Alice")
	bob := newTestAgent("Bob")
	w.AddAgent(alice)
	w.AddAgent(bob)

	conv := w.Hub().StartConversation(alice.ID, bob.ID, "weather")
	alice.AddActivePartner(bob.ID)
	bob.AddActivePartner(alice.ID)

	aliceDesire := desire.New("talk to Bob", 0.8, 0.8, desire.MotivationSocial, desire.SourceLLMDynamic)
	aliceDesire.Context["target_agent"] = bob.ID
	aliceIntent := intention.FromDesire(aliceDesire, plan.New(&plan.Step{Action: plan.SendMessage, Parameters: map[string]interface{}{"target": bob.ID}}))
	alice.Desires = []*desire.Desire{aliceDesire}
	alice.Intentions = []*intention.Intention{aliceIntent}

	w.atomicForceQuit(alice.ID, bob.ID)

	c, ok := w.Hub().GetConversation(conv.ID)
	require.True(t, ok)
	assert.False(t, c.IsOpen())
	assert.Empty(t, alice.ActivePartners)
	assert.Empty(t, bob.ActivePartners)
	assert.Equal(t, intention.StatusAbandoned, aliceIntent.Status)
	assert.Equal(t, desire.StatusAbandoned, aliceDesire.Status)
}

func TestRewindToEndConversation_SkipsToEndConversationStep(t *testing.T) {
	w := New(nil, nil)
	d := desire.New("chat", 0.5, 0.5, desire.MotivationSocial, desire.SourceLLMDynamic)
	steps := []*plan.Step{
		{Action: plan.SendMessage, Parameters: map[string]interface{}{"target": "bob"}},
		{Action: plan.WaitForResponse, Parameters: map[string]interface{}{"target": "bob"}},
		{Action: plan.EndConversation, Parameters: map[string]interface{}{"target": "bob"}},
	}
	in := intention.FromDesire(d, plan.New(steps...))

	sa := fakeAction(in, steps[0], 0)
	w.rewindToEndConversation(in, sa, "no active conversation")

	assert.True(t, steps[0].Executed)
	assert.False(t, steps[0].Success)
	assert.True(t, steps[1].Executed)
	assert.True(t, steps[1].TimedOut)
	assert.False(t, steps[2].Executed)
	assert.Equal(t, 2, in.CurrentStep)
}

func TestSendCost_IntrovertsPayMoreThanExtroverts(t *testing.T) {
	introvert := llm.Personality{Extraversion: 0.1}
	extrovert := llm.Personality{Extraversion: 0.9}
	assert.Greater(t, sendCost(introvert), sendCost(extrovert))
	assert.GreaterOrEqual(t, sendCost(introvert), 0.0)
	assert.LessOrEqual(t, sendCost(introvert), 1.0)
}

func TestBatteryDrainAndRestore_StayWithinUnitRange(t *testing.T) {
	a := newTestAgent("Alice")
	for i := 0; i < 50; i++ {
		a.DrainBattery(0.2)
	}
	assert.Equal(t, 0.0, a.SocialBattery)
	for i := 0; i < 50; i++ {
		a.RestoreBattery(0.2)
	}
	assert.Equal(t, 1.0, a.SocialBattery)
}

func TestBumpRelationship_AccumulatesAndClamps(t *testing.T) {
	w := New(nil, nil)
	w.bumpRelationship("a", "b", 0.5)
	w.bumpRelationship("a", "b", 0.5)
	assert.Equal(t, 1.0, w.Relationship("a", "b"))
	assert.Equal(t, 1.0, w.Relationship("b", "a")) // order-independent

	w.bumpRelationship("a", "b", -5)
	assert.Equal(t, -1.0, w.Relationship("a", "b"))
}

func TestBuildAgentPerceptions_EventDedupAndFreshness(t *testing.T) {
	w := New(nil, nil)
	a := newTestAgent("Alice")
	w.AddAgent(a)

	w.InjectEvent("a fire breaks out", nil)
	stale := logEntry{ID: "stale", Kind: kindWorldEvent, Description: "old news", CreatedAt: time.Now().Add(-1 * time.Minute)}
	w.mu.Lock()
	w.eventLog = append(w.eventLog, stale)
	w.mu.Unlock()

	agents := map[string]*agent.Agent{a.ID: a}
	perc1 := w.buildAgentPerceptions(a.ID, agents, w.eventLog, nil)
	var worldEvents int
	for _, p := range perc1 {
		if p.Type == "world_event" {
			worldEvents++
		}
	}
	assert.Equal(t, 1, worldEvents, "only the fresh event should be perceived")

	perc2 := w.buildAgentPerceptions(a.ID, agents, w.eventLog, nil)
	for _, p := range perc2 {
		assert.NotEqual(t, "world_event", p.Type, "an already-processed event must not be re-perceived")
	}
}

func TestBuildAgentPerceptions_CommunicationBumpsRelationship(t *testing.T) {
	w := New(nil, nil)
	alice := newTestAgent("Alice")
	bob := newTestAgent("Bob")
	w.AddAgent(alice)
	w.AddAgent(bob)

	agents := map[string]*agent.Agent{alice.ID: alice, bob.ID: bob}

	before := w.Relationship(alice.ID, bob.ID)
	w.buildAgentPerceptions(alice.ID, agents, nil, testMessagesFrom(bob.ID))
	after := w.Relationship(alice.ID, bob.ID)
	assert.InDelta(t, before+0.04, after, 1e-9)
}

func TestTick_RunsEveryAgentWithoutPanicking(t *testing.T) {
	w := New(nil, nil)
	alice := newTestAgent("Alice")
	w.AddAgent(alice)
	assert.NotPanics(t, func() {
		w.Tick(context.Background())
	})
}

func TestRecordEpisodicTurn_NoopsWithoutAStore(t *testing.T) {
	w := New(nil, nil)
	assert.NotPanics(t, func() {
		w.recordEpisodicTurn("alice", "bob", "hello")
	})
}

func TestTick_NotifiesObserverExactlyOncePerTick(t *testing.T) {
	w := New(nil, nil)
	w.AddAgent(newTestAgent("Alice"))

	var calls []TickSummary
	w.SetTickObserver(func(s TickSummary) { calls = append(calls, s) })

	w.Tick(context.Background())
	w.Tick(context.Background())

	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].Tick)
	assert.Equal(t, 2, calls[1].Tick)
}
