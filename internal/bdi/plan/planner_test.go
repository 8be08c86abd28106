package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

func TestPlanner_IncomingMessageDispatchesResponderPlan(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	d.Context["target_agent"] = "a2"
	d.Context["topic"] = "weather"

	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	require.Len(t, p.Steps, 4) // initiate + send(answer) + 2 fallback wait/end
	assert.Equal(t, InitiateConversation, p.Steps[0].Action)
	assert.Equal(t, SendMessage, p.Steps[1].Action)
	assert.Equal(t, "ANSWER", p.Steps[1].Parameters["message_type"])
}

func TestPlanner_LowBatteryFallbackEndsWithFarewell(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	d.Context["target_agent"] = "a2"

	p := pl.CreateDynamicPlan(context.Background(), d, Responder, llm.Personality{}, 0.1, nil)
	last := p.Steps[len(p.Steps)-1]
	assert.Equal(t, EndConversation, last.Action)
	assert.Equal(t, SendMessage, p.Steps[len(p.Steps)-2].Action)
	assert.Equal(t, "FAREWELL", p.Steps[len(p.Steps)-2].Parameters["message_type"])
}

func TestPlanner_IdleDriveProducesSingleStep(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("wander without a destination", desire.PriorityIdle, 0.1, desire.MotivationSafety, desire.SourceIdleDrive)
	d.Context["is_idle"] = true
	d.Context["action"] = "move"
	d.Context["destination"] = "park"

	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, Move, p.Steps[0].Action)
}

func TestPlanner_SocialKeywordDispatchesInitiatorPlan(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("talk to a3 about the festival", desire.PriorityLLMSocial, 0.7, desire.MotivationSocial, desire.SourceLLMDynamic)
	d.Context["target_agent"] = "a3"

	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	assert.Equal(t, "GREETING", p.Steps[1].Parameters["message_type"])
	assert.Equal(t, true, p.Steps[1].Parameters["requires_response"])
}

func TestPlanner_MovementKeywordDispatchesMovementPlan(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("go to the market", desire.PriorityLLMNonSocial, 0.5, desire.MotivationCuriosity, desire.SourceLLMDynamic)
	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, Move, p.Steps[0].Action)
}

func TestPlanner_SearchKeywordDispatchesThreeStepPlan(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("search for the lost book", desire.PriorityLLMNonSocial, 0.5, desire.MotivationCuriosity, desire.SourceLLMDynamic)
	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, Search, p.Steps[0].Action)
}

func TestPlanner_GenericFallback(t *testing.T) {
	pl := NewPlanner(nil)
	d := desire.New("ponder the nature of things", desire.PriorityLLMNonSocial, 0.5, desire.MotivationCuriosity, desire.SourceLLMDynamic)
	p := pl.CreatePlan(context.Background(), d, llm.Personality{}, 1.0, nil)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, Think, p.Steps[0].Action)
	assert.Equal(t, Observe, p.Steps[1].Action)
}

func TestPlanner_ExtendConversationPlan_ForceEndMarksFailedAndAppendsFarewell(t *testing.T) {
	pl := NewPlanner(nil)
	p := New(&Step{Action: WaitForResponse, Description: "waiting"})
	d := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	d.Context["target_agent"] = "a2"

	pl.ExtendConversationPlan(context.Background(), p, d, true, llm.Personality{}, nil, 1.0)

	assert.True(t, p.Steps[0].Executed)
	assert.True(t, p.Steps[0].TimedOut)
	assert.False(t, p.Steps[0].Success)
	last := p.Steps[len(p.Steps)-1]
	assert.Equal(t, EndConversation, last.Action)
}

func TestPlanner_ExtendConversationPlan_AppendsAdvisorSteps(t *testing.T) {
	pl := NewPlanner(&stubAdvisor{steps: []llm.NextStepKind{llm.StepSendMessage, llm.StepWaitForResponse}})
	p := New(&Step{Action: SendMessage, Executed: true})
	d := desire.New("respond to a2", desire.PriorityIncoming, 0.9, desire.MotivationSocial, desire.SourceIncomingMessage)
	d.Context["target_agent"] = "a2"

	before := len(p.Steps)
	pl.ExtendConversationPlan(context.Background(), p, d, false, llm.Personality{}, nil, 1.0)
	assert.Len(t, p.Steps, before+2)
}

type stubAdvisor struct{ steps []llm.NextStepKind }

func (s *stubAdvisor) Name() string { return "stub" }
func (s *stubAdvisor) GenerateDesires(ctx context.Context, name, id string, p llm.Personality, e llm.Emotions, battery float64, recent []llm.Perception) ([]llm.DesireProposal, error) {
	return nil, nil
}
func (s *stubAdvisor) AnalyzeConversationTurn(ctx context.Context, name, id string, p llm.Personality, history []llm.TurnMessage, battery float64) (llm.TurnVerdict, error) {
	return llm.Continue, nil
}
func (s *stubAdvisor) GenerateNextPlanSteps(ctx context.Context, name, id string, p llm.Personality, desire string, history []llm.TurnMessage, battery float64) ([]llm.NextStepKind, error) {
	return s.steps, nil
}
func (s *stubAdvisor) GenerateContent(ctx context.Context, req llm.ContentRequest) (string, error) {
	return "", nil
}
