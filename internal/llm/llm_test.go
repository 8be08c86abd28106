package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAdvisor struct{ name string }

func (f *failingAdvisor) Name() string { return f.name }
func (f *failingAdvisor) GenerateDesires(ctx context.Context, name, id string, p Personality, e Emotions, battery float64, recent []Perception) ([]DesireProposal, error) {
	return nil, errors.New("boom")
}
func (f *failingAdvisor) AnalyzeConversationTurn(ctx context.Context, name, id string, p Personality, history []TurnMessage, battery float64) (TurnVerdict, error) {
	return "", errors.New("boom")
}
func (f *failingAdvisor) GenerateNextPlanSteps(ctx context.Context, name, id string, p Personality, desire string, history []TurnMessage, battery float64) ([]NextStepKind, error) {
	return nil, errors.New("boom")
}
func (f *failingAdvisor) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	return "", errors.New("boom")
}

func TestFallbackProvider_NeverErrors(t *testing.T) {
	f := NewFallbackProvider()
	ctx := context.Background()

	t.Run("desires", func(t *testing.T) {
		out, err := f.GenerateDesires(ctx, "alice", "a1", Personality{}, Emotions{}, 0.5, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
	t.Run("turn", func(t *testing.T) {
		v, err := f.AnalyzeConversationTurn(ctx, "alice", "a1", Personality{}, nil, 0.5)
		require.NoError(t, err)
		assert.Equal(t, Continue, v)
	})
	t.Run("next steps", func(t *testing.T) {
		steps, err := f.GenerateNextPlanSteps(ctx, "alice", "a1", Personality{}, "chat", nil, 0.5)
		require.NoError(t, err)
		assert.Equal(t, []NextStepKind{StepThink}, steps)
	})
	t.Run("content by type", func(t *testing.T) {
		content, err := f.GenerateContent(ctx, ContentRequest{MessageType: "GREETING"})
		require.NoError(t, err)
		assert.NotEmpty(t, content)

		content, err = f.GenerateContent(ctx, ContentRequest{MessageType: "unknown"})
		require.NoError(t, err)
		assert.NotEmpty(t, content)
	})
}

func TestMultiProvider_FallsThroughOnFailure(t *testing.T) {
	mp := NewMultiProvider(&failingAdvisor{name: "first"}, &failingAdvisor{name: "second"})
	ctx := context.Background()

	v, err := mp.AnalyzeConversationTurn(ctx, "alice", "a1", Personality{}, nil, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Continue, v)

	stats := mp.Stats()
	require.Contains(t, stats, "first")
	require.Contains(t, stats, "second")
	require.Contains(t, stats, "fallback")
	assert.Equal(t, int64(1), stats["first"].FailedCalls)
	assert.Equal(t, int64(1), stats["second"].FailedCalls)
	assert.Equal(t, int64(1), stats["fallback"].SuccessCalls)
}

func TestMultiProvider_AlwaysAppendsFallback(t *testing.T) {
	mp := NewMultiProvider()
	ctx := context.Background()
	steps, err := mp.GenerateNextPlanSteps(ctx, "alice", "a1", Personality{}, "chat", nil, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []NextStepKind{StepThink}, steps)
}

func TestFilterNextSteps(t *testing.T) {
	in := []NextStepKind{StepSendMessage, "bogus", StepThink, StepWaitForResponse}
	out := FilterNextSteps(in, 2)
	assert.Equal(t, []NextStepKind{StepSendMessage, StepThink}, out)
}

func TestFilterDesireProposals_Truncates(t *testing.T) {
	in := []DesireProposal{{Description: "a"}, {Description: "b"}, {Description: "c"}, {Description: "d"}}
	out := FilterDesireProposals(in, 3)
	assert.Len(t, out, 3)
}

func TestParseTurnVerdict(t *testing.T) {
	assert.Equal(t, ForceQuit, parseTurnVerdict("  force_quit please"))
	assert.Equal(t, WrapUp, parseTurnVerdict("I think WRAP_UP is right"))
	assert.Equal(t, Continue, parseTurnVerdict("keep going"))
}

func TestParseNextSteps(t *testing.T) {
	steps := parseNextSteps(`Here you go: ["send_message", "THINK", "bogus"]`)
	assert.Equal(t, []NextStepKind{StepSendMessage, StepThink}, steps)
}

func TestParseDesireProposals(t *testing.T) {
	raw := `Sure thing: [{"description":"talk to bob","priority":0.5,"urgency":0.3,"motivation_type":"social","context":{}}]`
	out, err := parseDesireProposals(raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "talk to bob", out[0].Description)
}

func TestParseDesireProposals_NoArrayReturnsEmpty(t *testing.T) {
	out, err := parseDesireProposals("no json here")
	require.NoError(t, err)
	assert.Empty(t, out)
}
