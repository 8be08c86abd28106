package llm

import (
	"context"
	"strings"
)

// FallbackProvider is the deterministic, always-available advisor used when
// no real provider is configured or every real provider has failed. It is
// grounded on the teacher's SimpleFallbackProvider
// (core/llm/simple_fallback_provider.go): small keyword-matched canned
// responses, never an error.
type FallbackProvider struct{}

// NewFallbackProvider constructs the canned-response advisor.
func NewFallbackProvider() *FallbackProvider { return &FallbackProvider{} }

func (f *FallbackProvider) Name() string { return "fallback" }

// GenerateDesires returns no proposals and no error, so callers fall
// through to the idle drive; the generator's THINK fallback, which runs
// only on an advisor error, is not triggered.
func (f *FallbackProvider) GenerateDesires(ctx context.Context, name, id string, personality Personality, emotions Emotions, socialBattery float64, recent []Perception) ([]DesireProposal, error) {
	return nil, nil
}

// AnalyzeConversationTurn always returns CONTINUE, the conservative default
// spec §9 calls for when turn analysis is unavailable.
func (f *FallbackProvider) AnalyzeConversationTurn(ctx context.Context, name, id string, personality Personality, history []TurnMessage, socialBattery float64) (TurnVerdict, error) {
	return Continue, nil
}

// GenerateNextPlanSteps returns a single THINK step, matching spec §9's
// documented next-step fallback.
func (f *FallbackProvider) GenerateNextPlanSteps(ctx context.Context, name, id string, personality Personality, currentDesireDescription string, history []TurnMessage, socialBattery float64) ([]NextStepKind, error) {
	return []NextStepKind{StepThink}, nil
}

// GenerateContent returns one of a small canned pool keyed by message type,
// per spec §9 ("content -> a small canned pool by message type").
func (f *FallbackProvider) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	switch strings.ToUpper(req.MessageType) {
	case "GREETING":
		return "Hey, good to see you.", nil
	case "QUESTION":
		return "What have you been up to lately?", nil
	case "ANSWER":
		return "That makes sense to me.", nil
	case "STATEMENT":
		return "I've been thinking about that too.", nil
	case "FAREWELL":
		return "I should get going — talk soon.", nil
	default:
		return "Mm, I see.", nil
	}
}
