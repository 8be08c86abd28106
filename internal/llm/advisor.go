// Package llm implements the LLM Advisor capability (spec §6 outbound
// interface): three advisory calls plus a free-form content-generation
// call. The engine treats every call as advisory, not authoritative — every
// call site has a deterministic local fallback, so the advisor can be fully
// unavailable without the engine losing function (spec §9 "LLM as advisor,
// not oracle").
package llm

import (
	"context"
	"time"
)

// TurnVerdict is the outcome of analyzing one conversation turn.
type TurnVerdict string

const (
	Continue  TurnVerdict = "CONTINUE"
	WrapUp    TurnVerdict = "WRAP_UP"
	ForceQuit TurnVerdict = "FORCE_QUIT"
)

// NextStepKind is one of the restricted plan-step kinds the advisor may
// propose for dialogue continuation (spec §6 call 3).
type NextStepKind string

const (
	StepSendMessage          NextStepKind = "send_message"
	StepWaitForResponse      NextStepKind = "wait_for_response"
	StepEndConversation      NextStepKind = "end_conversation"
	StepInitiateConversation NextStepKind = "initiate_conversation"
	StepRespondToMessage     NextStepKind = "respond_to_message"
	StepThink                NextStepKind = "think"
)

// Personality mirrors the OCEAN vector callers pass into every advisory
// call (kept here, not imported from package agent, to avoid a cycle: agent
// imports llm, llm must not import agent back).
type Personality struct {
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
}

// Emotions mirrors the emotion vector passed into desire generation.
type Emotions struct {
	Happiness  float64
	Sadness    float64
	Anger      float64
	Fear       float64
	Surprise   float64
	Disgust    float64
	Loneliness float64
	Comfort    float64
}

// Perception is the minimal shape the advisor needs from recent perceptions.
type Perception struct {
	Type    string
	Subject string
	Summary string
}

// TurnMessage is one line of dialogue history passed to the turn analyzer
// and the plan-step proposer.
type TurnMessage struct {
	SenderName string
	Content    string
}

// DesireProposal is one candidate desire the advisor suggests (spec §6 call 1).
type DesireProposal struct {
	Description    string
	Priority       float64
	Urgency        float64
	MotivationType string `json:"motivation_type"`
	Context        map[string]interface{}
}

// ContentRequest parameterizes the free-form outbound-message generation
// call described in spec §6 ("Content generation for a single outbound
// message").
type ContentRequest struct {
	Personality     Personality
	Context         string
	History         []TurnMessage
	MessageType     string
	IncomingContent string
}

// Advisor is the outbound capability interface the core depends on. Every
// method must return quickly or respect ctx's deadline; spec §5 says a
// caller-enforced timeout (30s is adequate) guards every call.
type Advisor interface {
	// GenerateDesires proposes 0-3 candidate desires (spec §6 call 1).
	GenerateDesires(ctx context.Context, name, id string, personality Personality, emotions Emotions, socialBattery float64, recent []Perception) ([]DesireProposal, error)

	// AnalyzeConversationTurn classifies the state of an in-progress
	// dialogue (spec §6 call 2).
	AnalyzeConversationTurn(ctx context.Context, name, id string, personality Personality, history []TurnMessage, socialBattery float64) (TurnVerdict, error)

	// GenerateNextPlanSteps proposes 1-2 next dialogue steps (spec §6 call 3).
	GenerateNextPlanSteps(ctx context.Context, name, id string, personality Personality, currentDesireDescription string, history []TurnMessage, socialBattery float64) ([]NextStepKind, error)

	// GenerateContent produces one plain-text utterance for an outbound message.
	GenerateContent(ctx context.Context, req ContentRequest) (string, error)

	// Name identifies the provider for logging/stats.
	Name() string
}

// DefaultTimeout is the caller-enforced timeout spec §5 calls "30s is
// adequate" for any single advisory call.
const DefaultTimeout = 30 * time.Second

// WithTimeout wraps ctx with DefaultTimeout unless ctx already carries an
// earlier deadline.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < DefaultTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

// FilterNextSteps keeps only steps in the restricted set and truncates to
// at most max entries, per spec §6 ("anything else is filtered"/"truncated").
// parseNextSteps applies this to the raw model output.
func FilterNextSteps(in []NextStepKind, max int) []NextStepKind {
	allowed := map[NextStepKind]bool{
		StepSendMessage: true, StepWaitForResponse: true, StepEndConversation: true,
		StepInitiateConversation: true, StepRespondToMessage: true, StepThink: true,
	}
	out := make([]NextStepKind, 0, max)
	for _, s := range in {
		if !allowed[s] {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

// FilterDesireProposals truncates to at most max entries, per spec §6
// ("tolerates list length 0-3; anything else is truncated").
// parseDesireProposals applies this to the raw model output.
func FilterDesireProposals(in []DesireProposal, max int) []DesireProposal {
	if len(in) <= max {
		return in
	}
	return in[:max]
}
