package plan

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// Role distinguishes the two dialogue-plan variants (spec §4.3).
type Role string

const (
	Initiator Role = "initiator"
	Responder Role = "responder"
)

var socialKeywords = []string{
	"talk to", "chat with", "tell", "share", "comfort", "converse", "confide",
}
var movementKeywords = []string{"go to", "walk to", "move to", "head to"}
var searchKeywords = []string{"find", "search for", "look for"}
var learningKeywords = []string{"learn", "study", "read about", "explore"}
var soloKeywords = []string{"quiet place", "reflect", "alone", "solitude"}
var organizeKeywords = []string{"organize", "tidy", "sort out", "errands"}

func descContainsAny(desc string, keywords []string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func ctxString(d *desire.Desire, key, def string) string {
	if d.Context == nil {
		return def
	}
	if v, ok := d.Context[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Planner materializes Plans for selected Desires and extends in-flight
// dialogue plans with advisor-proposed continuations (spec §4.3).
type Planner struct {
	advisor llm.Advisor
	rng     *rand.Rand
}

// NewPlanner constructs a Planner backed by the given advisor (nil is valid
// and triggers the deterministic fallbacks everywhere the advisor would be
// consulted).
func NewPlanner(advisor llm.Advisor) *Planner {
	return &Planner{advisor: advisor, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreatePlan dispatches on the desire's classification (spec §4.3 "Dispatch
// by desire classification") and materializes the matching Plan.
func (pl *Planner) CreatePlan(ctx context.Context, d *desire.Desire, personality llm.Personality, socialBattery float64, history []llm.TurnMessage) *Plan {
	desc := strings.ToLower(d.Description)

	if d.Source == desire.SourceIncomingMessage || strings.HasPrefix(desc, "respond") {
		return pl.CreateDynamicPlan(ctx, d, Responder, personality, socialBattery, history)
	}
	if d.Source == desire.SourceIdleDrive || ctxBool(d, "is_idle") {
		return pl.createIdlePlan(d)
	}
	if descContainsAny(desc, socialKeywords) {
		return pl.CreateDynamicPlan(ctx, d, Initiator, personality, socialBattery, history)
	}
	if descContainsAny(desc, movementKeywords) {
		return pl.createMovementPlan(d)
	}
	if descContainsAny(desc, searchKeywords) {
		return pl.createSearchPlan(d)
	}
	if descContainsAny(desc, learningKeywords) {
		return pl.createLearningPlan(d)
	}
	if descContainsAny(desc, soloKeywords) {
		return pl.createSoloPlan(d, "reflection")
	}
	if descContainsAny(desc, organizeKeywords) {
		return pl.createSoloPlan(d, "organize")
	}
	return pl.createGenericPlan(d)
}

func ctxBool(d *desire.Desire, key string) bool {
	if d.Context == nil {
		return false
	}
	v, _ := d.Context[key].(bool)
	return v
}

// CreateDynamicPlan builds the initiator/responder dialogue plan skeleton
// (spec §4.3 "Dynamic dialogue plan"): INITIATE_CONVERSATION, the role's
// first SEND_MESSAGE, then 1-2 advisor-proposed continuation steps.
func (pl *Planner) CreateDynamicPlan(ctx context.Context, d *desire.Desire, role Role, personality llm.Personality, socialBattery float64, history []llm.TurnMessage) *Plan {
	target := ctxString(d, "target_agent", "")
	topic := ctxString(d, "topic", "general topics")
	msgID := ctxString(d, "in_reply_to_msg", "")
	incoming := ctxString(d, "incoming_content", "")

	steps := []*Step{
		{
			Action:            InitiateConversation,
			Parameters:        map[string]interface{}{"target": target, "topic": topic},
			Description:       fmt.Sprintf("enter dialogue with %s", target),
			EstimatedDuration: 0.5,
		},
	}

	var msgType, desc string
	requiresResponse := role == Initiator
	if role == Initiator {
		msgType, desc = "GREETING", fmt.Sprintf("greet %s", target)
	} else {
		msgType, desc = "ANSWER", fmt.Sprintf("respond to %s", target)
	}
	sendParams := map[string]interface{}{
		"target": target, "message_type": msgType, "topic": topic,
		"requires_response": requiresResponse, "tone": "friendly",
	}
	if msgID != "" {
		sendParams["in_reply_to"] = msgID
	}
	if incoming != "" {
		sendParams["incoming_content"] = incoming
	}
	steps = append(steps, &Step{
		Action:            SendMessage,
		Parameters:        sendParams,
		Description:       desc,
		EstimatedDuration: 1.5,
	})

	steps = append(steps, pl.nextStepsFrom(ctx, d, personality, history, socialBattery, target, topic)...)
	return New(steps...)
}

// ExtendConversationPlan appends 1-2 more steps when the opposite party's
// next message arrives and the plan has <=1 remaining step (spec §4.3
// "extend_conversation_plan").
func (pl *Planner) ExtendConversationPlan(ctx context.Context, p *Plan, d *desire.Desire, forceEnd bool, personality llm.Personality, history []llm.TurnMessage, socialBattery float64) {
	target := ctxString(d, "target_agent", "")
	topic := ctxString(d, "topic", "general topics")

	if forceEnd {
		for _, s := range p.Steps {
			if !s.Executed {
				s.Executed = true
				s.Success = false
				s.TimedOut = true
			}
		}
		p.Append(
			&Step{Action: SendMessage, Parameters: map[string]interface{}{"target": target, "message_type": "FAREWELL", "requires_response": false, "tone": "friendly"}, Description: "say goodbye", EstimatedDuration: 1.0},
			&Step{Action: EndConversation, Parameters: map[string]interface{}{"target": target}, Description: "end conversation", EstimatedDuration: 0.5},
		)
		return
	}
	p.Append(pl.nextStepsFrom(ctx, d, personality, history, socialBattery, target, topic)...)
}

// nextStepsFrom asks the advisor for 1-2 next steps, falling back to the
// deterministic minimal continuation on failure or when no advisor is
// configured (spec §4.3's documented fallback).
func (pl *Planner) nextStepsFrom(ctx context.Context, d *desire.Desire, personality llm.Personality, history []llm.TurnMessage, socialBattery float64, target, topic string) []*Step {
	if pl.advisor == nil {
		return pl.fallbackNextSteps(target, socialBattery)
	}
	callCtx, cancel := llm.WithTimeout(ctx)
	defer cancel()
	kinds, err := pl.advisor.GenerateNextPlanSteps(callCtx, "", "", personality, d.Description, history, socialBattery)
	if err != nil || len(kinds) == 0 {
		return pl.fallbackNextSteps(target, socialBattery)
	}
	return stepsFromKinds(kinds, target, topic, socialBattery)
}

// fallbackNextSteps implements spec §4.3's documented fallback: a farewell
// when battery is low, otherwise a bounded wait.
func (pl *Planner) fallbackNextSteps(target string, socialBattery float64) []*Step {
	if socialBattery < 0.3 {
		return []*Step{
			{Action: SendMessage, Parameters: map[string]interface{}{"target": target, "message_type": "FAREWELL", "requires_response": false, "tone": "friendly"}, Description: fmt.Sprintf("say goodbye to %s", target), EstimatedDuration: 1.0},
			{Action: EndConversation, Parameters: map[string]interface{}{"target": target}, Description: "end conversation", EstimatedDuration: 0.5},
		}
	}
	return []*Step{
		{Action: WaitForResponse, Parameters: map[string]interface{}{"target": target, "max_ticks": 6, "on_timeout": "end"}, Description: fmt.Sprintf("wait for %s", target), EstimatedDuration: 2.0},
		{Action: EndConversation, Parameters: map[string]interface{}{"target": target}, Description: "end conversation", EstimatedDuration: 0.5},
	}
}

func stepsFromKinds(kinds []llm.NextStepKind, target, topic string, socialBattery float64) []*Step {
	out := make([]*Step, 0, len(kinds))
	for _, k := range kinds {
		switch k {
		case llm.StepSendMessage:
			msgType := "STATEMENT"
			if socialBattery < 0.2 {
				msgType = "FAREWELL"
			}
			out = append(out, &Step{
				Action:            SendMessage,
				Parameters:        map[string]interface{}{"target": target, "message_type": msgType, "topic": topic, "requires_response": false, "tone": "friendly"},
				Description:       fmt.Sprintf("continue the conversation with %s", target),
				EstimatedDuration: 1.5,
			})
		case llm.StepWaitForResponse:
			out = append(out, &Step{Action: WaitForResponse, Parameters: map[string]interface{}{"target": target, "max_ticks": 6, "on_timeout": "end"}, Description: fmt.Sprintf("wait for %s", target), EstimatedDuration: 2.0})
		case llm.StepEndConversation:
			out = append(out, &Step{Action: EndConversation, Parameters: map[string]interface{}{"target": target}, Description: "end conversation", EstimatedDuration: 0.5})
		case llm.StepInitiateConversation:
			out = append(out, &Step{Action: InitiateConversation, Parameters: map[string]interface{}{"target": target, "topic": topic}, Description: fmt.Sprintf("enter dialogue with %s", target), EstimatedDuration: 0.5})
		case llm.StepRespondToMessage:
			out = append(out, &Step{Action: RespondToMessage, Parameters: map[string]interface{}{"target": target, "topic": topic}, Description: fmt.Sprintf("respond to %s", target), EstimatedDuration: 1.5})
		case llm.StepThink:
			out = append(out, &Step{Action: Think, Parameters: map[string]interface{}{"topic": topic}, Description: "think it over", EstimatedDuration: 1.0})
		}
	}
	return out
}

func (pl *Planner) createIdlePlan(d *desire.Desire) *Plan {
	action := ctxString(d, "action", "observe")
	dest := ctxString(d, "destination", "central square")
	topic := ctxString(d, "topic", "current thoughts")

	switch action {
	case "move":
		return New(&Step{Action: Move, Parameters: map[string]interface{}{"destination": dest}, Description: fmt.Sprintf("wander toward %s", dest), EstimatedDuration: 1.0})
	case "think":
		return New(&Step{Action: Think, Parameters: map[string]interface{}{"topic": topic}, Description: "daydream and reflect", EstimatedDuration: 1.0})
	default:
		return New(&Step{Action: Observe, Parameters: map[string]interface{}{"subject": "surroundings"}, Description: "look around", EstimatedDuration: 1.0})
	}
}

func (pl *Planner) createMovementPlan(d *desire.Desire) *Plan {
	dest := ctxString(d, "destination", "central square")
	return New(&Step{Action: Move, Parameters: map[string]interface{}{"destination": dest}, Description: fmt.Sprintf("move to %s", dest), EstimatedDuration: 1.0})
}

func (pl *Planner) createSearchPlan(d *desire.Desire) *Plan {
	q := ctxString(d, "search_query", d.Description)
	return New(
		&Step{Action: Search, Parameters: map[string]interface{}{"query": q}, Description: fmt.Sprintf("search for %s", q), EstimatedDuration: 1.0},
		&Step{Action: Observe, Description: "look over the results", EstimatedDuration: 1.0},
		&Step{Action: Think, Parameters: map[string]interface{}{"topic": q}, Description: "think it over", EstimatedDuration: 1.0},
	)
}

func (pl *Planner) createLearningPlan(d *desire.Desire) *Plan {
	topic := ctxString(d, "topic", "general")
	return New(
		&Step{Action: Move, Parameters: map[string]interface{}{"destination": "library"}, Description: "head to the library", EstimatedDuration: 1.0},
		&Step{Action: Search, Parameters: map[string]interface{}{"query": topic}, Description: fmt.Sprintf("find material on %s", topic), EstimatedDuration: 1.0},
		&Step{Action: Observe, Parameters: map[string]interface{}{"subject": topic}, Description: "study it", EstimatedDuration: 1.0},
		&Step{Action: Think, Parameters: map[string]interface{}{"topic": topic}, Description: "think it through", EstimatedDuration: 1.0},
	)
}

func (pl *Planner) createGenericPlan(d *desire.Desire) *Plan {
	return New(
		&Step{Action: Think, Parameters: map[string]interface{}{"topic": d.Description}, Description: fmt.Sprintf("think about: %s", d.Description), EstimatedDuration: 1.0},
		&Step{Action: Observe, Description: "take stock of the situation", EstimatedDuration: 1.0},
	)
}

var soloReflectionDestinations = []string{"park", "library", "waterfront"}

// createSoloPlan builds a 3-4 step alternating solo plan (spec §4.3) that
// deliberately advances the social-satiety counter.
func (pl *Planner) createSoloPlan(d *desire.Desire, mode string) *Plan {
	if mode == "reflection" {
		dest := soloReflectionDestinations[pl.rng.Intn(len(soloReflectionDestinations))]
		topic := ctxString(d, "topic", "recent events")
		return New(
			&Step{Action: Move, Parameters: map[string]interface{}{"destination": dest}, Description: fmt.Sprintf("find somewhere quiet — %s", dest), EstimatedDuration: 1.0},
			&Step{Action: Observe, Parameters: map[string]interface{}{"subject": "surroundings"}, Description: "take in the atmosphere", EstimatedDuration: 1.0},
			&Step{Action: Think, Parameters: map[string]interface{}{"topic": topic}, Description: fmt.Sprintf("reflect on %s", topic), EstimatedDuration: 2.0},
			&Step{Action: Observe, Parameters: map[string]interface{}{"subject": "inner_state"}, Description: "check in with myself", EstimatedDuration: 1.0},
		)
	}
	return New(
		&Step{Action: Think, Parameters: map[string]interface{}{"topic": "planning"}, Description: "sort out my thoughts", EstimatedDuration: 1.0},
		&Step{Action: Move, Parameters: map[string]interface{}{"destination": "central square"}, Description: "run errands", EstimatedDuration: 1.0},
		&Step{Action: Observe, Description: "check on things", EstimatedDuration: 1.0},
	)
}
