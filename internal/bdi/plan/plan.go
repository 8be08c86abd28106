// Package plan implements Plan/PlanStep data and the Planner (spec §4.3):
// it materializes a Plan for a Desire and extends dialogue plans in flight.
package plan

// ActionType is the closed set of actions a PlanStep can carry out (spec §3,
// §9 "closed ActionType tag with a dispatch table" — replacing the
// original's runtime duck-typed action dispatch).
type ActionType string

const (
	Move                  ActionType = "MOVE"
	Observe               ActionType = "OBSERVE"
	Think                 ActionType = "THINK"
	Search                ActionType = "SEARCH"
	Wait                  ActionType = "WAIT"
	Express               ActionType = "EXPRESS"
	Acquire               ActionType = "ACQUIRE"
	Use                   ActionType = "USE"
	Help                  ActionType = "HELP"
	Request               ActionType = "REQUEST"
	Give                  ActionType = "GIVE"
	InitiateConversation  ActionType = "INITIATE_CONVERSATION"
	SendMessage           ActionType = "SEND_MESSAGE"
	WaitForResponse       ActionType = "WAIT_FOR_RESPONSE"
	RespondToMessage      ActionType = "RESPOND_TO_MESSAGE"
	EndConversation       ActionType = "END_CONVERSATION"
)

// Step is one PlanStep. Parameters is a typed-by-convention map covering the
// design-neutral parameter surface named in spec §9: target, topic,
// message_type, requires_response, response_timeout, tone, in_reply_to,
// incoming_content, destination, query, subject, on_timeout, max_ticks,
// expected_from.
type Step struct {
	Action             ActionType
	Parameters         map[string]interface{}
	Description        string
	EstimatedDuration   float64
	Executed           bool
	Success            bool
	TimedOut           bool
	Result             interface{}
}

// Plan is an ordered sequence of Steps.
type Plan struct {
	Steps                   []*Step
	EstimatedTotalDuration  float64
}

// New wraps steps into a Plan, summing their estimated durations.
func New(steps ...*Step) *Plan {
	p := &Plan{Steps: steps}
	for _, s := range steps {
		p.EstimatedTotalDuration += s.EstimatedDuration
	}
	return p
}

// RemainingSteps returns the count of not-yet-executed steps.
func (p *Plan) RemainingSteps() int {
	n := 0
	for _, s := range p.Steps {
		if !s.Executed {
			n++
		}
	}
	return n
}

// AllExecuted reports whether every step has Executed=true. An empty plan
// reports false.
func (p *Plan) AllExecuted() bool {
	for _, s := range p.Steps {
		if !s.Executed {
			return false
		}
	}
	return len(p.Steps) > 0
}

// CurrentStep returns the index of the first not-yet-executed step, or
// len(Steps) if the plan is exhausted.
func (p *Plan) CurrentStep() int {
	for i, s := range p.Steps {
		if !s.Executed {
			return i
		}
	}
	return len(p.Steps)
}

// Append adds steps to the plan and updates the duration total.
func (p *Plan) Append(steps ...*Step) {
	p.Steps = append(p.Steps, steps...)
	for _, s := range steps {
		p.EstimatedTotalDuration += s.EstimatedDuration
	}
}

// SkipToEndConversation marks every step from "from" up to (exclusive of)
// the first END_CONVERSATION step as {executed:true, success:false,
// timed_out:true} and returns its index. If no END_CONVERSATION step
// follows, every remaining step is marked the same way and the plan length
// is returned (spec §3's Plan.skip_to_end_conversation).
func (p *Plan) SkipToEndConversation(from int) int {
	for i := from; i < len(p.Steps); i++ {
		if p.Steps[i].Action == EndConversation {
			return i
		}
		p.Steps[i].Executed = true
		p.Steps[i].Success = false
		p.Steps[i].TimedOut = true
	}
	return len(p.Steps)
}
