// Package intention implements the Intention (a desire bound to a plan) and
// the Intention Selector (spec §4.4): binding at most one new intention per
// tick, and reactively suspending interruptible routine work for urgent
// social input.
package intention

import (
	"time"

	"github.com/google/uuid"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
)

// Status is the intention lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusAbandoned Status = "ABANDONED"
)

// socialSources never yield an interruptible intention, regardless of
// motivation type (spec §4.4, grounded on the original's create_intention_from_desire).
var socialSources = map[string]bool{
	desire.SourceIncomingMessage: true, desire.SourceUserMessage: true,
	desire.SourceWrapUp: true, desire.SourceDeepWorkReject: true,
}

// Intention is a desire committed to a concrete plan.
type Intention struct {
	ID                 string
	DesireID           string
	DesireDescription  string
	Plan               *plan.Plan
	Status             Status
	Priority           float64
	CurrentStep        int
	StepsCompleted     int
	StepsFailed        int
	StartedAt          time.Time
	CompletedAt        *time.Time
	LastActionAt        *time.Time
	Context            map[string]interface{}
	ExecutionLog       []string
	RetryCount         int
	Interruptible      bool
}

// FromDesire binds d to p, applying spec §4.4's interruptibility rule: any
// social source, or SOCIAL/WORLD_EVENT motivation (which covers an
// llm_dynamic social desire that targets a specific agent), is never
// interruptible. An llm_dynamic desire of any other motivation stays
// interruptible even when it carries a target_agent.
func FromDesire(d *desire.Desire, p *plan.Plan) *Intention {
	isSocialSource := socialSources[d.Source]
	isSocialType := d.MotivationType == desire.MotivationSocial || d.MotivationType == desire.MotivationWorldEvent
	_, hasTarget := d.Context["target_agent"]
	isLLMSocial := d.Source == desire.SourceLLMDynamic && isSocialType && hasTarget

	ctx := make(map[string]interface{}, len(d.Context))
	for k, v := range d.Context {
		ctx[k] = v
	}

	return &Intention{
		ID:                uuid.NewString(),
		DesireID:          d.ID,
		DesireDescription: d.Description,
		Plan:              p,
		Status:            StatusActive,
		Priority:          d.Priority,
		StartedAt:         time.Now(),
		Context:           ctx,
		Interruptible:     !(isSocialSource || isSocialType || isLLMSocial),
	}
}

// IsCompleted reports whether the bound plan has executed every step.
func (in *Intention) IsCompleted() bool {
	if in.Plan == nil {
		return false
	}
	return in.CurrentStep >= len(in.Plan.Steps)
}

// ProgressPercentage returns 0-100.
func (in *Intention) ProgressPercentage() float64 {
	if in.Plan == nil || len(in.Plan.Steps) == 0 {
		return 0
	}
	return float64(in.CurrentStep) / float64(len(in.Plan.Steps)) * 100
}

// CurrentAction returns the next not-yet-executed step, or nil if the plan
// is exhausted.
func (in *Intention) CurrentAction() *plan.Step {
	if in.Plan == nil || in.CurrentStep >= len(in.Plan.Steps) {
		return nil
	}
	return in.Plan.Steps[in.CurrentStep]
}

// Suspend marks the intention SUSPENDED with a logged reason.
func (in *Intention) Suspend(reason string) {
	in.Status = StatusSuspended
	in.ExecutionLog = append(in.ExecutionLog, "suspended: "+reason)
}

// Resume transitions a SUSPENDED intention back to ACTIVE.
func (in *Intention) Resume() {
	if in.Status == StatusSuspended {
		in.Status = StatusActive
	}
}

// Abandon marks the intention ABANDONED.
func (in *Intention) Abandon() {
	in.Status = StatusAbandoned
}

// Complete marks the intention COMPLETED and stamps CompletedAt.
func (in *Intention) Complete() {
	in.Status = StatusCompleted
	now := time.Now()
	in.CompletedAt = &now
}

// UpdateProgress advances or penalizes the plan cursor from one step's
// execution result, retrying up to 3 times before failing the intention
// outright.
func (in *Intention) UpdateProgress(success bool, reason string) {
	now := time.Now()
	in.LastActionAt = &now
	if success {
		in.CurrentStep++
		in.StepsCompleted++
		in.ExecutionLog = append(in.ExecutionLog, "step completed")
		return
	}
	in.StepsFailed++
	in.ExecutionLog = append(in.ExecutionLog, "step failed: "+reason)
	if in.RetryCount < 3 {
		in.RetryCount++
		return
	}
	in.Status = StatusFailed
	in.CompletedAt = &now
}
