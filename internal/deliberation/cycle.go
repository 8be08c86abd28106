// Package deliberation implements the Deliberation Cycle (spec §4.5): the
// single per-tick orchestration that runs Cleanup, the Idle Guard,
// Perception→Belief ingestion, Desire Generation, Reactive Interrupts,
// conversation-turn analysis, dynamic plan extension, Intention Selection,
// and the Execution harvest, in that fixed order.
package deliberation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// HardLimitTurns is the per-partner conversation-turn count at which a
// force-quit is requested for that partner, regardless of LLM advice.
const HardLimitTurns = 10

// IdleGuardThreshold is the number of consecutive ticks with no ACTIVE
// intention after which zombie intentions (plan fully executed but status
// never advanced) are killed.
const IdleGuardThreshold = 2

const maxDesires = 12

// ScheduledAction is one action the World Tick Loop must execute this tick.
type ScheduledAction struct {
	IntentionID string
	Action      *plan.Step
	StepIndex   int
}

// CycleInfo reports diagnostics about one run_cycle invocation, mirroring
// the stats dict the original cycle returns for the simulator's telemetry.
type CycleInfo struct {
	CycleNumber            int
	DurationSeconds        float64
	ActiveIntentionsCount  int
	SuspendedCount         int
	TotalDesires           int
	TotalBeliefs           int
	Interrupted            int
	EventInterrupted       int
	UserInterrupted        int
	SocialBattery          float64
	WrapUpTriggered        int
	ForceQuitCount         int
}

// Result is everything one run_cycle call produced.
type Result struct {
	NewBeliefs       []belief.Belief
	NewDesires       []*desire.Desire
	NewIntention     *intention.Intention
	ActionsToExecute []ScheduledAction
	Desires          []*desire.Desire
	Intentions       []*intention.Intention
	Info             CycleInfo
}

// Cycle owns the per-partner turn counters, wrap-up-issued set, and
// force-quit request set that must survive across ticks (spec §4.5's
// "Deliberation Cycle" persistent state).
type Cycle struct {
	generator *desire.Generator
	planner   *plan.Planner
	selector  *intention.Selector
	advisor   llm.Advisor
	logger    *zap.Logger

	cycleCount    int
	lastCycleTime time.Time

	conversationTurnCounts map[string]int
	wrapUpIssued           map[string]bool
	forceQuitPartners      map[string]bool
	idleTicks              int
}

// New constructs a Deliberation Cycle bound to one agent's collaborators. A
// nil logger is replaced with zap.NewNop(), matching the rest of the engine's
// treatment of an absent logger as a valid, silent configuration.
func New(generator *desire.Generator, planner *plan.Planner, selector *intention.Selector, advisor llm.Advisor, logger *zap.Logger) *Cycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cycle{
		generator:              generator,
		planner:                planner,
		selector:               selector,
		advisor:                advisor,
		logger:                 logger,
		conversationTurnCounts: make(map[string]int),
		wrapUpIssued:           make(map[string]bool),
		forceQuitPartners:      make(map[string]bool),
	}
}

// Input bundles everything run_cycle needs from the caller; it exists so
// the World Tick Loop can build one value per agent per tick rather than
// pass a dozen positional arguments.
type Input struct {
	AgentID             string
	AgentName           string
	Beliefs             *belief.Store
	Desires             []*desire.Desire
	Intentions          []*intention.Intention
	Personality         llm.Personality
	Emotions            llm.Emotions
	Perceptions         []desire.Perception
	ActiveConvPartners  []string
	SocialBattery       float64
	ConversationHistory map[string][]llm.TurnMessage
}

// Run executes the full 11-phase deliberation cycle for one agent for one
// tick (spec §4.5). The returned Result.Intentions is the same slice
// mutated in place; callers should treat it as the new canonical list.
func (c *Cycle) Run(ctx context.Context, in Input) Result {
	start := time.Now()
	c.cycleCount++
	history := in.ConversationHistory
	if history == nil {
		history = make(map[string][]llm.TurnMessage)
	}

	desires := in.Desires
	intentions := in.Intentions

	// 1. Cleanup.
	desires = cleanupDesires(desires, intentions)
	intentions, removedIDs := cleanupIntentions(intentions)
	for id := range removedIDs {
		delete(c.wrapUpIssued, id)
	}

	if len(desires) > maxDesires {
		var keepIncoming, other []*desire.Desire
		for _, d := range desires {
			if d.Source == desire.SourceIncomingMessage && d.Status == desire.StatusActive {
				keepIncoming = append(keepIncoming, d)
			} else {
				other = append(other, d)
			}
		}
		sort.SliceStable(other, func(i, j int) bool { return other[i].Utility() > other[j].Utility() })
		if len(other) > 6 {
			other = other[:6]
		}
		desires = append(keepIncoming, other...)
	}

	// 1b. Idle Guard.
	hasAnyActive := intention.HasActiveIntention(intentions)
	if !hasAnyActive {
		c.idleTicks++
		if c.idleTicks >= IdleGuardThreshold {
			killed := c.killZombieIntentions(intentions, desires)
			if killed > 0 {
				c.idleTicks = 0
			}
		}
	} else {
		c.idleTicks = 0
	}

	// 2. Perception → Belief.
	var newBeliefs []belief.Belief
	for _, perc := range in.Perceptions {
		newBeliefs = append(newBeliefs, in.Beliefs.UpdateFromPerception(belief.Perception{
			Type: perc.Type, Subject: perc.Subject, Data: perc.Data, Confidence: perc.Confidence,
		})...)
	}
	newBeliefs = append(newBeliefs, updateSelfBeliefs(in.Beliefs, in.AgentID, in.Emotions)...)

	// 2b. Turn counting / Hard Limit.
	for _, perc := range in.Perceptions {
		if perc.Type != "communication" {
			continue
		}
		partnerID := perc.Subject
		if partnerID == "" || partnerID == in.AgentID {
			continue
		}
		c.conversationTurnCounts[partnerID]++
		if c.conversationTurnCounts[partnerID] >= HardLimitTurns {
			if !c.forceQuitPartners[partnerID] {
				c.logger.Warn("hard turn limit reached, requesting force-quit",
					zap.String("agent_id", in.AgentID), zap.String("partner_id", partnerID),
					zap.Int("turns", c.conversationTurnCounts[partnerID]))
			}
			c.forceQuitPartners[partnerID] = true
		}
	}

	// 3. Desire generation.
	newDesires := c.generator.Generate(
		ctx, in.AgentID, in.AgentName, in.Personality, in.Emotions,
		in.Beliefs, desires, in.Perceptions, in.ActiveConvPartners, in.SocialBattery,
	)
	desires = append(desires, newDesires...)

	// 3b. Backup Idle Drive: Generate's own idle-drive step (tier 1) already
	// fires under the identical no-active-nonsocial-desire guard, so no
	// second call is needed here.

	// 4. Reactive interrupts: world_event > user_message > incoming_message.
	var worldEventDesire, userDesire, urgentSocial *desire.Desire
	for _, d := range desires {
		if d.Status != desire.StatusActive {
			continue
		}
		if worldEventDesire == nil && d.Source == desire.SourceWorldEvent {
			worldEventDesire = d
		}
		if userDesire == nil && d.Source == desire.SourceUserMessage {
			userDesire = d
		}
		if urgentSocial == nil && d.Source == desire.SourceIncomingMessage {
			urgentSocial = d
		}
	}

	var eventSuspended, userSuspended, suspendedNow []*intention.Intention
	if worldEventDesire != nil {
		for _, in2 := range intentions {
			if in2.Status == intention.StatusActive && in2.Interruptible &&
				!strings.Contains(strings.ToLower(in2.DesireDescription), "user") {
				in2.Suspend("World Event: " + truncate(worldEventDesire.Description, 40))
				eventSuspended = append(eventSuspended, in2)
			}
		}
	}
	if userDesire != nil && worldEventDesire == nil {
		for _, in2 := range intentions {
			if in2.Status == intention.StatusActive && in2.Interruptible {
				in2.Suspend("User message interrupt")
				userSuspended = append(userSuspended, in2)
			}
		}
	}
	if urgentSocial != nil && worldEventDesire == nil && userDesire == nil {
		alreadyResponding := false
		for _, in2 := range intentions {
			if in2.Status == intention.StatusActive && !in2.Interruptible {
				alreadyResponding = true
				break
			}
		}
		if !alreadyResponding {
			suspendedNow = c.selector.InterruptForSocial(intentions, urgentSocial)
			if len(suspendedNow) > 0 {
				c.logger.Info("suspended intentions for incoming message",
					zap.String("agent_id", in.AgentID), zap.Int("count", len(suspendedNow)))
			}
		}
	}

	// 5. Conversation-turn LLM analysis.
	wrapUpCreatedFor := make(map[string]bool)
	if c.advisor != nil && len(in.ActiveConvPartners) > 0 {
		var activeSocial []*intention.Intention
		for _, in2 := range intentions {
			if in2.Status == intention.StatusActive && !in2.Interruptible {
				activeSocial = append(activeSocial, in2)
			}
		}
		for _, in2 := range activeSocial {
			partnerID := intentionTarget(in2, desires)
			if partnerID == "" || c.forceQuitPartners[partnerID] || c.wrapUpIssued[in2.ID] {
				continue
			}
			turnHistory := history[partnerID]
			callCtx, cancel := llm.WithTimeout(ctx)
			verdict, err := c.advisor.AnalyzeConversationTurn(callCtx, in.AgentName, in.AgentID, in.Personality, turnHistory, in.SocialBattery)
			cancel()
			if err != nil {
				verdict = llm.Continue
				injectThinkStep(in2)
			}

			switch verdict {
			case llm.ForceQuit:
				c.forceQuitPartners[partnerID] = true
			case llm.WrapUp:
				desireForIntent := findDesire(desires, in2.DesireID)
				if desireForIntent != nil {
					wrapIntent, wrapDesire := createFarewellIntention(desireForIntent, partnerID)
					in2.Abandon()
					desireForIntent.Status = desire.StatusAbandoned
					intentions = append(intentions, wrapIntent)
					desires = append(desires, wrapDesire)
					c.wrapUpIssued[in2.ID] = true
					wrapUpCreatedFor[partnerID] = true
					c.logger.Info("wrap-up issued, created farewell intention",
						zap.String("agent_id", in.AgentID), zap.String("partner_id", partnerID))
				}
			}
		}
	}

	// 6. Dynamic plan extension on a new incoming message.
	if urgentSocial != nil && c.planner != nil {
		partnerID := contextString(urgentSocial, "target_agent")
		var activeIntent *intention.Intention
		for _, in2 := range intentions {
			if in2.Status == intention.StatusActive && !in2.Interruptible {
				activeIntent = in2
				break
			}
		}
		if activeIntent != nil && partnerID != "" &&
			!c.forceQuitPartners[partnerID] && !wrapUpCreatedFor[partnerID] && !c.wrapUpIssued[activeIntent.ID] {
			desireForIntent := findDesire(desires, activeIntent.DesireID)
			if desireForIntent != nil && activeIntent.Plan != nil && activeIntent.Plan.RemainingSteps() <= 1 {
				turnHistory := history[partnerID]
				c.planner.ExtendConversationPlan(ctx, activeIntent.Plan, desireForIntent, false, in.Personality, turnHistory, in.SocialBattery)
			}
		}
	}

	// 7. Intention selection.
	var newIntention *intention.Intention
	hasActive := intention.HasActiveIntention(intentions)
	if !hasActive {
		selected := c.selector.SelectCandidate(desires, intentions, in.Beliefs.Has)
		if selected != nil {
			planHistory := history[contextString(selected, "target_agent")]
			p := c.planner.CreatePlan(ctx, selected, in.Personality, in.SocialBattery, planHistory)
			if p == nil || len(p.Steps) == 0 {
				p = plan.New(
					&plan.Step{Action: plan.Observe, Parameters: map[string]interface{}{"subject": "event"}, Description: "observe what is happening", EstimatedDuration: 1.0},
					&plan.Step{Action: plan.Think, Parameters: map[string]interface{}{"topic": selected.Description}, Description: "think it over", EstimatedDuration: 2.0},
				)
			}
			newIntention = intention.FromDesire(selected, p)
			if selected.Source == desire.SourceWorldEvent || selected.Source == desire.SourceUserMessage {
				newIntention.Interruptible = false
				newIntention.Priority = 1.0
			}
			intentions = append(intentions, newIntention)
			selected.Status = desire.StatusPursued
			if selected.Source == desire.SourceWorldEvent {
				selected.Status = desire.StatusAchieved
			}
		} else {
			hasSocialActive := false
			for _, d := range desires {
				if (d.Source == desire.SourceIncomingMessage || d.Source == desire.SourceUserMessage) && d.Status == desire.StatusActive {
					hasSocialActive = true
					break
				}
			}
			if !hasSocialActive {
				intention.ResumeSuspended(intentions)
			}
		}
	}

	// 8. Execution harvest.
	var actions []ScheduledAction
	for _, in2 := range intentions {
		if in2.Status != intention.StatusActive {
			continue
		}
		action := in2.CurrentAction()
		if action != nil && !action.Executed {
			actions = append(actions, ScheduledAction{IntentionID: in2.ID, Action: action, StepIndex: in2.CurrentStep})
		}
	}

	c.lastCycleTime = time.Now()

	activeCount, suspendedCount := 0, 0
	for _, in2 := range intentions {
		switch in2.Status {
		case intention.StatusActive:
			activeCount++
		case intention.StatusSuspended:
			suspendedCount++
		}
	}

	return Result{
		NewBeliefs:       newBeliefs,
		NewDesires:       newDesires,
		NewIntention:     newIntention,
		ActionsToExecute: actions,
		Desires:          desires,
		Intentions:       intentions,
		Info: CycleInfo{
			CycleNumber:           c.cycleCount,
			DurationSeconds:       time.Since(start).Seconds(),
			ActiveIntentionsCount: activeCount,
			SuspendedCount:        suspendedCount,
			TotalDesires:          len(desires),
			TotalBeliefs:          in.Beliefs.Count(),
			Interrupted:           len(suspendedNow),
			EventInterrupted:      len(eventSuspended),
			UserInterrupted:       len(userSuspended),
			SocialBattery:         in.SocialBattery,
			WrapUpTriggered:       len(wrapUpCreatedFor),
			ForceQuitCount:        len(c.forceQuitPartners),
		},
	}
}

// ConsumeForceQuitPartners returns the partner ids requesting a force-quit
// teardown and clears the set atomically; the World Tick Loop calls this
// immediately after Run (spec §4.5 "Execution harvest").
func (c *Cycle) ConsumeForceQuitPartners() map[string]bool {
	out := c.forceQuitPartners
	c.forceQuitPartners = make(map[string]bool)
	return out
}

// NotifyConversationEnded clears the per-partner turn counter and any
// pending force-quit flag, and forwards the event to the Desire Generator.
func (c *Cycle) NotifyConversationEnded(partnerID string, personality llm.Personality) {
	c.generator.MarkConversationEnded(partnerID, personality)
	delete(c.conversationTurnCounts, partnerID)
	delete(c.forceQuitPartners, partnerID)
}

// NotifySoloAction forwards a solo action to the Desire Generator's satiety
// counter.
func (c *Cycle) NotifySoloAction(actionType string) {
	c.generator.MarkSoloAction(actionType)
}

func (c *Cycle) killZombieIntentions(intentions []*intention.Intention, desires []*desire.Desire) int {
	killed := 0
	for _, in2 := range intentions {
		if in2.Status != intention.StatusActive && in2.Status != intention.StatusSuspended {
			continue
		}
		if in2.Plan == nil {
			in2.Abandon()
			killed++
			continue
		}
		if in2.Plan.AllExecuted() {
			in2.Abandon()
			if d := findDesire(desires, in2.DesireID); d != nil {
				d.Status = desire.StatusAbandoned
			}
			delete(c.wrapUpIssued, in2.ID)
			killed++
			c.logger.Debug("idle guard killed zombie intention", zap.String("desire", truncate(in2.DesireDescription, 40)))
		}
	}
	return killed
}

func cleanupDesires(desires []*desire.Desire, intentions []*intention.Intention) []*desire.Desire {
	now := time.Now()
	boundTo := make(map[string]*intention.Intention, len(intentions))
	for _, in2 := range intentions {
		if in2.DesireID != "" {
			boundTo[in2.DesireID] = in2
		}
	}

	seen := make(map[string]bool, len(desires))
	out := desires[:0]
	for _, d := range desires {
		if d.IsExpired() {
			continue
		}
		if d.Status == desire.StatusPursued {
			if in2, ok := boundTo[d.ID]; !ok {
				d.Status = desire.StatusAchieved
			} else if in2.Status == intention.StatusCompleted || in2.Status == intention.StatusFailed || in2.Status == intention.StatusAbandoned {
				d.Status = desire.StatusAchieved
			}
		}
		age := now.Sub(d.CreatedAt)
		if (d.Status == desire.StatusAchieved || d.Status == desire.StatusAbandoned) && age > 30*time.Second {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(d.Description))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

func cleanupIntentions(intentions []*intention.Intention) ([]*intention.Intention, map[string]bool) {
	removed := make(map[string]bool)
	out := intentions[:0]
	for _, in2 := range intentions {
		switch in2.Status {
		case intention.StatusCompleted, intention.StatusFailed, intention.StatusAbandoned:
			removed[in2.ID] = true
		default:
			out = append(out, in2)
		}
	}
	return out, removed
}

func updateSelfBeliefs(store *belief.Store, agentID string, emotions llm.Emotions) []belief.Belief {
	values := map[string]float64{
		"happiness": emotions.Happiness, "sadness": emotions.Sadness, "anger": emotions.Anger,
		"fear": emotions.Fear, "surprise": emotions.Surprise, "disgust": emotions.Disgust,
		"loneliness": emotions.Loneliness, "comfort": emotions.Comfort,
	}
	out := make([]belief.Belief, 0, len(values))
	for name, v := range values {
		b := store.Add(belief.Belief{
			Type: belief.Self, Subject: agentID, Key: "emotion_" + name,
			Value: v, Confidence: 1.0, Source: "introspection",
		})
		out = append(out, b)
	}
	return out
}

func intentionTarget(in2 *intention.Intention, desires []*desire.Desire) string {
	d := findDesire(desires, in2.DesireID)
	if d == nil {
		return ""
	}
	return contextString(d, "target_agent")
}

func findDesire(desires []*desire.Desire, id string) *desire.Desire {
	for _, d := range desires {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func contextString(d *desire.Desire, key string) string {
	if d.Context == nil {
		return ""
	}
	s, _ := d.Context[key].(string)
	return s
}

func injectThinkStep(in2 *intention.Intention) {
	if in2.Plan == nil {
		return
	}
	step := &plan.Step{
		Action:            plan.Think,
		Parameters:        map[string]interface{}{"topic": "the current conversation"},
		Description:       "think it over (advisor fallback)",
		EstimatedDuration: 1.0,
	}
	idx := in2.CurrentStep
	if idx > len(in2.Plan.Steps) {
		idx = len(in2.Plan.Steps)
	}
	in2.Plan.Steps = append(in2.Plan.Steps[:idx], append([]*plan.Step{step}, in2.Plan.Steps[idx:]...)...)
}

func createFarewellIntention(original *desire.Desire, partnerID string) (*intention.Intention, *desire.Desire) {
	farewellPlan := plan.New(
		&plan.Step{
			Action: plan.SendMessage,
			Parameters: map[string]interface{}{
				"target": partnerID, "message_type": "farewell", "requires_response": false, "tone": "friendly",
			},
			Description:       fmt.Sprintf("say goodbye to %s", partnerID),
			EstimatedDuration: 1.0,
		},
		&plan.Step{
			Action:            plan.EndConversation,
			Parameters:        map[string]interface{}{"target": partnerID},
			Description:       "end the conversation",
			EstimatedDuration: 0.5,
		},
	)

	farewellDesire := desire.New(fmt.Sprintf("say goodbye to %s", partnerID), 0.99, 1.0, desire.MotivationSocial, desire.SourceWrapUp)
	farewellDesire.PersonalityAlignment = 1.0
	farewellDesire.Status = desire.StatusPursued
	farewellDesire.Context["target_agent"] = partnerID

	in2 := intention.FromDesire(farewellDesire, farewellPlan)
	in2.Interruptible = false
	in2.Priority = 0.99
	return in2, farewellDesire
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
