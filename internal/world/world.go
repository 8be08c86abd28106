// Package world implements the World Tick Loop (spec §4.7): the global
// single-threaded cooperative scheduler that owns the agent population, the
// relationship graph, the event log, and the Communication Hub, and drives
// every agent through one Deliberation Cycle per tick followed by action
// dispatch.
package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/comms"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/deliberation"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/episodic"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// BaseTickSeconds is the default real-time tick period at time_speed=1.0
// (spec §4.7 "Tick pacing").
const BaseTickSeconds = 5.0

// MinTickSeconds is the overrun floor: a tick that blows its budget is
// rescheduled no sooner than this, with no catch-up burst (spec §4.7).
const MinTickSeconds = 0.1

// MinTimeSpeed and MaxTimeSpeed bound set_time_speed (spec §6).
const (
	MinTimeSpeed = 0.1
	MaxTimeSpeed = 10.0
)

// eventFreshness is how long an event-log entry remains perceivable (spec
// §4.7 "Event log perceptions: ... younger than 10s").
const eventFreshness = 10 * time.Second

// maxProcessedEvents caps each agent's processed-event-id set (spec §4.7).
const maxProcessedEvents = 200

// World is the global scheduler (spec §4.7, §5). Only the tick loop mutates
// agent state; external callers (the HTTP/WebSocket collaborator) only
// touch the Hub and the event log, both of which are safe for concurrent
// access from outside a tick.
type World struct {
	mu sync.Mutex

	agents     map[string]*agent.Agent
	order      []string // insertion order, spec §4.7 "in insertion order"
	cycles     map[string]*deliberation.Cycle
	processed  map[string][]string // agentID -> ordered processed event ids

	hub           *comms.Hub
	relationships map[string]float64
	history       map[string][]llm.TurnMessage // sorted-pair key -> dialogue history
	waitTicks     map[string]int               // intentionID -> WAIT_FOR_RESPONSE tick counter
	eventLog      []logEntry

	timeSpeed float64
	tickCount int

	advisor llm.Advisor
	logger  *zap.Logger

	episodic *episodic.Store

	observer  TickObserver
	tickNotes []TickEvent

	cancel context.CancelFunc
	done   chan struct{}
}

// TickEvent is one notable occurrence during a tick (an action dispatch or
// a force-quit), surfaced to operator-facing collaborators.
type TickEvent struct {
	AgentID string
	Kind    string // "action" or "force_quit"
	Detail  string
	Success bool
}

// TickSummary is handed to a TickObserver once per completed tick. It
// carries the tick's action confirmations and force-quits; emotion changes
// are not included.
type TickSummary struct {
	Tick   int
	Events []TickEvent
}

// TickObserver is notified once per completed tick. Implementations must
// not block: the world's own goroutine calls it synchronously.
type TickObserver func(TickSummary)

// SetTickObserver installs fn to be called once after every Tick completes.
// A nil fn disables notification.
func (w *World) SetTickObserver(fn TickObserver) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observer = fn
}

func (w *World) noteTickEvent(e TickEvent) {
	w.mu.Lock()
	w.tickNotes = append(w.tickNotes, e)
	w.mu.Unlock()
}

// SetEpisodicStore installs the optional supabase-backed episodic memory
// collaborator. A nil store (the default) disables episodic recording
// entirely; no dialogue turn is ever required to pass through it.
func (w *World) SetEpisodicStore(s *episodic.Store) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.episodic = s
}

// New constructs an empty World. A nil advisor is valid and every
// LLM-backed call falls back to the deterministic canned provider (spec §9
// "LLM as advisor, not oracle"). A nil logger defaults to zap.NewNop().
func New(advisor llm.Advisor, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := comms.New()
	h.RegisterAgent(desire.UserID)
	return &World{
		agents:        make(map[string]*agent.Agent),
		cycles:        make(map[string]*deliberation.Cycle),
		processed:     make(map[string][]string),
		hub:           h,
		relationships: make(map[string]float64),
		history:       make(map[string][]llm.TurnMessage),
		waitTicks:     make(map[string]int),
		timeSpeed:     1.0,
		advisor:       advisor,
		logger:        logger,
	}
}

// AddAgent registers a into the world: the Hub, the deliberation machinery,
// and the insertion-ordered agent list.
func (w *World) AddAgent(a *agent.Agent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.agents[a.ID]; exists {
		return
	}
	w.agents[a.ID] = a
	w.order = append(w.order, a.ID)
	w.hub.RegisterAgent(a.ID)
	w.cycles[a.ID] = deliberation.New(a.Generator, a.Planner, intention.NewSelector(), w.advisor, w.logger)
}

// RemoveAgent drops an agent from the world; it does not tear down its
// conversations (callers that need a clean departure should force-quit its
// partners first).
func (w *World) RemoveAgent(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.agents, id)
	delete(w.cycles, id)
	delete(w.processed, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// SetTimeSpeed clamps multiplier to [MinTimeSpeed, MaxTimeSpeed] (spec §6).
func (w *World) SetTimeSpeed(multiplier float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if multiplier < MinTimeSpeed {
		multiplier = MinTimeSpeed
	}
	if multiplier > MaxTimeSpeed {
		multiplier = MaxTimeSpeed
	}
	w.timeSpeed = multiplier
}

// tickPeriod returns the effective tick period for the current time_speed.
func (w *World) tickPeriod() time.Duration {
	period := BaseTickSeconds / w.timeSpeed
	if period < MinTickSeconds {
		period = MinTickSeconds
	}
	return time.Duration(period * float64(time.Second))
}

// InjectEvent appends a world-event-injection entry (spec §6 "Inbound:
// World-event injection"); agentIDs empty means broadcast to everyone.
func (w *World) InjectEvent(description string, agentIDs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kind := kindWorldEvent
	if len(agentIDs) > 0 {
		kind = kindUserEvent
	}
	w.eventLog = append(w.eventLog, logEntry{
		ID: uuid.NewString(), Kind: kind, Description: description,
		AgentIDs: agentIDs, CreatedAt: time.Now(),
	})
}

// EnqueueExternalMessage delivers a STATEMENT message from an external
// caller via the Hub (spec §6 "Inbound: Message injection").
func (w *World) EnqueueExternalMessage(senderID, receiverID, content, topic string, requiresResponse bool) {
	w.hub.SendMessage(&comms.Message{
		SenderID: senderID, ReceiverID: receiverID, Content: content,
		MessageType: comms.Statement, Topic: topic,
		RequiresResponse: requiresResponse, ResponseTimeout: 60 * time.Second,
	})
}

// Hub exposes the Communication Hub for collaborators that need to inspect
// conversations directly (e.g. the HTTP/WebSocket surface).
func (w *World) Hub() *comms.Hub { return w.hub }

// Start runs the tick loop until ctx is cancelled or Stop is called (spec
// §4.7's scheduler, modeled after the teacher's ticker-driven orchestration
// loop).
func (w *World) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			start := time.Now()
			fatal := w.safeTick(ctx)
			elapsed := time.Since(start)
			sleep := w.tickPeriod() - elapsed
			if sleep < time.Duration(MinTickSeconds*float64(time.Second)) {
				sleep = time.Duration(MinTickSeconds * float64(time.Second))
			}
			if fatal {
				// spec §7 "Fatal": a tick-loop-level failure not attributable
				// to a single agent logs with stack, sleeps 2s, and resumes.
				sleep = 2 * time.Second
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}()
}

// Stop cancels the running tick loop and waits for it to exit.
func (w *World) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

// Tick executes exactly one process_game_tick (spec §4.7): drains the Hub,
// runs every agent's deliberation cycle in insertion order, consumes
// force-quit requests, and dispatches the resulting actions. Any per-agent
// panic or error is caught and logged rather than propagated (spec §7
// "Fatal" handling); it never aborts the remaining agents' ticks.
func (w *World) Tick(ctx context.Context) {
	w.mu.Lock()
	w.tickCount++
	tick := w.tickCount
	order := append([]string(nil), w.order...)
	cache := w.drainMessages(order)
	w.tickNotes = nil
	w.mu.Unlock()

	perceptions := w.buildPerceptions(order, cache)

	var errs *multierror.Error
	for _, id := range order {
		if err := w.runAgentTick(ctx, id, perceptions[id], cache[id]); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		w.logger.Warn("tick_agent_errors", zap.Error(errs.ErrorOrNil()), zap.Int("tick", tick))
	}

	w.mu.Lock()
	observer := w.observer
	notes := w.tickNotes
	w.mu.Unlock()
	if observer != nil {
		observer(TickSummary{Tick: tick, Events: notes})
	}
}

// safeTick runs one Tick, recovering a tick-loop-level panic that isn't
// attributable to a single agent's dispatch (those are already caught
// per-handler in dispatch.go). Returns true if a fatal panic was recovered.
func (w *World) safeTick(ctx context.Context) (fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			fatal = true
			w.logger.Error("tick_fatal", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	w.Tick(ctx)
	return false
}

// drainMessages pulls one batch per agent from the Hub and caches it for
// this tick's perception assembly (spec §4.7 step 1). Must be called with
// w.mu held.
func (w *World) drainMessages(order []string) map[string][]comms.Message {
	cache := make(map[string][]comms.Message, len(order))
	for _, id := range order {
		cache[id] = w.hub.ReceiveMessages(id)
	}
	return cache
}

// runAgentTick runs one agent's full cycle: deliberation, force-quit
// consumption, and action dispatch (spec §4.7 step 2). msgs is this tick's
// drained message batch, needed by the WAIT_FOR_RESPONSE handler.
func (w *World) runAgentTick(ctx context.Context, id string, perc []desire.Perception, msgs []comms.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s tick panicked: %v", id, r)
		}
	}()

	w.mu.Lock()
	ag, ok := w.agents[id]
	cyc := w.cycles[id]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("agent %s vanished mid-tick", id)
	}

	activePartners := ag.ActivePartners
	convHistory := w.historyFor(activePartners, id)

	res := cyc.Run(ctx, deliberation.Input{
		AgentID: ag.ID, AgentName: ag.Name, Beliefs: ag.Beliefs,
		Desires: ag.Desires, Intentions: ag.Intentions,
		Personality: ag.LLMPersonality(), Emotions: ag.LLMEmotions(),
		Perceptions: perc, ActiveConvPartners: activePartners,
		SocialBattery: ag.SocialBattery, ConversationHistory: convHistory,
	})

	ag.Desires = res.Desires
	ag.Intentions = res.Intentions

	quits := cyc.ConsumeForceQuitPartners()
	for partnerID := range quits {
		w.atomicForceQuit(ag.ID, partnerID)
	}

	for _, sa := range res.ActionsToExecute {
		w.dispatch(ctx, ag, cyc, ag.Intentions, sa, msgs)
	}
	return nil
}

func (w *World) relationshipKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// bumpRelationship adjusts the scalar affinity between a and b, clamped to
// [-1, 1] (spec §3 "relationships").
func (w *World) bumpRelationship(a, b string, delta float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := w.relationshipKey(a, b)
	v := w.relationships[key] + delta
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	w.relationships[key] = v
}

// Relationship returns the current affinity between a and b, default 0.0.
func (w *World) Relationship(a, b string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.relationships[w.relationshipKey(a, b)]
}

func (w *World) historyFor(partners []string, selfID string) map[string][]llm.TurnMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string][]llm.TurnMessage, len(partners))
	for _, p := range partners {
		out[p] = w.history[w.relationshipKey(selfID, p)]
	}
	return out
}

func (w *World) appendHistory(a, b, senderName, content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := w.relationshipKey(a, b)
	hist := append(w.history[key], llm.TurnMessage{SenderName: senderName, Content: content})
	if len(hist) > 20 {
		hist = hist[len(hist)-20:]
	}
	w.history[key] = hist
}

// recordEpisodicTurn appends one dialogue turn to the optional episodic
// memory collaborator. A failure (or no collaborator configured) is logged
// at most and never interrupts the tick — episodic memory is an optional
// side-channel, not a dependency of the core engine (spec §1).
func (w *World) recordEpisodicTurn(senderID, receiverID, content string) {
	w.mu.Lock()
	store := w.episodic
	w.mu.Unlock()
	if store == nil {
		return
	}
	if err := store.AppendTurn(episodic.Turn{
		ID: uuid.NewString(), AgentID: senderID, PartnerID: receiverID, Content: content,
	}); err != nil {
		w.logger.Warn("episodic_append_failed", zap.String("agent_id", senderID), zap.Error(err))
	}
}

func lastN(history []llm.TurnMessage, n int) []llm.TurnMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// atomicForceQuit is the symmetric conversation tear-down (spec §4.7
// "Atomic force-quit"). It must run without yielding to another agent's
// dispatch; callers invoke it from inside the single-threaded tick loop, so
// no additional locking beyond the state it actually mutates is required.
func (w *World) atomicForceQuit(agentID, partnerID string) {
	w.mu.Lock()
	ag, ok1 := w.agents[agentID]
	partner, ok2 := w.agents[partnerID]
	w.mu.Unlock()
	if !ok1 {
		return
	}

	if conv := w.hub.GetActiveConversation(agentID, partnerID); conv != nil {
		w.hub.EndConversation(conv.ID)
	}
	w.logger.Info("force_quit", zap.String("agent_id", agentID), zap.String("partner_id", partnerID))
	w.noteTickEvent(TickEvent{AgentID: agentID, Kind: "force_quit", Detail: partnerID, Success: true})

	abandonTargeting := func(a *agent.Agent, counterpart string) {
		for _, in2 := range a.Intentions {
			if intentionTargets(in2, a.Desires, counterpart) {
				delete(w.waitTicks, in2.ID)
				in2.Abandon()
				if d := findDesireByID(a.Desires, in2.DesireID); d != nil {
					d.Status = desire.StatusAbandoned
				}
			}
		}
	}

	abandonTargeting(ag, partnerID)
	ag.RemoveActivePartner(partnerID)
	if cyc, ok := w.cycles[agentID]; ok {
		cyc.NotifyConversationEnded(partnerID, ag.LLMPersonality())
	}

	if ok2 {
		abandonTargeting(partner, agentID)
		partner.RemoveActivePartner(agentID)
		if cyc, ok := w.cycles[partnerID]; ok {
			cyc.NotifyConversationEnded(agentID, partner.LLMPersonality())
		}
	}
}

func intentionTargets(in2 *intention.Intention, desires []*desire.Desire, counterpart string) bool {
	if in2.Plan != nil && len(in2.Plan.Steps) > 0 {
		if t := paramString(in2.Plan.Steps[0], "target", ""); t != "" {
			return t == counterpart
		}
	}
	if d := findDesireByID(desires, in2.DesireID); d != nil {
		if t, _ := d.Context["target_agent"].(string); t != "" {
			return t == counterpart
		}
	}
	return false
}

func findDesireByID(desires []*desire.Desire, id string) *desire.Desire {
	for _, d := range desires {
		if d.ID == id {
			return d
		}
	}
	return nil
}
