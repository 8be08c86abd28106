package desire

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// UserID is the hard-wired "god mode" identifier that bypasses every social
// gate (spec §4.2, §9 "hard-wired capability design note"). This is the
// only definition of the constant; package world and the tests refer to
// it as desire.UserID.
const UserID = "user"

// Tunable constants (spec §4.2 "Constants (design-level)").
const (
	BasePerPartnerCooldown = 120 * time.Second
	BaseGlobalCooldown     = 90 * time.Second
	RecentConvWindow       = 300 * time.Second
	MinRestTicks           = 8
	MinSoloActions         = 4
	LLMAdvisoryCooldown    = 60 * time.Second
	MaxDesires             = 12
	IntrovertMultiplier    = 2.0
	IntrovertThreshold     = 0.4
)

var noRespondMessageTypes = map[string]bool{"FAREWELL": true, "ACK": true}

var socialActionTypes = map[string]bool{
	"initiate_conversation": true, "send_message": true, "respond_to_message": true,
	"wait_for_response": true, "end_conversation": true,
}

// Perception is the minimal shape the generator needs from a world
// perception (local mirror of the belief-store Perception shape, carrying
// the extra communication/event fields the pipeline inspects directly).
type Perception struct {
	Type       string
	Subject    string
	Data       map[string]interface{}
	Confidence float64
}

func strField(m map[string]interface{}, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Generator owns one agent's cooldown/satiety/deep-work state and produces
// candidate desires each tick (spec §4.2).
type Generator struct {
	advisor llm.Advisor

	conversationEndedAt          map[string]time.Time
	lastConversationEndedAt      time.Time
	recentConvTimestamps         []time.Time
	ticksSinceConversationEnded  int
	soloActionsAfterConversation int
	llmLastCalledAt              time.Time
	deepWorkActive               bool
	deepWorkReason               string

	rng *rand.Rand
}

// NewGenerator constructs a DesireGenerator for one agent.
func NewGenerator(advisor llm.Advisor) *Generator {
	return &Generator{
		advisor:                       advisor,
		conversationEndedAt:           make(map[string]time.Time),
		ticksSinceConversationEnded:   MinRestTicks + 1,
		soloActionsAfterConversation:  MinSoloActions + 1,
		rng:                           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Generator) updateRecentConvWindow() {
	cutoff := time.Now().Add(-RecentConvWindow)
	kept := g.recentConvTimestamps[:0]
	for _, t := range g.recentConvTimestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.recentConvTimestamps = kept
}

func (g *Generator) recentConversationsCount() int {
	g.updateRecentConvWindow()
	return len(g.recentConvTimestamps)
}

func introvertMultiplier(p llm.Personality) float64 {
	if p.Extraversion < IntrovertThreshold {
		return IntrovertMultiplier
	}
	return 1.0
}

// DynamicPerPartnerCooldown computes the exponential-by-recency per-partner
// cooldown (spec §4.2 "Dynamic cooldowns").
func (g *Generator) DynamicPerPartnerCooldown(p llm.Personality) time.Duration {
	base := float64(BasePerPartnerCooldown) * introvertMultiplier(p)
	return time.Duration(base * float64(1+g.recentConversationsCount()))
}

// DynamicGlobalCooldown computes the exponential-by-recency global social
// cooldown.
func (g *Generator) DynamicGlobalCooldown(p llm.Personality) time.Duration {
	base := float64(BaseGlobalCooldown) * introvertMultiplier(p)
	return time.Duration(base * float64(1+g.recentConversationsCount()))
}

// MarkConversationEnded resets per-partner/global cooldown clocks and the
// rest/satiety counters, and records the conversation in the sliding window.
func (g *Generator) MarkConversationEnded(partnerID string, p llm.Personality) {
	now := time.Now()
	g.conversationEndedAt[partnerID] = now
	g.lastConversationEndedAt = now
	g.ticksSinceConversationEnded = 0
	g.soloActionsAfterConversation = 0
	g.recentConvTimestamps = append(g.recentConvTimestamps, now)
	g.updateRecentConvWindow()
}

// MarkSoloAction increments the solo-action satiety counter unless
// actionType is itself a conversational action.
func (g *Generator) MarkSoloAction(actionType string) {
	if !socialActionTypes[actionType] {
		g.soloActionsAfterConversation++
	}
}

func (g *Generator) isOnCooldown(partnerID string, p llm.Personality) bool {
	last, ok := g.conversationEndedAt[partnerID]
	if !ok {
		return false
	}
	return time.Since(last) < g.DynamicPerPartnerCooldown(p)
}

func (g *Generator) isGloballyBlocked(p llm.Personality) bool {
	timeOK := time.Since(g.lastConversationEndedAt) >= g.DynamicGlobalCooldown(p)
	ticksOK := g.ticksSinceConversationEnded >= MinRestTicks
	soloOK := g.soloActionsAfterConversation >= MinSoloActions
	return !(timeOK && ticksOK && soloOK)
}

// IsOnCooldown reports whether partnerID is still within this agent's
// per-partner cooldown window, for the action dispatcher's
// INITIATE_CONVERSATION gate (spec §4.7).
func (g *Generator) IsOnCooldown(partnerID string, p llm.Personality) bool {
	return g.isOnCooldown(partnerID, p)
}

// IsGloballyBlocked reports whether this agent's global social cooldown/
// rest-tick/solo-action gate is still closed, for the same dispatcher check.
func (g *Generator) IsGloballyBlocked(p llm.Personality) bool {
	return g.isGloballyBlocked(p)
}

// evaluateDeepWork applies spec §4.2's deep-work trigger/exit rule and
// returns the resulting state.
func (g *Generator) evaluateDeepWork(socialBattery float64, p llm.Personality) bool {
	if socialBattery < 0.25 {
		g.deepWorkActive = true
		g.deepWorkReason = fmt.Sprintf("low battery (%.2f)", socialBattery)
		return true
	}
	if p.Conscientiousness > 0.75 && socialBattery < 0.5 {
		g.deepWorkActive = true
		g.deepWorkReason = "high conscientiousness + mid battery"
		return true
	}
	if g.deepWorkActive && socialBattery >= 0.5 {
		g.deepWorkActive = false
		g.deepWorkReason = ""
	}
	return g.deepWorkActive
}

// Snapshot exposes the backward-compatibility diagnostic fields spec.md
// documents as plain (if undocumented) public reads.
type Snapshot struct {
	PostConversationCooldown time.Duration
	GlobalSocialCooldown     time.Duration
	RecentConversationsCount int
	DeepWorkActive           bool
	DeepWorkReason           string
}

func (g *Generator) Snapshot(p llm.Personality) Snapshot {
	return Snapshot{
		PostConversationCooldown: g.DynamicPerPartnerCooldown(p),
		GlobalSocialCooldown:     g.DynamicGlobalCooldown(p),
		RecentConversationsCount: g.recentConversationsCount(),
		DeepWorkActive:           g.deepWorkActive,
		DeepWorkReason:           g.deepWorkReason,
	}
}

func isTalkingToUser(activePartners []string) bool {
	for _, p := range activePartners {
		if p == UserID {
			return true
		}
	}
	return false
}

func hasActiveStatus(d *Desire) bool {
	return d.Status == StatusActive || d.Status == StatusPursued
}

func contextString(d *Desire, key string) string {
	if d.Context == nil {
		return ""
	}
	if v, ok := d.Context[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Generate runs the full generation pipeline for one tick and returns the
// new desires to append to the agent's list (spec §4.2 "Generation pipeline
// (strict order)").
func (g *Generator) Generate(
	ctx context.Context,
	agentID, agentName string,
	personality llm.Personality,
	emotions llm.Emotions,
	beliefs *belief.Store,
	currentDesires []*Desire,
	perceptions []Perception,
	activePartners []string,
	socialBattery float64,
) []*Desire {
	var newDesires []*Desire
	inDeepWork := g.evaluateDeepWork(socialBattery, personality)
	talkingToUser := isTalkingToUser(activePartners)
	activeSet := make(map[string]bool, len(activePartners))
	for _, p := range activePartners {
		activeSet[p] = true
	}

	all := func() []*Desire {
		combined := make([]*Desire, 0, len(currentDesires)+len(newDesires))
		combined = append(combined, currentDesires...)
		combined = append(combined, newDesires...)
		return combined
	}

	// 1. Reactive desires from perceptions.
	for _, perc := range perceptions {
		switch perc.Type {
		case "world_event":
			eventDesc := strField(perc.Data, "description", "")
			eventID := strField(perc.Data, "event_id", "")
			if eventDesc == "" {
				continue
			}
			already := false
			for _, d := range all() {
				if contextString(d, "event_id") == eventID && eventID != "" &&
					(d.Status == StatusActive || d.Status == StatusPursued || d.Status == StatusAchieved) {
					already = true
					break
				}
			}
			if already {
				continue
			}
			d := New(
				"react to event: "+truncate(eventDesc, 60),
				PriorityWorldEvent, 1.0, MotivationWorldEvent, SourceWorldEvent,
			)
			d.PersonalityAlignment = 1.0
			d.Context["event_id"] = eventID
			d.Context["topic"] = eventDesc
			d.Context["is_event_reaction"] = true
			d.Context["interrupt_social"] = true
			newDesires = append(newDesires, d)

		case "communication":
			senderID := perc.Subject
			msgType := strings.ToUpper(strField(perc.Data, "message_type", "STATEMENT"))
			content := strField(perc.Data, "content", "")
			msgID := strField(perc.Data, "message_id", "")
			topic := strField(perc.Data, "topic", "general")

			if senderID == "" || senderID == agentID {
				continue
			}
			if noRespondMessageTypes[msgType] {
				continue
			}

			if senderID == UserID {
				alreadyUser := false
				for _, d := range all() {
					if contextString(d, "target_agent") == UserID &&
						(d.Status == StatusActive || d.Status == StatusPursued) {
						alreadyUser = true
						break
					}
				}
				if !alreadyUser {
					d := New("respond to user", PriorityUserMessage, 1.0, MotivationSocial, SourceUserMessage)
					d.PersonalityAlignment = 1.0
					d.Context["target_agent"] = UserID
					d.Context["topic"] = topic
					d.Context["in_reply_to_msg"] = msgID
					d.Context["incoming_content"] = content
					d.Context["intent"] = "respond"
					d.Context["is_user_message"] = true
					d.Context["bypass_battery"] = true
					newDesires = append(newDesires, d)
				}
				continue
			}

			if inDeepWork {
				alreadyBusy := false
				for _, d := range all() {
					if contextString(d, "target_agent") == senderID && d.Source == SourceDeepWorkReject &&
						(d.Status == StatusActive || d.Status == StatusPursued) {
						alreadyBusy = true
						break
					}
				}
				if !alreadyBusy {
					d := New(fmt.Sprintf("tell %s I'm busy", senderID), PriorityDeepWorkBusy, 0.5, MotivationSafety, SourceDeepWorkReject)
					d.PersonalityAlignment = 0.8
					d.Context["target_agent"] = senderID
					d.Context["intent"] = "busy_signal"
					d.Context["message_type"] = "STATEMENT"
					d.Context["busy_message"] = "I'm deep in focus right now, can't break away."
					d.Context["topic"] = "busy"
					newDesires = append(newDesires, d)
				}
				continue
			}

			if talkingToUser {
				continue
			}

			if g.isOnCooldown(senderID, personality) {
				continue
			}
			if !activeSet[senderID] {
				continue
			}

			hasInitiator := false
			for _, d := range currentDesires {
				if contextString(d, "target_agent") == senderID && d.Source != SourceIncomingMessage && d.Status == StatusPursued {
					hasInitiator = true
					break
				}
			}
			if hasInitiator {
				continue
			}

			dup := false
			for _, d := range currentDesires {
				if contextString(d, "target_agent") == senderID && d.Source == SourceIncomingMessage &&
					(d.Status == StatusActive || d.Status == StatusPursued) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}

			d := New(fmt.Sprintf("respond to %s", senderID), PriorityIncoming, 0.9, MotivationSocial, SourceIncomingMessage)
			d.PersonalityAlignment = personality.Agreeableness
			if d.PersonalityAlignment == 0 {
				d.PersonalityAlignment = 0.7
			}
			d.Context["target_agent"] = senderID
			d.Context["topic"] = topic
			d.Context["in_reply_to_msg"] = msgID
			d.Context["incoming_content"] = content
			d.Context["intent"] = "respond"
			newDesires = append(newDesires, d)

		default:
			// other perception types update beliefs only, handled by caller.
		}
	}

	// 2. Tick counter.
	g.ticksSinceConversationEnded++

	globallyBlocked := g.isGloballyBlocked(personality)

	// 3. LLM-advised personality desires (rate-limited).
	hasActiveNonSocial := false
	for _, d := range currentDesires {
		if hasActiveStatus(d) && d.MotivationType != MotivationSocial && d.MotivationType != MotivationWorldEvent {
			hasActiveNonSocial = true
			break
		}
	}
	llmBlocked := talkingToUser || inDeepWork
	shouldCallLLM := g.advisor != nil && !hasActiveNonSocial && !llmBlocked &&
		time.Since(g.llmLastCalledAt) >= LLMAdvisoryCooldown

	if shouldCallLLM {
		g.llmLastCalledAt = time.Now()
		callCtx, cancel := llm.WithTimeout(ctx)
		recent := make([]llm.Perception, 0, len(perceptions))
		for _, p := range perceptions {
			recent = append(recent, llm.Perception{Type: p.Type, Subject: p.Subject, Summary: strField(p.Data, "description", strField(p.Data, "content", ""))})
		}
		proposals, err := g.advisor.GenerateDesires(callCtx, agentName, agentID, personality, emotions, socialBattery, recent)
		cancel()
		if err != nil {
			d := New("think about what's happening", PriorityLLMNonSocial, 0.2, MotivationCuriosity, SourceLLMFallback)
			d.PersonalityAlignment = 0.5
			d.Context["action"] = "think"
			d.Context["topic"] = "general"
			newDesires = append(newDesires, d)
		} else {
			for _, item := range proposals {
				desc := strings.TrimSpace(item.Description)
				if desc == "" {
					continue
				}
				exists := false
				for _, d := range all() {
					if strings.EqualFold(d.Description, desc) && hasActiveStatus(d) {
						exists = true
						break
					}
				}
				if exists {
					continue
				}

				mtype := motivationFromString(item.MotivationType)

				if mtype == MotivationSocial && globallyBlocked {
					continue
				}
				if mtype == MotivationSocial && socialBattery < 0.2 {
					mtype = MotivationSafety
				}
				if mtype == MotivationSocial && talkingToUser {
					continue
				}

				ctxMap := map[string]interface{}{}
				for k, v := range item.Context {
					ctxMap[k] = v
				}

				var priority, urgency float64
				if mtype == MotivationSocial {
					target := findAvailableAgent(beliefs, agentID)
					if target == "" {
						continue
					}
					if g.isOnCooldown(target, personality) {
						continue
					}
					ctxMap["target_agent"] = target
					if _, ok := ctxMap["topic"]; !ok {
						ctxMap["topic"] = pickTopic(personality, g.rng)
					}
					ctxMap["intent"] = "chat"
					priority, urgency = PriorityLLMSocial, 0.7
				} else {
					priority, urgency = PriorityLLMNonSocial, item.Urgency
					if urgency == 0 {
						urgency = 0.5
					}
				}

				d := New(desc, priority, urgency, mtype, SourceLLMDynamic)
				d.PersonalityAlignment = 0.9
				d.Context = ctxMap
				newDesires = append(newDesires, d)
			}
		}
	}

	// 4. Idle drive (Tier 1).
	hasNonSocialActive := false
	for _, d := range all() {
		if hasActiveStatus(d) && d.MotivationType != MotivationSocial && d.MotivationType != MotivationWorldEvent {
			hasNonSocialActive = true
			break
		}
	}
	if !hasNonSocialActive {
		idle := generateIdleDesire(personality, g.rng)
		dup := false
		for _, d := range currentDesires {
			if d.Description == idle.Description && hasActiveStatus(d) {
				dup = true
				break
			}
		}
		if !dup {
			newDesires = append(newDesires, idle)
		}
	}

	return newDesires
}

func motivationFromString(s string) Motivation {
	switch strings.ToLower(s) {
	case "survival":
		return MotivationSurvival
	case "safety":
		return MotivationSafety
	case "social":
		return MotivationSocial
	case "esteem":
		return MotivationEsteem
	case "achievement":
		return MotivationAchievement
	case "world_event":
		return MotivationWorldEvent
	default:
		return MotivationCuriosity
	}
}

// findAvailableAgent returns a known agent id (belief type AGENT) other than
// self whose in_conversation belief is falsy or absent (spec §4.2 "Partner
// selection").
func findAvailableAgent(beliefs *belief.Store, selfID string) string {
	if beliefs == nil {
		return ""
	}
	seen := make(map[string]bool)
	var fallback string
	for _, b := range beliefs.GetByType(belief.Agent) {
		if b.Subject == selfID || seen[b.Subject] {
			continue
		}
		seen[b.Subject] = true
		if fallback == "" {
			fallback = b.Subject
		}
		inConv, ok := beliefs.Get(belief.Agent, b.Subject, "in_conversation")
		if !ok {
			return b.Subject
		}
		if busy, _ := inConv.Value.(bool); !busy {
			return b.Subject
		}
	}
	return fallback
}

func pickTopic(p llm.Personality, rng *rand.Rand) string {
	topics := []string{"daily life", "shared interests", "recent events", "plans"}
	if p.Openness > 0.7 {
		topics = append(topics, "ideas", "philosophy")
	}
	return topics[rng.Intn(len(topics))]
}

type idleOption struct {
	description string
	motivation  Motivation
	context     map[string]interface{}
}

var curiousOptions = []idleOption{
	{"explore something new nearby", MotivationCuriosity, map[string]interface{}{"action": "observe", "subject": "surroundings"}},
	{"reflect on something recently read", MotivationCuriosity, map[string]interface{}{"action": "think", "topic": "ideas"}},
	{"explore the library", MotivationCuriosity, map[string]interface{}{"action": "move", "destination": "library"}},
	{"watch the surroundings", MotivationCuriosity, map[string]interface{}{"action": "observe", "subject": "world"}},
}

var organizedOptions = []idleOption{
	{"organize my thoughts", MotivationAchievement, map[string]interface{}{"action": "think", "topic": "planning"}},
	{"plan the day", MotivationAchievement, map[string]interface{}{"action": "think", "topic": "schedule"}},
	{"walk the square", MotivationSafety, map[string]interface{}{"action": "move", "destination": "central square"}},
}

var wanderOptions = []idleOption{
	{"wander without a destination", MotivationSafety, map[string]interface{}{"action": "move", "destination": "park"}},
	{"look around", MotivationCuriosity, map[string]interface{}{"action": "observe", "subject": "surroundings"}},
	{"daydream quietly", MotivationSafety, map[string]interface{}{"action": "think", "topic": "daydream"}},
}

// generateIdleDesire synthesizes a background non-social desire from a
// personality-conditioned pool (spec §4.2 "Idle drive (Tier 1)").
func generateIdleDesire(p llm.Personality, rng *rand.Rand) *Desire {
	var pool []idleOption
	switch {
	case p.Openness > 0.7:
		pool = curiousOptions
	case p.Conscientiousness > 0.7:
		pool = organizedOptions
	default:
		pool = wanderOptions
	}
	opt := pool[rng.Intn(len(pool))]
	d := New(opt.description, PriorityIdle, 0.10, opt.motivation, SourceIdleDrive)
	d.PersonalityAlignment = 0.5
	for k, v := range opt.context {
		d.Context[k] = v
	}
	d.Context["is_idle"] = true
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
