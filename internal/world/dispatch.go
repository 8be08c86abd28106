package world

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/intention"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/plan"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/comms"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/deliberation"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
)

// dispatch routes sa to its action handler (spec §4.7 "Action dispatcher").
// Any panic raised inside a handler is caught and confirmed as a failed
// step rather than aborting the tick (spec §7 "Failure model inside
// execution").
func (w *World) dispatch(ctx context.Context, ag *agent.Agent, cyc *deliberation.Cycle, intentions []*intention.Intention, sa deliberation.ScheduledAction, msgs []comms.Message) {
	in := findIntentionByID(intentions, sa.IntentionID)
	if in == nil || sa.Action == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.confirmStep(in, sa, false, fmt.Sprintf("panic: %v", r))
		}
	}()

	switch sa.Action.Action {
	case plan.InitiateConversation:
		w.handleInitiateConversation(ag, in, sa)
	case plan.SendMessage, plan.RespondToMessage:
		w.handleSendMessage(ctx, ag, in, sa)
	case plan.WaitForResponse:
		w.handleWaitForResponse(ag, in, sa, msgs)
	case plan.EndConversation:
		w.handleEndConversation(ag, cyc, in, sa)
	case plan.Move:
		w.handleMove(ag, cyc, in, sa)
	case plan.Think, plan.Observe, plan.Search, plan.Help, plan.Request,
		plan.Give, plan.Use, plan.Acquire, plan.Express, plan.Wait:
		w.handleSoloAction(ag, cyc, in, sa)
	default:
		w.confirmStep(in, sa, false, fmt.Sprintf("unknown action type %q", sa.Action.Action))
		w.logger.Warn("unknown_action_type", zap.String("action", string(sa.Action.Action)))
	}
}

// confirmStep is the single confirm_action_execution call every handler
// path makes exactly once (spec §4.7).
func (w *World) confirmStep(in *intention.Intention, sa deliberation.ScheduledAction, success bool, message string) {
	sa.Action.Executed = true
	sa.Action.Success = success
	sa.Action.Result = message
	in.UpdateProgress(success, message)
	w.noteTickEvent(TickEvent{Kind: "action", Detail: string(sa.Action.Action) + ": " + message, Success: success})
	if !success {
		w.logger.Warn("action_failed",
			zap.String("intention_id", in.ID), zap.String("action", string(sa.Action.Action)), zap.String("reason", message))
	}
}

// rewindToEndConversation confirms the current step as failed, then skips
// every step up to (exclusive of) the next END_CONVERSATION, avoiding a
// monologue into a conversation that is no longer open (spec §4.7 "No
// monologuing").
func (w *World) rewindToEndConversation(in *intention.Intention, sa deliberation.ScheduledAction, reason string) {
	w.confirmStep(in, sa, false, reason)
	if in.Plan == nil {
		return
	}
	in.CurrentStep = in.Plan.SkipToEndConversation(sa.StepIndex + 1)
	in.RetryCount = 0
}

func (w *World) handleInitiateConversation(ag *agent.Agent, in *intention.Intention, sa deliberation.ScheduledAction) {
	target := paramString(sa.Action, "target", "")
	topic := paramString(sa.Action, "topic", "general topics")
	if target == "" {
		w.confirmStep(in, sa, false, "missing target")
		return
	}

	if target != desire.UserID {
		w.mu.Lock()
		partner, ok := w.agents[target]
		w.mu.Unlock()
		if !ok {
			w.rewindToEndConversation(in, sa, "unknown target")
			return
		}
		selfPersonality := ag.LLMPersonality()
		if ag.Generator.IsOnCooldown(target, selfPersonality) || ag.Generator.IsGloballyBlocked(selfPersonality) {
			w.rewindToEndConversation(in, sa, "cooldown or globally blocked")
			return
		}
		partnerPersonality := partner.LLMPersonality()
		if partner.Generator.IsGloballyBlocked(partnerPersonality) || partner.SocialBattery < 0.05 {
			w.rewindToEndConversation(in, sa, "partner unavailable")
			return
		}
	}

	conv := w.hub.StartConversation(ag.ID, target, topic)
	ag.AddActivePartner(target)
	ag.Beliefs.Add(belief.Belief{
		Type: belief.Self, Subject: "self", Key: "current_conversation",
		Value: conv.ID, Confidence: 1.0, Source: "dispatch",
	})
	w.confirmStep(in, sa, true, "conversation started")
}

func (w *World) handleSendMessage(ctx context.Context, ag *agent.Agent, in *intention.Intention, sa deliberation.ScheduledAction) {
	target := paramString(sa.Action, "target", "")
	if target == "" {
		w.confirmStep(in, sa, false, "missing target")
		return
	}

	conv := w.hub.GetActiveConversation(ag.ID, target)
	if conv == nil && target != desire.UserID {
		w.rewindToEndConversation(in, sa, "no active conversation, avoiding monologue")
		return
	}

	msgType := paramString(sa.Action, "message_type", "STATEMENT")
	tone := paramString(sa.Action, "tone", "neutral")
	topic := paramString(sa.Action, "topic", "")
	requiresResponse := paramBool(sa.Action, "requires_response", false)

	content, err := w.generateContent(ctx, ag, target, msgType, topic)
	if err != nil {
		content = fallbackContent(msgType, ag.Name)
	}

	msg := &comms.Message{
		SenderID: ag.ID, ReceiverID: target, Content: content,
		MessageType: messageTypeFromString(msgType), Topic: topic, Tone: tone,
		RequiresResponse: requiresResponse, ResponseTimeout: 60 * time.Second,
		InReplyTo: paramString(sa.Action, "in_reply_to", ""),
	}
	if conv != nil {
		msg.ConversationID = conv.ID
	}
	w.hub.SendMessage(msg)

	w.bumpRelationship(ag.ID, target, 0.03)
	w.appendHistory(ag.ID, target, ag.Name, content)
	w.recordEpisodicTurn(ag.ID, target, content)
	ag.UpdateDialogueEmotion(0.03)

	bypassBattery, _ := in.Context["bypass_battery"].(bool)
	if !bypassBattery {
		ag.DrainBattery(sendCost(ag.LLMPersonality()))
	}

	w.confirmStep(in, sa, true, "message sent")
}

func (w *World) generateContent(ctx context.Context, ag *agent.Agent, target, msgType, topic string) (string, error) {
	if w.advisor == nil {
		return "", fmt.Errorf("no advisor configured")
	}
	callCtx, cancel := llm.WithTimeout(ctx)
	defer cancel()
	history := lastN(w.historyFor([]string{target}, ag.ID)[target], 5)
	return w.advisor.GenerateContent(callCtx, llm.ContentRequest{
		Personality: ag.LLMPersonality(), Context: topic, History: history, MessageType: msgType,
	})
}

func fallbackContent(msgType, selfName string) string {
	switch comms.MessageType(msgType) {
	case comms.Greeting:
		return fmt.Sprintf("Hi, it's %s.", selfName)
	case comms.Farewell:
		return "I should get going — talk soon."
	case comms.Question:
		return "What do you think about that?"
	case comms.Answer:
		return "That makes sense to me."
	default:
		return "Just thinking out loud."
	}
}

func messageTypeFromString(s string) comms.MessageType {
	switch comms.MessageType(s) {
	case comms.Greeting, comms.Question, comms.Answer, comms.Farewell, comms.Ack:
		return comms.MessageType(s)
	default:
		return comms.Statement
	}
}

// DefaultWaitMaxTicks is the WAIT_FOR_RESPONSE ceiling when a plan step
// omits max_ticks (spec §4.7).
const DefaultWaitMaxTicks = 4

func (w *World) handleWaitForResponse(ag *agent.Agent, in *intention.Intention, sa deliberation.ScheduledAction, msgs []comms.Message) {
	expectedFrom := paramString(sa.Action, "target", "")
	maxTicks := paramInt(sa.Action, "max_ticks", DefaultWaitMaxTicks)
	onTimeout := paramString(sa.Action, "on_timeout", "end")

	if m := findMessageFrom(msgs, expectedFrom); m != nil {
		w.clearWaitCounter(in.ID)
		if m.MessageType == comms.Farewell || m.MessageType == comms.Ack {
			w.rewindToEndConversation(in, sa, "partner signaled end")
			return
		}
		w.confirmStep(in, sa, true, "response received")
		return
	}

	count := w.bumpWaitCounter(in.ID)
	if count < maxTicks {
		return // still waiting; step stays pending for next tick
	}

	// Last-moment recheck: a message may have arrived after this tick's
	// cache was captured but before the timeout fired.
	recheck := w.hub.ReceiveMessages(ag.ID)
	w.clearWaitCounter(in.ID)
	if m := findMessageFrom(recheck, expectedFrom); m != nil {
		w.confirmStep(in, sa, true, "response arrived just in time")
		return
	}

	if onTimeout == "continue" {
		w.confirmStep(in, sa, true, "timed out, continuing")
		return
	}
	w.rewindToEndConversation(in, sa, "timed out waiting for response")
}

func (w *World) bumpWaitCounter(intentionID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waitTicks[intentionID]++
	return w.waitTicks[intentionID]
}

func (w *World) clearWaitCounter(intentionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.waitTicks, intentionID)
}

func findMessageFrom(msgs []comms.Message, senderID string) *comms.Message {
	for i := range msgs {
		if msgs[i].SenderID == senderID {
			return &msgs[i]
		}
	}
	return nil
}

func (w *World) handleEndConversation(ag *agent.Agent, cyc *deliberation.Cycle, in *intention.Intention, sa deliberation.ScheduledAction) {
	target := paramString(sa.Action, "target", "")
	if target == "" {
		if conv := w.hub.GetAgentActiveConversations(ag.ID); len(conv) > 0 {
			target = conv[0].Other(ag.ID)
		}
	}

	if conv := w.hub.GetActiveConversation(ag.ID, target); conv != nil {
		w.hub.EndConversation(conv.ID)
	}
	ag.Beliefs.Remove(belief.Self, "self", "current_conversation")
	ag.RemoveActivePartner(target)
	cyc.NotifyConversationEnded(target, ag.LLMPersonality())

	w.mu.Lock()
	partner := w.agents[target]
	partnerCycle := w.cycles[target]
	w.mu.Unlock()
	if partner != nil {
		partner.RemoveActivePartner(ag.ID)
		if partnerCycle != nil {
			partnerCycle.NotifyConversationEnded(ag.ID, partner.LLMPersonality())
		}
	}

	w.logger.Info("conversation_end", zap.String("agent_id", ag.ID), zap.String("partner_id", target))
	w.confirmStep(in, sa, true, "conversation ended")
}

func (w *World) handleMove(ag *agent.Agent, cyc *deliberation.Cycle, in *intention.Intention, sa deliberation.ScheduledAction) {
	dest := paramString(sa.Action, "destination", "somewhere")
	ag.Beliefs.Add(belief.Belief{
		Type: belief.Self, Subject: "self", Key: "location",
		Value: dest, Confidence: 1.0, Source: "dispatch",
	})
	w.logger.Debug("move", zap.String("agent_id", ag.ID), zap.String("destination", dest))
	cyc.NotifySoloAction(string(plan.Move))
	ag.RestoreBattery(soloRestoreAmount(ag.LLMPersonality()))
	w.confirmStep(in, sa, true, "moved")
}

func (w *World) handleSoloAction(ag *agent.Agent, cyc *deliberation.Cycle, in *intention.Intention, sa deliberation.ScheduledAction) {
	cyc.NotifySoloAction(string(sa.Action.Action))
	ag.RestoreBattery(soloRestoreAmount(ag.LLMPersonality()))
	w.confirmStep(in, sa, true, fmt.Sprintf("%s confirmed", sa.Action.Action))
}

func findIntentionByID(intentions []*intention.Intention, id string) *intention.Intention {
	for _, in := range intentions {
		if in.ID == id {
			return in
		}
	}
	return nil
}

func paramString(s *plan.Step, key, def string) string {
	if s.Parameters == nil {
		return def
	}
	if v, ok := s.Parameters[key]; ok {
		if str, ok := v.(string); ok && str != "" {
			return str
		}
	}
	return def
}

func paramBool(s *plan.Step, key string, def bool) bool {
	if s.Parameters == nil {
		return def
	}
	if v, ok := s.Parameters[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func paramInt(s *plan.Step, key string, def int) int {
	if s.Parameters == nil {
		return def
	}
	v, ok := s.Parameters[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}
