package world

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/belief"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/bdi/desire"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/comms"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
)

// buildPerceptions assembles every agent's per-tick perception list
// concurrently, one goroutine per agent (spec §5 permits this: only the
// deliberation cycle itself must run sequentially). Each goroutine reads
// prior-tick state, applies emotion only to its own agent, and makes its
// shared writes (relationship bumps, dialogue history, processed event ids)
// under w.mu. Event-log perceptions are emitted before communication
// perceptions before observation perceptions, per agent (spec §4.7).
func (w *World) buildPerceptions(order []string, cache map[string][]comms.Message) map[string][]desire.Perception {
	w.mu.Lock()
	events := append([]logEntry(nil), w.eventLog...)
	agents := make(map[string]*agent.Agent, len(order))
	for _, id := range order {
		agents[id] = w.agents[id]
	}
	w.mu.Unlock()

	results := make(map[string][]desire.Perception, len(order))
	var resultsMu sync.Mutex

	g, _ := errgroup.WithContext(context.Background())
	for _, id := range order {
		id := id
		g.Go(func() error {
			perc := w.buildAgentPerceptions(id, agents, events, cache[id])
			resultsMu.Lock()
			results[id] = perc
			resultsMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (w *World) buildAgentPerceptions(id string, agents map[string]*agent.Agent, events []logEntry, messages []comms.Message) []desire.Perception {
	ag := agents[id]
	if ag == nil {
		return nil
	}
	var out []desire.Perception

	now := time.Now()
	processed := w.processedSet(id)
	for _, e := range events {
		if now.Sub(e.CreatedAt) > eventFreshness {
			continue
		}
		if !e.targets(id) || processed[e.ID] {
			continue
		}
		w.markEventProcessed(id, e.ID)
		ag.ApplyEmotion(emotion.TriggerWorldEvent)
		out = append(out, desire.Perception{
			Type: "world_event", Subject: "world",
			Data:       map[string]interface{}{"description": e.Description},
			Confidence: 0.95,
		})
	}

	for _, m := range messages {
		w.bumpRelationship(id, m.SenderID, 0.04)
		w.appendHistory(id, m.SenderID, senderDisplayName(agents, m.SenderID), m.Content)
		out = append(out, desire.Perception{
			Type: "communication", Subject: m.SenderID,
			Data: map[string]interface{}{
				"content": m.Content, "message_type": string(m.MessageType), "topic": m.Topic,
				"conversation_id": m.ConversationID, "requires_response": m.RequiresResponse,
				"message_id": m.ID,
			},
			Confidence: 1.0,
		})
	}

	for otherID, other := range agents {
		if otherID == id || other == nil {
			continue
		}
		location := "unknown"
		if b, ok := other.Beliefs.Get(belief.Self, "self", "location"); ok {
			if s, ok2 := b.Value.(string); ok2 {
				location = s
			}
		}
		out = append(out, desire.Perception{
			Type: "observation", Subject: otherID,
			Data: map[string]interface{}{
				"location": location, "in_conversation": w.hub.IsAgentInConversation(otherID), "name": other.Name,
			},
			Confidence: 0.9,
		})
	}

	return out
}

func (w *World) processedSet(id string) map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	set := make(map[string]bool, len(w.processed[id]))
	for _, eid := range w.processed[id] {
		set[eid] = true
	}
	return set
}

func (w *World) markEventProcessed(id, eventID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := append(w.processed[id], eventID)
	if len(ids) > maxProcessedEvents {
		ids = ids[len(ids)-maxProcessedEvents:]
	}
	w.processed[id] = ids
}

func senderDisplayName(agents map[string]*agent.Agent, id string) string {
	if a, ok := agents[id]; ok && a != nil {
		return a.Name
	}
	return id
}
