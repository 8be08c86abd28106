package comms

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// agentQueue is one registered agent's unbounded FIFO inbox. It carries its
// own mutex so a push from external I/O never blocks on another agent's
// drain (spec §5 "one mutex per Hub queue").
type agentQueue struct {
	mu   sync.Mutex
	msgs []Message
}

// Hub is the Communication Hub (spec §4.6): per-agent FIFO inboxes plus the
// conversation registry. queuesMu guards only the queues map's shape
// (registration), never message contents; registryMu guards the
// conversations map (spec §5's "one mutex for the conversation registry").
type Hub struct {
	queuesMu sync.Mutex
	queues   map[string]*agentQueue

	registryMu    sync.Mutex
	conversations map[string]*Conversation
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		queues:        make(map[string]*agentQueue),
		conversations: make(map[string]*Conversation),
	}
}

// RegisterAgent idempotently creates id's inbound queue.
func (h *Hub) RegisterAgent(id string) {
	h.queuesMu.Lock()
	defer h.queuesMu.Unlock()
	if _, ok := h.queues[id]; !ok {
		h.queues[id] = &agentQueue{}
	}
}

// RegisteredAgents returns a snapshot of every registered agent id, in no
// particular order.
func (h *Hub) RegisteredAgents() []string {
	h.queuesMu.Lock()
	defer h.queuesMu.Unlock()
	out := make([]string, 0, len(h.queues))
	for id := range h.queues {
		out = append(out, id)
	}
	return out
}

func pairID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "_" + pair[1] + "_" + time.Now().Format("20060102150405.000000000")
}

// StartConversation returns the existing ACTIVE/WAITING conversation between
// initiator and target if one exists, else creates a new one with a
// deterministic id derived from the participant pair and the creation time.
func (h *Hub) StartConversation(initiator, target, topic string) *Conversation {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()

	if existing := h.findOpenLocked(initiator, target); existing != nil {
		return existing
	}

	now := time.Now()
	conv := &Conversation{
		ID:           pairID(initiator, target),
		Participants: [2]string{initiator, target},
		Topic:        topic,
		Status:       StatusActive,
		StartedAt:    now,
		LastActivity: now,
	}
	h.conversations[conv.ID] = conv
	return conv
}

func (h *Hub) findOpenLocked(a, b string) *Conversation {
	for _, c := range h.conversations {
		if c.IsOpen() && c.HasParticipant(a) && c.HasParticipant(b) {
			return c
		}
	}
	return nil
}

// GetActiveConversation returns the open conversation between a and b, or
// nil.
func (h *Hub) GetActiveConversation(a, b string) *Conversation {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()
	return h.findOpenLocked(a, b)
}

// GetConversation looks up a conversation by id.
func (h *Hub) GetConversation(id string) (*Conversation, bool) {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()
	c, ok := h.conversations[id]
	return c, ok
}

// IsAgentInConversation reports whether id is a participant of any open
// conversation.
func (h *Hub) IsAgentInConversation(id string) bool {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()
	for _, c := range h.conversations {
		if c.IsOpen() && c.HasParticipant(id) {
			return true
		}
	}
	return false
}

// GetAgentActiveConversations returns every open conversation id
// participates in.
func (h *Hub) GetAgentActiveConversations(id string) []*Conversation {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()
	var out []*Conversation
	for _, c := range h.conversations {
		if c.IsOpen() && c.HasParticipant(id) {
			out = append(out, c)
		}
	}
	return out
}

// EndConversation transitions id to ENDED and stamps EndedAt. A missing or
// already-ended id is a no-op.
func (h *Hub) EndConversation(id string) {
	h.registryMu.Lock()
	defer h.registryMu.Unlock()
	c, ok := h.conversations[id]
	if !ok || !c.IsOpen() {
		return
	}
	now := time.Now()
	c.Status = StatusEnded
	c.EndedAt = &now
}

// SendMessage stamps DeliveredAt, applies the conversation state transition
// (spec §4.6), and pushes onto the receiver's queue. If the receiver is not
// registered, the message is silently dropped after the conversation-state
// update: the caller persists elsewhere, and the Hub's only durable state is
// the in-memory queue.
func (h *Hub) SendMessage(msg *Message) {
	now := time.Now()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	msg.DeliveredAt = &now

	if msg.ConversationID != "" {
		h.registryMu.Lock()
		if conv, ok := h.conversations[msg.ConversationID]; ok && conv.IsOpen() {
			conv.LastActivity = now
			if msg.RequiresResponse {
				conv.WaitingForResponseFrom = msg.ReceiverID
				expiry := now.Add(msg.ResponseTimeout)
				conv.ExpectedResponseBy = &expiry
				conv.Status = StatusWaiting
			} else {
				conv.WaitingForResponseFrom = ""
				conv.ExpectedResponseBy = nil
				conv.Status = StatusActive
			}
		}
		h.registryMu.Unlock()
	}

	h.push(msg.ReceiverID, *msg)
}

func (h *Hub) push(receiver string, msg Message) {
	h.queuesMu.Lock()
	q, ok := h.queues[receiver]
	h.queuesMu.Unlock()
	if !ok {
		return
	}
	q.mu.Lock()
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()
}

// ReceiveMessages drains id's full queue non-blocking, stamping ReadAt on
// every drained message, and returns them in enqueue order. An unregistered
// id returns nil.
func (h *Hub) ReceiveMessages(id string) []Message {
	h.queuesMu.Lock()
	q, ok := h.queues[id]
	h.queuesMu.Unlock()
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return nil
	}
	now := time.Now()
	out := q.msgs
	for i := range out {
		out[i].ReadAt = &now
	}
	q.msgs = nil
	return out
}

// BroadcastMessage enqueues one STATEMENT message to every registered agent
// except sender, and returns the number of recipients reached.
func (h *Hub) BroadcastMessage(sender, content, topic string) int {
	recipients := h.RegisteredAgents()
	now := time.Now()
	n := 0
	for _, id := range recipients {
		if id == sender {
			continue
		}
		msg := Message{
			ID:          uuid.NewString(),
			SenderID:    sender,
			ReceiverID:  id,
			Content:     content,
			MessageType: Statement,
			Topic:       topic,
			Timestamp:   now,
			DeliveredAt: &now,
		}
		h.push(id, msg)
		n++
	}
	return n
}
