// Package comms implements the Communication Hub (spec §4.6): one durable
// FIFO inbox per registered agent and a conversation registry keyed by
// participant pair, with the send/receive/broadcast operations and the
// ACTIVE/WAITING/ENDED conversation state machine.
package comms

import "time"

// MessageType is the closed set of dialogue-act tags a Message can carry.
type MessageType string

const (
	Greeting  MessageType = "GREETING"
	Question  MessageType = "QUESTION"
	Answer    MessageType = "ANSWER"
	Statement MessageType = "STATEMENT"
	Farewell  MessageType = "FAREWELL"
	Ack       MessageType = "ACK"
)

// Message is one unit of agent-to-agent or agent-to-user dialogue (spec §3).
type Message struct {
	ID                string
	SenderID          string
	ReceiverID        string
	Content           string
	MessageType       MessageType
	ConversationID    string
	InReplyTo         string
	Topic             string
	Tone              string
	RequiresResponse  bool
	ResponseTimeout   time.Duration
	Timestamp         time.Time
	DeliveredAt       *time.Time
	ReadAt            *time.Time
}
