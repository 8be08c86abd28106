package comms

import "time"

// Status is the conversation lifecycle state (spec §3).
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusWaiting Status = "WAITING"
	StatusEnded   Status = "ENDED"
	StatusTimedOut Status = "TIMED_OUT"
)

// Conversation tracks one bilateral dialogue between exactly two
// participants.
type Conversation struct {
	ID           string
	Participants [2]string
	Topic        string
	Status       Status
	StartedAt    time.Time
	LastActivity time.Time
	EndedAt      *time.Time

	WaitingForResponseFrom string
	ExpectedResponseBy     *time.Time
}

// HasParticipant reports whether id is one of the conversation's two
// participants.
func (c *Conversation) HasParticipant(id string) bool {
	return c.Participants[0] == id || c.Participants[1] == id
}

// Other returns the participant id that is not id.
func (c *Conversation) Other(id string) string {
	if c.Participants[0] == id {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// IsOpen reports whether the conversation can still carry traffic (not
// ENDED/TIMED_OUT).
func (c *Conversation) IsOpen() bool {
	return c.Status == StatusActive || c.Status == StatusWaiting
}
