package world

import "time"

// eventKind distinguishes a broadcast world event from one targeted at
// specific agents (spec §6 "Inbound: World-event injection").
type eventKind string

const (
	kindWorldEvent eventKind = "world_event"
	kindUserEvent  eventKind = "user_event"
)

// logEntry is one entry in the world's event log.
type logEntry struct {
	ID          string
	Kind        eventKind
	Description string
	AgentIDs    []string // empty means "every agent"
	CreatedAt   time.Time
}

func (e logEntry) targets(agentID string) bool {
	if len(e.AgentIDs) == 0 {
		return true
	}
	for _, id := range e.AgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}
