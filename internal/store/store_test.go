package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAgent_IsIdempotentAndUpdatesFields(t *testing.T) {
	s := openTestStore(t)
	a := AgentRecord{ID: "a1", Name: "Alice", Extraversion: 0.5}
	require.NoError(t, s.UpsertAgent(a))

	a.Extraversion = 0.9
	require.NoError(t, s.UpsertAgent(a))

	agents, err := s.ListAgents()
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, 0.9, agents[0].Extraversion)
}

func TestRecordMessage_AssignsAutoIncrementID(t *testing.T) {
	s := openTestStore(t)
	id1, err := s.RecordMessage(MessageRecord{SenderID: "a", ReceiverID: "b", Content: "hi", MessageType: "STATEMENT", Timestamp: time.Now(), ConversationID: "conv1"})
	require.NoError(t, err)
	id2, err := s.RecordMessage(MessageRecord{SenderID: "b", ReceiverID: "a", Content: "hello", MessageType: "STATEMENT", Timestamp: time.Now(), ConversationID: "conv1"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	msgs, err := s.MessagesForConversation("conv1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestUpsertConversation_EndSetsEndedAt(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertConversation(ConversationRecord{
		ID: "conv1", ParticipantA: "a", ParticipantB: "b", Status: "ACTIVE", StartedAt: time.Now(),
	}))

	ended := time.Now()
	require.NoError(t, s.UpsertConversation(ConversationRecord{
		ID: "conv1", ParticipantA: "a", ParticipantB: "b", Status: "ENDED", StartedAt: time.Now(), EndedAt: &ended,
	}))

	var status string
	var endedAt sql.NullString
	require.NoError(t, s.db.QueryRow(`SELECT status, ended_at FROM conversations WHERE id = ?`, "conv1").Scan(&status, &endedAt))
	assert.Equal(t, "ENDED", status)
	assert.True(t, endedAt.Valid)
}

func TestRecentEvents_ReturnsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordEvent(EventRecord{ID: "e1", Kind: "world_event", Description: "first", CreatedAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, s.RecordEvent(EventRecord{ID: "e2", Kind: "world_event", Description: "second", CreatedAt: time.Now()}))

	events, err := s.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
}
