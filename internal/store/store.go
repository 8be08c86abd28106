// Package store is the persistence collaborator (spec §6 "Persisted state
// layout"): durable tables for agents, messages, conversations, and the
// event log. The core engine never imports this package — it is read and
// written only by the operator-facing CLI (cmd/worldctl), exactly as the
// spec's "read-only from the core's
// perspective" note describes. Grounded on the teacher pack's sqlite
// persistence idiom (nugget-thane-ai-agent's internal/facts/store.go):
// database/sql over mattn/go-sqlite3, a migrate() run at construction, and
// plain positional-parameter queries rather than an ORM.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AgentRecord mirrors spec §6: "agents (id, name, avatar, OCEAN floats)".
type AgentRecord struct {
	ID                string
	Name              string
	Avatar            string
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
}

// MessageRecord mirrors spec §6's message schema.
type MessageRecord struct {
	ID              int64
	SenderID        string
	ReceiverID      string
	Content         string
	MessageType     string
	Emotion         string
	Tone            string
	Topic           string
	Timestamp       time.Time
	ConversationID  string
	ParentMessageID string
}

// ConversationRecord mirrors spec §6: "conversations (metadata only; message
// bodies live in messages)".
type ConversationRecord struct {
	ID           string
	ParticipantA string
	ParticipantB string
	Topic        string
	Status       string
	StartedAt    time.Time
	EndedAt      *time.Time
}

// EventRecord mirrors the world's event log entries.
type EventRecord struct {
	ID          string
	Kind        string
	Description string
	AgentIDs    []string
	CreatedAt   time.Time
}

// Store is the sqlite-backed persistence collaborator.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and runs
// its migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar TEXT,
			openness REAL NOT NULL DEFAULT 0,
			conscientiousness REAL NOT NULL DEFAULT 0,
			extraversion REAL NOT NULL DEFAULT 0,
			agreeableness REAL NOT NULL DEFAULT 0,
			neuroticism REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			participant_a TEXT NOT NULL,
			participant_b TEXT NOT NULL,
			topic TEXT,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			content TEXT NOT NULL,
			message_type TEXT NOT NULL,
			emotion TEXT,
			tone TEXT,
			topic TEXT,
			timestamp TEXT NOT NULL,
			conversation_id TEXT,
			parent_message_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			description TEXT NOT NULL,
			agent_ids TEXT,
			created_at TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// UpsertAgent inserts or updates an agent's durable identity row.
func (s *Store) UpsertAgent(a AgentRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO agents (id, name, avatar, openness, conscientiousness, extraversion, agreeableness, neuroticism)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, avatar=excluded.avatar,
			openness=excluded.openness, conscientiousness=excluded.conscientiousness,
			extraversion=excluded.extraversion, agreeableness=excluded.agreeableness,
			neuroticism=excluded.neuroticism
	`, a.ID, a.Name, a.Avatar, a.Openness, a.Conscientiousness, a.Extraversion, a.Agreeableness, a.Neuroticism)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// ListAgents returns every persisted agent.
func (s *Store) ListAgents() ([]AgentRecord, error) {
	rows, err := s.db.Query(`SELECT id, name, avatar, openness, conscientiousness, extraversion, agreeableness, neuroticism FROM agents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var out []AgentRecord
	for rows.Next() {
		var a AgentRecord
		var avatar sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &avatar, &a.Openness, &a.Conscientiousness, &a.Extraversion, &a.Agreeableness, &a.Neuroticism); err != nil {
			return nil, err
		}
		a.Avatar = avatar.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertConversation inserts or updates conversation metadata.
func (s *Store) UpsertConversation(c ConversationRecord) error {
	var endedAt interface{}
	if c.EndedAt != nil {
		endedAt = c.EndedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO conversations (id, participant_a, participant_b, topic, status, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, ended_at=excluded.ended_at
	`, c.ID, c.ParticipantA, c.ParticipantB, c.Topic, c.Status, c.StartedAt.UTC().Format(time.RFC3339), endedAt)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// RecordMessage appends one message row; the id is assigned by sqlite.
func (s *Store) RecordMessage(m MessageRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO messages (sender_id, receiver_id, content, message_type, emotion, tone, topic, timestamp, conversation_id, parent_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.Emotion, m.Tone, m.Topic,
		m.Timestamp.UTC().Format(time.RFC3339), m.ConversationID, m.ParentMessageID)
	if err != nil {
		return 0, fmt.Errorf("record message: %w", err)
	}
	return res.LastInsertId()
}

// MessagesForConversation returns every message belonging to a conversation,
// oldest first.
func (s *Store) MessagesForConversation(conversationID string) ([]MessageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, sender_id, receiver_id, content, message_type, emotion, tone, topic, timestamp, conversation_id, parent_message_id
		FROM messages WHERE conversation_id = ? ORDER BY id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(rows *sql.Rows) (MessageRecord, error) {
	var m MessageRecord
	var emotion, tone, topic, convID, parentID sql.NullString
	var ts string
	if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &emotion, &tone, &topic, &ts, &convID, &parentID); err != nil {
		return m, err
	}
	m.Emotion, m.Tone, m.Topic = emotion.String, tone.String, topic.String
	m.ConversationID, m.ParentMessageID = convID.String, parentID.String
	m.Timestamp, _ = time.Parse(time.RFC3339, ts)
	return m, nil
}

// RecordEvent appends one world-event-log entry.
func (s *Store) RecordEvent(e EventRecord) error {
	agentIDs, err := json.Marshal(e.AgentIDs)
	if err != nil {
		return fmt.Errorf("marshal agent ids: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO events (id, kind, description, agent_ids, created_at) VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Kind, e.Description, string(agentIDs), e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit most recent event-log entries, newest first.
func (s *Store) RecentEvents(limit int) ([]EventRecord, error) {
	rows, err := s.db.Query(`SELECT id, kind, description, agent_ids, created_at FROM events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		var agentIDsRaw, ts string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Description, &agentIDsRaw, &ts); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(agentIDsRaw), &e.AgentIDs)
		e.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
