// Package episodic is the vector-store collaborator for episodic memory
// (spec §1: "a vector store for episodic memory"). It stores a per-agent,
// append-only log of dialogue turns with embeddings left as opaque
// []float32. internal/world appends a turn after every dispatched message
// when a Store is configured; nothing in the core engine ever reads through
// it — it is an optional write-side recall log for the operator UI and
// offline tooling, never a dependency of deliberation. Grounded on the
// teacher's core/deeptreeecho/supabase_persistence.go: a thin wrapper around
// supabase-go's postgrest client, JSON-marshaled rows, Insert/Upsert/Select
// calls, with the URL and anon/service key sourced from the environment by
// the caller.
package episodic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// Turn is one append-only episodic memory row: a single dialogue turn with
// an optional opaque embedding.
type Turn struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	PartnerID string    `json:"partner_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the supabase-backed episodic memory collaborator.
type Store struct {
	client *supabase.Client
}

// NewStore builds a Store from the given Supabase URL and key, matching the
// teacher's NewSupabasePersistence secret-loading idiom: callers are
// expected to source both from the environment (config.SupabaseCredentialsFromEnv)
// and treat episodic memory as an optional collaborator, skipping it
// entirely when unconfigured rather than calling NewStore with blanks.
func NewStore(url, key string) (*Store, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("episodic: url and key must both be set")
	}

	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("episodic: create supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

// AppendTurn records one dialogue turn to the episodic_turns table.
func (s *Store) AppendTurn(t Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("episodic: marshal turn: %w", err)
	}
	_, _, err = s.client.From("episodic_turns").Insert(data, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("episodic: insert turn: %w", err)
	}
	return nil
}

// RecentTurns returns an agent's most recent episodic turns, newest first.
func (s *Store) RecentTurns(agentID string, limit int) ([]Turn, error) {
	var results []Turn
	data, _, err := s.client.From("episodic_turns").
		Select("*", "", false).
		Eq("agent_id", agentID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("episodic: query turns: %w", err)
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("episodic: decode turns: %w", err)
	}
	return results, nil
}

// SearchContent finds episodic turns whose content matches query, ordered
// by recency. Simple text search; callers wanting similarity search should
// rank RecentTurns results themselves using the opaque Embedding field.
func (s *Store) SearchContent(agentID, query string, limit int) ([]Turn, error) {
	var results []Turn
	data, _, err := s.client.From("episodic_turns").
		Select("*", "", false).
		Eq("agent_id", agentID).
		Ilike("content", fmt.Sprintf("%%%s%%", query)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("episodic: search turns: %w", err)
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("episodic: decode search results: %w", err)
	}
	return results, nil
}
