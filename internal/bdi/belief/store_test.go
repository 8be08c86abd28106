package belief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddAndGet(t *testing.T) {
	s := New()
	b := s.Add(Belief{Type: World, Subject: "plaza", Key: "weather", Value: "sunny", Confidence: 0.8})
	assert.Equal(t, "sunny", b.Value)

	got, ok := s.Get(World, "plaza", "weather")
	require.True(t, ok)
	assert.Equal(t, 0.8, got.Confidence)
}

func TestStore_ReassertSameValueBumpsConfidence(t *testing.T) {
	s := New()
	s.Add(Belief{Type: Social, Subject: "agent_b", Key: "in_conversation", Value: true, Confidence: 0.5})
	merged := s.Add(Belief{Type: Social, Subject: "agent_b", Key: "in_conversation", Value: true, Confidence: 0.5})

	assert.InDelta(t, 0.6, merged.Confidence, 0.001)
}

func TestStore_ReassertCapsConfidenceAtOne(t *testing.T) {
	s := New()
	s.Add(Belief{Type: Self, Subject: "self", Key: "location", Value: "home", Confidence: 0.95})
	merged := s.Add(Belief{Type: Self, Subject: "self", Key: "location", Value: "home", Confidence: 0.95})
	assert.Equal(t, 1.0, merged.Confidence)
}

func TestStore_ConflictingValueHigherConfidenceWins(t *testing.T) {
	s := New()
	s.Add(Belief{Type: World, Subject: "plaza", Key: "weather", Value: "sunny", Confidence: 0.9})
	merged := s.Add(Belief{Type: World, Subject: "plaza", Key: "weather", Value: "rainy", Confidence: 0.3})
	assert.Equal(t, "sunny", merged.Value)
	assert.Equal(t, 0.9, merged.Confidence)
}

func TestStore_ConflictingValueEqualConfidenceAverages(t *testing.T) {
	s := New()
	s.Add(Belief{Type: World, Subject: "plaza", Key: "weather", Value: "sunny", Confidence: 0.5})
	merged := s.Add(Belief{Type: World, Subject: "plaza", Key: "weather", Value: "rainy", Confidence: 0.5})
	assert.Equal(t, "rainy", merged.Value)
	assert.Equal(t, 0.5, merged.Confidence)
}

func TestStore_QuerySubstringCaseInsensitive(t *testing.T) {
	s := New()
	s.Add(Belief{Type: Agent, Subject: "agent_carla", Key: "location", Value: "Market Square", Confidence: 0.9})

	results := s.Query("market", 0.5)
	require.Len(t, results, 1)
	assert.Equal(t, "agent_carla", results[0].Subject)

	assert.Empty(t, s.Query("market", 0.95))
}

func TestStore_UpdateFromPerceptionClassification(t *testing.T) {
	s := New()

	selfBeliefs := s.UpdateFromPerception(Perception{Type: "observation", Subject: "self", Data: map[string]interface{}{"location": "lab"}})
	require.Len(t, selfBeliefs, 1)
	assert.Equal(t, Self, selfBeliefs[0].Type)

	agentBeliefs := s.UpdateFromPerception(Perception{Type: "observation", Subject: "agent_42", Data: map[string]interface{}{"location": "lab"}})
	require.Len(t, agentBeliefs, 1)
	assert.Equal(t, Agent, agentBeliefs[0].Type)

	eventBeliefs := s.UpdateFromPerception(Perception{Type: "world_event", Subject: "fire_alarm", Data: map[string]interface{}{"description": "fire"}})
	require.Len(t, eventBeliefs, 1)
	assert.Equal(t, Event, eventBeliefs[0].Type)

	socialBeliefs := s.UpdateFromPerception(Perception{Type: "social_update", Subject: "plaza_group", Data: map[string]interface{}{"affinity": 0.2}})
	require.Len(t, socialBeliefs, 1)
	assert.Equal(t, Social, socialBeliefs[0].Type)

	worldBeliefs := s.UpdateFromPerception(Perception{Type: "ambient", Subject: "plaza", Data: map[string]interface{}{"temperature": 21}})
	require.Len(t, worldBeliefs, 1)
	assert.Equal(t, World, worldBeliefs[0].Type)
}

func TestStore_ClearOldRemovesStaleLowConfidence(t *testing.T) {
	s := New()
	old := Belief{Type: World, Subject: "plaza", Key: "stale", Value: "x", Confidence: 0.3, Timestamp: time.Now().Add(-48 * time.Hour)}
	s.index(old.key(), old)
	s.Add(Belief{Type: World, Subject: "plaza", Key: "fresh", Value: "y", Confidence: 0.3})

	removed := s.ClearOld(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := s.Get(World, "plaza", "stale")
	assert.False(t, ok)
	_, ok = s.Get(World, "plaza", "fresh")
	assert.True(t, ok)
}

func TestStore_ClearOldKeepsHighConfidenceEvenIfStale(t *testing.T) {
	s := New()
	old := Belief{Type: World, Subject: "plaza", Key: "trusted", Value: "x", Confidence: 0.9, Timestamp: time.Now().Add(-48 * time.Hour)}
	s.index(old.key(), old)

	removed := s.ClearOld(24 * time.Hour)
	assert.Equal(t, 0, removed)
}
