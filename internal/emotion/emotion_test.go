package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_WorldEventRaisesSurpriseAndFear(t *testing.T) {
	v := Apply(Vector{}, Personality{Neuroticism: 0.5}, TriggerWorldEvent)
	assert.InDelta(t, 0.30, v.Surprise, 0.001)
	assert.InDelta(t, 0.15, v.Fear, 0.001)
}

func TestApply_NeuroticismAmplifiesNegativeAxes(t *testing.T) {
	calm := Apply(Vector{}, Personality{Neuroticism: 0.0}, TriggerConflict)
	anxious := Apply(Vector{}, Personality{Neuroticism: 1.0}, TriggerConflict)

	assert.Greater(t, anxious.Anger, calm.Anger)
	assert.Greater(t, anxious.Sadness, calm.Sadness)
}

func TestApply_ClampsToUnitRange(t *testing.T) {
	v := Vector{Surprise: 0.95}
	v = Apply(v, Personality{Neuroticism: 1.0}, TriggerWorldEvent)
	assert.LessOrEqual(t, v.Surprise, 1.0)

	v2 := Vector{Comfort: 0.01}
	v2 = Apply(v2, Personality{}, TriggerConflict)
	assert.GreaterOrEqual(t, v2.Comfort, 0.0)
}

func TestApply_UnknownTriggerIsNoOp(t *testing.T) {
	v := Vector{Happiness: 0.5}
	out := Apply(v, Personality{}, Trigger("nonexistent"))
	assert.Equal(t, v, out)
}

func TestTriggerFromKeywords(t *testing.T) {
	tr, ok := TriggerFromKeywords("There's a FIRE in the building!")
	assert.True(t, ok)
	assert.Equal(t, TriggerWorldEvent, tr)

	_, ok = TriggerFromKeywords("just chatting about the weather")
	assert.False(t, ok)
}

func TestUpdateFromDialogue(t *testing.T) {
	v := UpdateFromDialogue(Vector{Comfort: 0.5, Loneliness: 0.5}, 0.1)
	assert.InDelta(t, 0.6, v.Comfort, 0.001)
	assert.InDelta(t, 0.4, v.Loneliness, 0.001)
}
