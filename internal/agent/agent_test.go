package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
)

func TestNew_InitializesFullBattery(t *testing.T) {
	a := New("Alice", emotion.Personality{Extraversion: 0.8}, nil)
	require.NotNil(t, a)
	assert.Equal(t, 1.0, a.SocialBattery)
	assert.NotEmpty(t, a.ID)
	assert.NotNil(t, a.Beliefs)
	assert.NotNil(t, a.Generator)
	assert.NotNil(t, a.Planner)
}

func TestDrainAndRestoreBattery_ClampToUnitRange(t *testing.T) {
	a := New("Bob", emotion.Personality{}, nil)
	a.DrainBattery(2.0)
	assert.Equal(t, 0.0, a.SocialBattery)
	a.RestoreBattery(5.0)
	assert.Equal(t, 1.0, a.SocialBattery)
}

func TestActivePartners_AddRemoveIdempotent(t *testing.T) {
	a := New("Carol", emotion.Personality{}, nil)
	a.AddActivePartner("a2")
	a.AddActivePartner("a2")
	assert.Len(t, a.ActivePartners, 1)
	assert.True(t, a.IsInConversation("a2"))

	a.RemoveActivePartner("a2")
	assert.False(t, a.IsInConversation("a2"))
}

func TestApplyEmotion_UsesPersonalityAmplification(t *testing.T) {
	a := New("Dave", emotion.Personality{Neuroticism: 0.9}, nil)
	a.ApplyEmotion(emotion.TriggerWorldEvent)
	assert.Greater(t, a.Emotions.Fear, 0.0)
}

func TestLLMPersonalityProjection(t *testing.T) {
	a := New("Erin", emotion.Personality{Openness: 0.3, Conscientiousness: 0.4, Extraversion: 0.5, Agreeableness: 0.6, Neuroticism: 0.7}, nil)
	p := a.LLMPersonality()
	assert.Equal(t, 0.3, p.Openness)
	assert.Equal(t, 0.7, p.Neuroticism)
}

func TestActiveIntention_NilWhenNoneActive(t *testing.T) {
	a := New("Frank", emotion.Personality{}, nil)
	assert.Nil(t, a.ActiveIntention())
}
