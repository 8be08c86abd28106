// Package emotion implements the fixed trigger-delta table that drives an
// agent's emotion vector (spec §4.7 "Emotion Engine"). The table is
// design-time data, not control flow: dispatch code in package world looks
// up a Trigger by name and calls Apply; it never special-cases an emotion
// axis inline.
package emotion

import "strings"

// Vector is an agent's emotion state, every axis clamped to [0,1].
type Vector struct {
	Happiness float64
	Sadness   float64
	Anger     float64
	Fear      float64
	Surprise  float64
	Disgust   float64
	Loneliness float64
	Comfort   float64
}

// Personality is the subset of the OCEAN vector the emotion engine reads.
type Personality struct {
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
}

// Delta is a named set of per-axis adjustments applied by one Trigger.
type Delta struct {
	Happiness  float64
	Sadness    float64
	Anger      float64
	Fear       float64
	Surprise   float64
	Disgust    float64
	Loneliness float64
	Comfort    float64
}

// Trigger is a keyword-addressable emotional event.
type Trigger string

const (
	TriggerWorldEvent       Trigger = "world_event"
	TriggerFriendlyChat     Trigger = "friendly_chat"
	TriggerLongPleasantChat Trigger = "long_pleasant_chat"
	TriggerConflict         Trigger = "conflict"
	TriggerRejection        Trigger = "rejection"
	TriggerForceQuit        Trigger = "force_quit"
	TriggerSolitude         Trigger = "solitude"
	TriggerGreeting         Trigger = "greeting"
	TriggerFarewell         Trigger = "farewell"
	TriggerHelped           Trigger = "helped"
	TriggerIgnored          Trigger = "ignored"
)

// table is the fixed impact table referenced by spec §4.7. Deltas are small
// per-event nudges; repeated triggers accumulate, clamped to [0,1] by Apply.
var table = map[Trigger]Delta{
	TriggerWorldEvent:       {Surprise: 0.30, Fear: 0.15, Sadness: 0.05},
	TriggerFriendlyChat:     {Happiness: 0.08, Comfort: 0.05, Loneliness: -0.05},
	TriggerLongPleasantChat: {Happiness: 0.15, Comfort: 0.12, Loneliness: -0.15},
	TriggerConflict:         {Anger: 0.20, Sadness: 0.10, Comfort: -0.10},
	TriggerRejection:        {Sadness: 0.18, Loneliness: 0.12, Anger: 0.05},
	TriggerForceQuit:        {Anger: 0.10, Sadness: 0.08, Comfort: -0.08},
	TriggerSolitude:         {Loneliness: 0.10, Comfort: -0.03},
	TriggerGreeting:         {Happiness: 0.04, Comfort: 0.03},
	TriggerFarewell:         {Comfort: 0.02, Loneliness: 0.02},
	TriggerHelped:           {Happiness: 0.10, Comfort: 0.08},
	TriggerIgnored:          {Sadness: 0.06, Loneliness: 0.06},
}

// keywordTriggers drives content-based trigger selection when the caller has
// free text (e.g. a message body) rather than a known event type.
var keywordTriggers = []struct {
	keyword string
	trigger Trigger
}{
	{"fire", TriggerWorldEvent},
	{"alarm", TriggerWorldEvent},
	{"danger", TriggerWorldEvent},
	{"sorry", TriggerRejection},
	{"angry", TriggerConflict},
	{"thanks", TriggerHelped},
	{"bye", TriggerFarewell},
	{"hello", TriggerGreeting},
	{"hi", TriggerGreeting},
}

// TriggerFromKeywords returns the first matching keyword trigger in content,
// or ok=false if nothing matches.
func TriggerFromKeywords(content string) (Trigger, bool) {
	lower := strings.ToLower(content)
	for _, kt := range keywordTriggers {
		if strings.Contains(lower, kt.keyword) {
			return kt.trigger, true
		}
	}
	return "", false
}

// Apply applies the named trigger's delta to v, amplifying fear/anger/
// sadness by 1 + (neuroticism - 0.5) * 0.4 per spec §4.7, and clamps every
// axis to [0,1]. Unknown triggers are a no-op.
func Apply(v Vector, p Personality, t Trigger) Vector {
	d, ok := table[t]
	if !ok {
		return v
	}
	amp := 1 + (p.Neuroticism-0.5)*0.4

	v.Happiness = clamp(v.Happiness + d.Happiness)
	v.Sadness = clamp(v.Sadness + amplify(d.Sadness, amp))
	v.Anger = clamp(v.Anger + amplify(d.Anger, amp))
	v.Fear = clamp(v.Fear + amplify(d.Fear, amp))
	v.Surprise = clamp(v.Surprise + d.Surprise)
	v.Disgust = clamp(v.Disgust + d.Disgust)
	v.Loneliness = clamp(v.Loneliness + d.Loneliness)
	v.Comfort = clamp(v.Comfort + d.Comfort)
	return v
}

// UpdateFromDialogue nudges comfort/loneliness by a pairwise affinity delta,
// used by the dispatcher's update_emotions_from_dialogue step.
func UpdateFromDialogue(v Vector, affinityDelta float64) Vector {
	v.Comfort = clamp(v.Comfort + affinityDelta)
	v.Loneliness = clamp(v.Loneliness - affinityDelta)
	return v
}

func amplify(delta, amp float64) float64 {
	if delta <= 0 {
		return delta
	}
	return delta * amp
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
