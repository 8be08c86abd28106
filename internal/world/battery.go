package world

import "github.com/Vik0t/ai-agent-autonomous-life/internal/llm"

// sendCost computes the social-battery drain for one outbound SEND_MESSAGE/
// RESPOND_TO_MESSAGE (spec §4.7 "Social battery drain").
func sendCost(p llm.Personality) float64 {
	cost := (1.1 - p.Extraversion) * 0.15
	switch {
	case p.Extraversion < 0.4:
		cost *= 1.5
	case p.Extraversion > 0.6:
		cost *= 0.7
	}
	if p.Neuroticism > 0.6 {
		cost *= 1.2
	}
	return clamp01(cost)
}

// soloRestoreAmount computes the battery restored by a confirmed solo
// action (spec §4.7's "Restore on solo confirmations").
func soloRestoreAmount(p llm.Personality) float64 {
	amount := 0.05
	if p.Extraversion > 0.6 {
		amount *= 1.2
	}
	return clamp01(amount)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
