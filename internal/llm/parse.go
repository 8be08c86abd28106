package llm

import (
	"encoding/json"
	"strings"
)

// parseDesireProposals extracts a JSON array of proposals from raw model
// output, tolerating leading/trailing prose around the array (teacher's
// core/goals/goal_generator.go does the same jsonStart/jsonEnd trick for a
// single object; we apply it to an array).
func parseDesireProposals(raw string) ([]DesireProposal, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, nil
	}
	var out []DesireProposal
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, nil
	}
	return FilterDesireProposals(out, 3), nil
}

func parseTurnVerdict(raw string) TurnVerdict {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, "FORCE_QUIT"):
		return ForceQuit
	case strings.Contains(upper, "WRAP_UP"):
		return WrapUp
	default:
		return Continue
	}
}

func parseNextSteps(raw string) []NextStepKind {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	var candidates []string
	if start != -1 && end != -1 && end > start {
		_ = json.Unmarshal([]byte(raw[start:end+1]), &candidates)
	}
	out := make([]NextStepKind, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, NextStepKind(strings.ToLower(strings.TrimSpace(c))))
	}
	return FilterNextSteps(out, 2)
}
