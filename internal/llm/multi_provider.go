package llm

import (
	"context"
	"sync"
	"time"
)

// ProviderStats tracks per-provider performance, grounded on the teacher's
// core/llm/multi_provider.go ProviderStats struct.
type ProviderStats struct {
	TotalCalls   int64
	SuccessCalls int64
	FailedCalls  int64
	TotalLatency time.Duration
	LastUsed     time.Time
}

// MultiProvider tries each registered Advisor in order and falls back to
// the next on error, always ending in a FallbackProvider so the chain never
// fails (spec §9 "the engine must remain fully operational with zero LLM
// availability"). Grounded on the teacher's MultiProviderLLM.
type MultiProvider struct {
	mu        sync.Mutex
	providers []Advisor
	stats     map[string]*ProviderStats
}

// NewMultiProvider builds a fan-out advisor. A FallbackProvider is always
// appended last regardless of what the caller passes.
func NewMultiProvider(providers ...Advisor) *MultiProvider {
	mp := &MultiProvider{
		providers: append(append([]Advisor{}, providers...), NewFallbackProvider()),
		stats:     make(map[string]*ProviderStats),
	}
	for _, p := range mp.providers {
		mp.stats[p.Name()] = &ProviderStats{}
	}
	return mp
}

func (mp *MultiProvider) Name() string { return "multi" }

func (mp *MultiProvider) record(name string, err error, elapsed time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	s := mp.stats[name]
	if s == nil {
		s = &ProviderStats{}
		mp.stats[name] = s
	}
	s.TotalCalls++
	s.TotalLatency += elapsed
	s.LastUsed = time.Now()
	if err != nil {
		s.FailedCalls++
	} else {
		s.SuccessCalls++
	}
}

// Stats returns a snapshot of per-provider call statistics.
func (mp *MultiProvider) Stats() map[string]ProviderStats {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make(map[string]ProviderStats, len(mp.stats))
	for k, v := range mp.stats {
		out[k] = *v
	}
	return out
}

func (mp *MultiProvider) GenerateDesires(ctx context.Context, name, id string, personality Personality, emotions Emotions, socialBattery float64, recent []Perception) ([]DesireProposal, error) {
	var lastErr error
	for _, p := range mp.providers {
		start := time.Now()
		out, err := p.GenerateDesires(ctx, name, id, personality, emotions, socialBattery, recent)
		mp.record(p.Name(), err, time.Since(start))
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (mp *MultiProvider) AnalyzeConversationTurn(ctx context.Context, name, id string, personality Personality, history []TurnMessage, socialBattery float64) (TurnVerdict, error) {
	var lastErr error
	for _, p := range mp.providers {
		start := time.Now()
		out, err := p.AnalyzeConversationTurn(ctx, name, id, personality, history, socialBattery)
		mp.record(p.Name(), err, time.Since(start))
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return Continue, lastErr
}

func (mp *MultiProvider) GenerateNextPlanSteps(ctx context.Context, name, id string, personality Personality, currentDesireDescription string, history []TurnMessage, socialBattery float64) ([]NextStepKind, error) {
	var lastErr error
	for _, p := range mp.providers {
		start := time.Now()
		out, err := p.GenerateNextPlanSteps(ctx, name, id, personality, currentDesireDescription, history, socialBattery)
		mp.record(p.Name(), err, time.Since(start))
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (mp *MultiProvider) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	var lastErr error
	for _, p := range mp.providers {
		start := time.Now()
		out, err := p.GenerateContent(ctx, req)
		mp.record(p.Name(), err, time.Since(start))
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}
