package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// AnthropicProvider calls the Anthropic Messages API directly over
// net/http, grounded on the teacher's core/llm/anthropic_provider.go (the
// corpus has no SDK wrapping the raw Messages API, so the teacher's raw
// net/http client is the idiom we keep).
type AnthropicProvider struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewAnthropicProvider builds a provider reading ANTHROPIC_API_KEY from the
// environment, matching the teacher's secret-loading idiom.
func NewAnthropicProvider(model string) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicProvider{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		model:      model,
		apiURL:     "https://api.anthropic.com/v1/messages",
		httpClient: &http.Client{},
	}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) Available() bool { return a.apiKey != "" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *AnthropicProvider) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("anthropic: ANTHROPIC_API_KEY not set")
	}
	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return parsed.Content[0].Text, nil
}

func (a *AnthropicProvider) GenerateDesires(ctx context.Context, name, id string, personality Personality, emotions Emotions, socialBattery float64, recent []Perception) ([]DesireProposal, error) {
	prompt := buildDesirePrompt(name, personality, emotions, socialBattery, recent)
	raw, err := a.complete(ctx, desireSystemPrompt, prompt, 400)
	if err != nil {
		return nil, err
	}
	return parseDesireProposals(raw)
}

func (a *AnthropicProvider) AnalyzeConversationTurn(ctx context.Context, name, id string, personality Personality, history []TurnMessage, socialBattery float64) (TurnVerdict, error) {
	prompt := buildTurnPrompt(name, personality, history, socialBattery)
	raw, err := a.complete(ctx, turnSystemPrompt, prompt, 20)
	if err != nil {
		return "", err
	}
	return parseTurnVerdict(raw), nil
}

func (a *AnthropicProvider) GenerateNextPlanSteps(ctx context.Context, name, id string, personality Personality, currentDesireDescription string, history []TurnMessage, socialBattery float64) ([]NextStepKind, error) {
	prompt := buildNextStepPrompt(name, personality, currentDesireDescription, history, socialBattery)
	raw, err := a.complete(ctx, nextStepSystemPrompt, prompt, 60)
	if err != nil {
		return nil, err
	}
	return parseNextSteps(raw), nil
}

func (a *AnthropicProvider) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	prompt := buildContentPrompt(req)
	return a.complete(ctx, contentSystemPrompt, prompt, 150)
}

const (
	desireSystemPrompt = "You are the motivational subsystem of a simulated social agent. " +
		"Given its personality, emotions, and social battery, propose 1-3 candidate goals as a JSON array " +
		"of {description, priority, urgency, motivation_type, context}. Respond with JSON only."
	turnSystemPrompt = "You classify the state of an in-progress two-person conversation. " +
		"Respond with exactly one word: CONTINUE, WRAP_UP, or FORCE_QUIT."
	nextStepSystemPrompt = "You propose 1-2 next conversational actions from this exact set: " +
		"send_message, wait_for_response, end_conversation, initiate_conversation, respond_to_message, think. " +
		"Respond as a JSON array of strings."
	contentSystemPrompt = "You write one short, natural conversational utterance in character. Respond with plain text only."
)

func buildDesirePrompt(name string, p Personality, e Emotions, battery float64, recent []Perception) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent: %s\n", name)
	fmt.Fprintf(&b, "Personality: openness=%.2f conscientiousness=%.2f extraversion=%.2f agreeableness=%.2f neuroticism=%.2f\n",
		p.Openness, p.Conscientiousness, p.Extraversion, p.Agreeableness, p.Neuroticism)
	fmt.Fprintf(&b, "Emotions: happiness=%.2f sadness=%.2f anger=%.2f fear=%.2f loneliness=%.2f comfort=%.2f\n",
		e.Happiness, e.Sadness, e.Anger, e.Fear, e.Loneliness, e.Comfort)
	fmt.Fprintf(&b, "Social battery: %.2f\n", battery)
	if len(recent) > 0 {
		b.WriteString("Recent perceptions:\n")
		for _, pr := range recent {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", pr.Type, pr.Subject, pr.Summary)
		}
	}
	return b.String()
}

func buildTurnPrompt(name string, p Personality, history []TurnMessage, battery float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent %s (extraversion=%.2f, social battery=%.2f) conversation so far:\n", name, p.Extraversion, battery)
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.SenderName, m.Content)
	}
	return b.String()
}

func buildNextStepPrompt(name string, p Personality, desire string, history []TurnMessage, battery float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent %s is pursuing: %s\n", name, desire)
	fmt.Fprintf(&b, "Social battery: %.2f\n", battery)
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.SenderName, m.Content)
	}
	return b.String()
}

func buildContentPrompt(req ContentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message type: %s\n", req.MessageType)
	if req.IncomingContent != "" {
		fmt.Fprintf(&b, "Replying to: %s\n", req.IncomingContent)
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.Context)
	}
	for _, m := range req.History {
		fmt.Fprintf(&b, "%s: %s\n", m.SenderName, m.Content)
	}
	return b.String()
}
