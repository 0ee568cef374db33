package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// RoutingDecision tells the caller whether a user turn needs the full
// search pipeline or a direct conversational reply.
type RoutingDecision struct {
	RunPipeline bool   `json:"run_pipeline"`
	Reasoning   string `json:"reasoning"`
}

// Classifier routes a user message. Implementations must never fail:
// when a decision cannot be produced they default to running the full
// pipeline, so a legitimate search is never silently dropped.
type Classifier interface {
	Route(ctx context.Context, userMessage string, priorContext map[string]any) RoutingDecision
}

// ChatCompleter is the narrow LLM contract the pipeline needs: one
// system prompt, one user prompt, one text reply.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Configured() bool
}

// RuleClassifier is the deterministic keyword matcher used for tests and
// offline operation.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var searchSignals = []string{
	"find", "search", "looking for", "where", "recommend", "suggest",
	"cafe", "coffee", "coworking", "library", "libraries",
	"workspace", "work space", "place to work", "somewhere to work",
	"wifi", "outlet", "outlets", "quiet", "study",
	"venue", "spot", "near me", "nearby", "close by",
	"call", "calls", "meeting",
}

var smallTalkSignals = []string{
	"hi", "hello", "hey", "thanks", "thank you", "how are you",
	"good morning", "good afternoon", "good evening", "bye", "goodbye",
	"what can you do", "who are you",
}

func (c *RuleClassifier) Route(_ context.Context, userMessage string, _ map[string]any) RoutingDecision {
	msg := strings.ToLower(userMessage)
	for _, signal := range searchSignals {
		if containsPhrase(msg, signal) {
			return RoutingDecision{
				RunPipeline: true,
				Reasoning:   fmt.Sprintf("message mentions %q, treating as workspace search", signal),
			}
		}
	}
	for _, signal := range smallTalkSignals {
		if containsPhrase(msg, signal) {
			return RoutingDecision{
				RunPipeline: false,
				Reasoning:   "general conversation, no workspace search needed",
			}
		}
	}
	// Ambiguous messages fail toward doing more work rather than
	// dropping a legitimate search.
	return RoutingDecision{
		RunPipeline: true,
		Reasoning:   "no clear signal, defaulting to full pipeline",
	}
}

// containsPhrase matches whole words only, so "hi" does not fire on "this".
func containsPhrase(msg, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(msg[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || !isWordChar(msg[start-1])
		endOK := end == len(msg) || !isWordChar(msg[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(msg) {
			return false
		}
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

const classifierSystemPrompt = `You are the routing classifier for WorkSphere, a workspace finder.
Decide whether the user message requires the venue search pipeline or a direct conversational reply.

Rules:
1. Finding/searching for workspaces, cafes, coworking spaces, libraries, or amenities -> run the pipeline
2. Greetings, small talk, general questions -> direct reply

Output ONLY valid JSON:
{"run_pipeline": true, "reasoning": "why"}`

// LLMClassifier routes via a chat-completions call. Any parse or network
// failure falls back to running the full pipeline.
type LLMClassifier struct {
	llm ChatCompleter
}

func NewLLMClassifier(llm ChatCompleter) *LLMClassifier {
	return &LLMClassifier{llm: llm}
}

var jsonBlobPattern = regexp.MustCompile(`(?s)\{.*\}`)

func (c *LLMClassifier) Route(ctx context.Context, userMessage string, priorContext map[string]any) RoutingDecision {
	fallback := RoutingDecision{
		RunPipeline: true,
		Reasoning:   "classifier unavailable, defaulting to full pipeline",
	}

	prior := "none"
	if len(priorContext) > 0 {
		if b, err := json.Marshal(priorContext); err == nil {
			prior = string(b)
		}
	}
	prompt := fmt.Sprintf("User message: %q\nPrevious context: %s", userMessage, prior)

	text, err := c.llm.Complete(ctx, classifierSystemPrompt, prompt)
	if err != nil {
		log.Printf("Orchestrator LLM error: %v", err)
		return fallback
	}

	blob := jsonBlobPattern.FindString(text)
	if blob == "" {
		return fallback
	}
	var parsed struct {
		RunPipeline *bool  `json:"run_pipeline"`
		Reasoning   string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil || parsed.RunPipeline == nil {
		log.Printf("Orchestrator parse error: %v", err)
		return fallback
	}
	decision := RoutingDecision{RunPipeline: *parsed.RunPipeline, Reasoning: parsed.Reasoning}
	if decision.Reasoning == "" {
		decision.Reasoning = "classified by model"
	}
	return decision
}
