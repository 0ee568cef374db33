package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleClassifierSmallTalk(t *testing.T) {
	classifier := NewRuleClassifier()
	for _, message := range []string{
		"hi there, how are you?",
		"Hello!",
		"thanks, that was helpful",
		"good morning",
		"what can you do?",
	} {
		decision := classifier.Route(context.Background(), message, nil)
		assert.False(t, decision.RunPipeline, "message %q", message)
		assert.NotEmpty(t, decision.Reasoning)
	}
}

func TestRuleClassifierSearch(t *testing.T) {
	classifier := NewRuleClassifier()
	for _, message := range []string{
		"Find a quiet cafe with WiFi near me",
		"where can I work today?",
		"recommend a coworking space",
		"I need somewhere for video calls",
		"any good libraries nearby?",
	} {
		decision := classifier.Route(context.Background(), message, nil)
		assert.True(t, decision.RunPipeline, "message %q", message)
	}
}

func TestRuleClassifierAmbiguousRunsPipeline(t *testing.T) {
	classifier := NewRuleClassifier()
	decision := classifier.Route(context.Background(), "hmm, not sure what I want", nil)
	assert.True(t, decision.RunPipeline)
}

func TestRuleClassifierWholeWordMatching(t *testing.T) {
	// "hi" inside "this" and "hey" inside "they" must not fire.
	assert.False(t, containsPhrase("this is something", "hi"))
	assert.False(t, containsPhrase("they went home", "hey"))
	assert.True(t, containsPhrase("hi, anyone around?", "hi"))
	assert.True(t, containsPhrase("say hi", "hi"))
}

func TestLLMClassifierParsesDecision(t *testing.T) {
	llm := &stubLLM{reply: `{"run_pipeline": false, "reasoning": "greeting"}`}
	classifier := NewLLMClassifier(llm)

	decision := classifier.Route(context.Background(), "hello", nil)
	assert.False(t, decision.RunPipeline)
	assert.Equal(t, "greeting", decision.Reasoning)
}

func TestLLMClassifierExtractsEmbeddedJSON(t *testing.T) {
	llm := &stubLLM{reply: "Sure, here is my decision:\n{\"run_pipeline\": true, \"reasoning\": \"venue search\"}\nDone."}
	classifier := NewLLMClassifier(llm)

	decision := classifier.Route(context.Background(), "find a cafe", nil)
	assert.True(t, decision.RunPipeline)
}

func TestLLMClassifierFallsBackToPipeline(t *testing.T) {
	cases := map[string]*stubLLM{
		"network error":    {err: errors.New("connection refused")},
		"no json in reply": {reply: "I'm not sure what you mean."},
		"malformed json":   {reply: `{"run_pipeline": "maybe"}`},
		"missing decision": {reply: `{"reasoning": "unsure"}`},
	}
	for name, llm := range cases {
		classifier := NewLLMClassifier(llm)
		decision := classifier.Route(context.Background(), "find a cafe", nil)
		assert.True(t, decision.RunPipeline, name)
	}
}
