package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// Operation names one agent capability. The set is closed: each agent
// dispatches over its own subset with a switch and rejects the rest.
type Operation string

const (
	OpExplainWord            Operation = "explain_word"
	OpWordsByTopic           Operation = "words_by_topic"
	OpExplainRule            Operation = "explain_rule"
	OpCorrectText            Operation = "correct_text"
	OpProvideExamples        Operation = "provide_examples"
	OpGeneratePassage        Operation = "generate_passage"
	OpComprehensionQuestions Operation = "comprehension_questions"
	OpSummarizePassage       Operation = "summarize_passage"
	OpGeneratePlan           Operation = "generate_plan"
	OpAnalyzeText            Operation = "analyze_text"
	OpSpeak                  Operation = "speak"
)

// Params carries the free-form string parameters of one operation.
type Params map[string]string

// value returns the parameter or a default when absent or blank.
func (p Params) value(key, def string) string {
	if v, ok := p[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// intValue returns the parameter parsed as an int, or a default.
func (p Params) intValue(key string, def int) int {
	if v, ok := p[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// boolValue returns the parameter parsed as a bool, or a default.
func (p Params) boolValue(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// PromptAgent is the capability every learning activity implements:
// one entry point taking an operation plus parameters and returning a
// Result, never an error.
type PromptAgent interface {
	Name() string
	Run(ctx context.Context, op Operation, params Params) Result
}

// base holds what every agent composes over: the completion backend
// and the generation settings fixed at construction.
type base struct {
	completer gemini.Completer
	cfg       gemini.GenerationConfig
}

// generate sends one prompt and accumulates the full response.
func (b base) generate(ctx context.Context, prompt string) (string, error) {
	return Collect(ctx, b.completer.Send(ctx, prompt, b.cfg))
}

func unsupported(agent string, op Operation) Result {
	return ErrResult(KindInvalidInput, fmt.Sprintf("%s: unsupported operation %q", agent, op), "")
}

func missingParam(name string) Result {
	return ErrResult(KindInvalidInput, name+" is required", "")
}
