package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// GrammarAgent explains rules, corrects text and produces examples.
type GrammarAgent struct {
	base
}

// NewGrammarAgent creates the grammar agent.
func NewGrammarAgent(c gemini.Completer, cfg gemini.GenerationConfig) *GrammarAgent {
	return &GrammarAgent{base{completer: c, cfg: cfg}}
}

func (a *GrammarAgent) Name() string { return "grammar" }

// Run dispatches one grammar operation.
func (a *GrammarAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpExplainRule:
		return a.ExplainRule(ctx, params.value("rule_name", ""), params.value("level", "intermediate"))
	case OpCorrectText:
		return a.CorrectText(ctx, params.value("text", ""), params.boolValue("explain_errors", true))
	case OpProvideExamples:
		return a.ProvideExamples(ctx, params.value("grammar_point", ""), params.intValue("count", 5), params.value("context", ""))
	default:
		return unsupported(a.Name(), op)
	}
}

// ExplainRule returns a plain-prose explanation of a grammar rule.
func (a *GrammarAgent) ExplainRule(ctx context.Context, ruleName, level string) Result {
	if strings.TrimSpace(ruleName) == "" {
		return missingParam("rule_name")
	}

	prompt := fmt.Sprintf(
		"You are an English grammar teacher.\n"+
			"Explain the grammar rule %q to a %s learner, with a short definition, "+
			"when to use it, and two or three example sentences.\n"+
			"Answer in plain prose with no markdown, no bullet markers and no headings.",
		ruleName, level)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return TextResult(StripMarkup(raw), raw)
}

// CorrectText corrects the learner's text. With explainErrors the
// result is structured per correction; without it only the corrected
// text comes back.
func (a *GrammarAgent) CorrectText(ctx context.Context, text string, explainErrors bool) Result {
	if strings.TrimSpace(text) == "" {
		return missingParam("text")
	}

	if !explainErrors {
		prompt := fmt.Sprintf(
			"Correct the grammar, spelling and word choice of the following English text.\n"+
				"Return only the corrected text, nothing else.\n\nText: %s", text)
		raw, err := a.generate(ctx, prompt)
		if err != nil {
			return FromError(err, raw)
		}
		return TextResult(StripMarkup(raw), raw)
	}

	prompt := fmt.Sprintf(
		"You are an English teacher correcting a learner's writing.\n"+
			"Correct the following text and explain every change.\n"+
			"Return exactly one JSON object with the keys \"original_text\", \"corrected_text\" and \"corrections\".\n"+
			"\"corrections\" is a list of objects with the keys \"error_type\", \"original_phrase\", "+
			"\"corrected_phrase\" and \"explanation\" (an empty list when the text is already correct).\n"+
			"Return only the JSON object, with no code fences and no extra text.\n\nText: %s",
		text)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, "original_text", "corrected_text", "corrections")
}

// ProvideExamples returns example sentences for a grammar point, one
// per line.
func (a *GrammarAgent) ProvideExamples(ctx context.Context, grammarPoint string, count int, contextHint string) Result {
	if strings.TrimSpace(grammarPoint) == "" {
		return missingParam("grammar_point")
	}

	prompt := fmt.Sprintf(
		"Write %d example sentences demonstrating the English grammar point %q.",
		count, grammarPoint)
	if contextHint != "" {
		prompt += fmt.Sprintf(" Set the sentences in the context of %s.", contextHint)
	}
	prompt += "\nReturn one sentence per line with no numbering, no markdown and no extra text."

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}

	var examples []any
	for _, line := range strings.Split(StripMarkup(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			examples = append(examples, line)
		}
	}
	return JSONResult(map[string]any{"examples": examples}, raw)
}
