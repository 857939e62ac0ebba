package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// passageEndMarker bounds a generated passage so trailing model
// commentary can be cut off.
const passageEndMarker = "---END OF PASSAGE---"

// ReadingAgent generates passages, comprehension questions and
// summaries.
type ReadingAgent struct {
	base
}

// NewReadingAgent creates the reading agent.
func NewReadingAgent(c gemini.Completer, cfg gemini.GenerationConfig) *ReadingAgent {
	return &ReadingAgent{base{completer: c, cfg: cfg}}
}

func (a *ReadingAgent) Name() string { return "reading" }

// Run dispatches one reading operation.
func (a *ReadingAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpGeneratePassage:
		return a.GeneratePassage(ctx, params.value("topic", ""), params.value("difficulty", "intermediate"), params.value("length", "medium"))
	case OpComprehensionQuestions:
		return a.ComprehensionQuestions(ctx, params.value("passage", ""), params.intValue("num_questions", 5), params.value("question_types", "multiple_choice"))
	case OpSummarizePassage:
		return a.SummarizePassage(ctx, params.value("passage", ""), params.value("length", "short"))
	default:
		return unsupported(a.Name(), op)
	}
}

// GeneratePassage produces a reading passage on a topic. The prompt
// asks for an explicit end marker; when the model omits it the full
// text is used as-is.
func (a *ReadingAgent) GeneratePassage(ctx context.Context, topic, difficulty, length string) Result {
	if strings.TrimSpace(topic) == "" {
		return missingParam("topic")
	}

	prompt := fmt.Sprintf(
		"Write a %s-length English reading passage about %q for a %s learner.\n"+
			"Use plain prose with no markdown and no title.\n"+
			"End the passage with the exact line %q and write nothing after it.",
		length, topic, difficulty, passageEndMarker)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}

	passage := raw
	if idx := strings.Index(raw, passageEndMarker); idx >= 0 {
		passage = raw[:idx]
	} else {
		log.WithField("topic", topic).Warn("reading: passage end marker missing, using full text")
	}
	passage = StripMarkup(passage)
	if passage == "" {
		return ErrResult(KindMalformedOutput, "empty passage", raw)
	}

	return JSONResult(map[string]any{
		"topic":      topic,
		"difficulty": difficulty,
		"length":     length,
		"passage":    passage,
	}, raw)
}

// ComprehensionQuestions builds questions over a passage.
func (a *ReadingAgent) ComprehensionQuestions(ctx context.Context, passage string, numQuestions int, questionTypes string) Result {
	if strings.TrimSpace(passage) == "" {
		return missingParam("passage")
	}

	prompt := fmt.Sprintf(
		"Write %d comprehension questions of type %s about the following English passage.\n"+
			"Return exactly one JSON object with the key \"questions\": a list of objects, "+
			"each with the keys \"question_text\", \"question_type\" and \"answer_text\".\n"+
			"Return only the JSON object, with no code fences and no extra text.\n\nPassage:\n%s",
		numQuestions, questionTypes, passage)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, "questions")
}

// SummarizePassage summarizes a passage at the requested length.
func (a *ReadingAgent) SummarizePassage(ctx context.Context, passage, length string) Result {
	if strings.TrimSpace(passage) == "" {
		return missingParam("passage")
	}

	prompt := fmt.Sprintf(
		"Summarize the following English passage in a %s summary.\n"+
			"Return exactly one JSON object with the key \"summary_text\".\n"+
			"Return only the JSON object, with no code fences and no extra text.\n\nPassage:\n%s",
		length, passage)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, "summary_text")
}
