package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// minVocabularyLen is the shortest word considered worth explaining.
const minVocabularyLen = 6

// TeacherAgent analyzes a learner's free text in one pass: it picks
// out the difficult vocabulary locally, then asks the backend to
// translate those words, correct the text and explain the corrections.
type TeacherAgent struct {
	base
	targetLanguage string
}

// NewTeacherAgent creates the teacher agent. Translations are produced
// in targetLanguage.
func NewTeacherAgent(c gemini.Completer, cfg gemini.GenerationConfig, targetLanguage string) *TeacherAgent {
	if targetLanguage == "" {
		targetLanguage = "Vietnamese"
	}
	return &TeacherAgent{base: base{completer: c, cfg: cfg}, targetLanguage: targetLanguage}
}

func (a *TeacherAgent) Name() string { return "teacher" }

// Run dispatches one teacher operation.
func (a *TeacherAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpAnalyzeText:
		return a.AnalyzeText(ctx, params.value("text", ""))
	default:
		return unsupported(a.Name(), op)
	}
}

// AnalyzeText returns {vocabulary, corrected_text, explanation} for
// the learner's text.
func (a *TeacherAgent) AnalyzeText(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return missingParam("text")
	}

	words := extractVocabulary(text)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an English teacher reviewing a learner's text.\n")
	fmt.Fprintf(&b, "Text: %s\n\n", text)
	if len(words) > 0 {
		fmt.Fprintf(&b, "The difficult words in the text are: %s.\n", strings.Join(words, ", "))
		fmt.Fprintf(&b, "Translate each of them into %s.\n", a.targetLanguage)
	} else {
		fmt.Fprintf(&b, "The text contains no difficult words.\n")
	}
	fmt.Fprintf(&b, "Correct the grammar and word choice of the text and explain the corrections briefly.\n")
	fmt.Fprintf(&b, "Return exactly one JSON object with the keys \"vocabulary\", \"corrected_text\" and \"explanation\".\n")
	fmt.Fprintf(&b, "\"vocabulary\" is a list of objects with the keys \"word\" and \"translation\" (an empty list when there are no difficult words).\n")
	fmt.Fprintf(&b, "Return only the JSON object, with no code fences and no extra text.")

	raw, err := a.generate(ctx, b.String())
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, "vocabulary", "corrected_text", "explanation")
}

// extractVocabulary picks the words a learner is likely to find hard:
// long enough, not a stop word, deduplicated in order of appearance.
func extractVocabulary(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range strings.Fields(text) {
		word := strings.ToLower(strings.Trim(field, ".,;:!?\"'()[]"))
		if len(word) < minVocabularyLen || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
	}
	return out
}
