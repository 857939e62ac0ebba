package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// VocabularyAgent explains words and generates topical word lists.
type VocabularyAgent struct {
	base
}

// NewVocabularyAgent creates the vocabulary agent.
func NewVocabularyAgent(c gemini.Completer, cfg gemini.GenerationConfig) *VocabularyAgent {
	return &VocabularyAgent{base{completer: c, cfg: cfg}}
}

func (a *VocabularyAgent) Name() string { return "vocabulary" }

// Run dispatches one vocabulary operation.
func (a *VocabularyAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpExplainWord:
		return a.ExplainWord(ctx, params.value("word", ""), params.value("level", "intermediate"))
	case OpWordsByTopic:
		return a.WordsByTopic(ctx, params.value("topic", ""), params.value("difficulty", "intermediate"), params.intValue("count", 10))
	default:
		return unsupported(a.Name(), op)
	}
}

// ExplainWord asks for a structured explanation of one word. Beginner
// level gets a reduced schema with a single meaning and example.
func (a *VocabularyAgent) ExplainWord(ctx context.Context, word, level string) Result {
	if strings.TrimSpace(word) == "" {
		return missingParam("word")
	}

	var prompt string
	var keys []string
	if level == "beginner" {
		keys = []string{"word", "part_of_speech", "meaning", "example"}
		prompt = fmt.Sprintf(
			"You are an English teacher helping a beginner learner.\n"+
				"Explain the English word %q in very simple terms.\n"+
				"Return exactly one JSON object with the keys \"word\", \"part_of_speech\", \"meaning\" and \"example\".\n"+
				"\"meaning\" is one short sentence and \"example\" is one simple example sentence.\n"+
				"Return only the JSON object, with no code fences and no extra text.",
			word)
	} else {
		keys = []string{"word", "part_of_speech", "meanings", "examples", "synonyms", "antonyms"}
		prompt = fmt.Sprintf(
			"You are an English teacher helping a %s learner.\n"+
				"Explain the English word %q.\n"+
				"Return exactly one JSON object with the keys \"word\", \"part_of_speech\", \"meanings\", \"examples\", \"synonyms\" and \"antonyms\".\n"+
				"\"meanings\" is a list of distinct senses, \"examples\" a list of example sentences, "+
				"\"synonyms\" and \"antonyms\" lists of words (empty lists when none apply).\n"+
				"Return only the JSON object, with no code fences and no extra text.",
			level, word)
	}

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, keys...)
}

// WordsByTopic asks for count words related to a topic.
func (a *VocabularyAgent) WordsByTopic(ctx context.Context, topic, difficulty string, count int) Result {
	if strings.TrimSpace(topic) == "" {
		return missingParam("topic")
	}

	prompt := fmt.Sprintf(
		"You are an English teacher building vocabulary lists.\n"+
			"List %d English words related to the topic %q at %s difficulty.\n"+
			"Return exactly one JSON object with the key \"words\": a list of objects, "+
			"each with the keys \"word\", \"meaning\" and \"example\".\n"+
			"Return only the JSON object, with no code fences and no extra text.",
		count, topic, difficulty)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return ParseStructured(raw, "words")
}
