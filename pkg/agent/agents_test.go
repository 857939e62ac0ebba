package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// fakeCompleter scripts one backend reply (or failure) and records
// the prompts it receives.
type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func (f *fakeCompleter) Send(ctx context.Context, prompt string, cfg gemini.GenerationConfig) <-chan gemini.Chunk {
	f.prompts = append(f.prompts, prompt)
	ch := make(chan gemini.Chunk, 2)
	if f.reply != "" {
		ch <- gemini.Chunk{Text: f.reply}
	}
	if f.err != nil {
		ch <- gemini.Chunk{Err: f.err}
	}
	close(ch)
	return ch
}

func TestVocabularyExplainWord(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n{\"word\":\"cat\",\"part_of_speech\":\"noun\",\"meanings\":[\"a small animal\"],\"examples\":[\"The cat sleeps.\"],\"synonyms\":[],\"antonyms\":[]}\n```"}
	a := NewVocabularyAgent(fake, gemini.GenerationConfig{})

	res := a.ExplainWord(context.Background(), "cat", "intermediate")
	require.True(t, res.OK())
	assert.Equal(t, "cat", res.Value["word"])
	assert.Contains(t, fake.prompts[0], `"cat"`)
}

func TestVocabularyExplainWordBeginnerSchema(t *testing.T) {
	// Beginner replies must satisfy the reduced key set.
	fake := &fakeCompleter{reply: `{"word":"cat","part_of_speech":"noun"}`}
	a := NewVocabularyAgent(fake, gemini.GenerationConfig{})

	res := a.ExplainWord(context.Background(), "cat", "beginner")
	require.False(t, res.OK())
	assert.Equal(t, KindIncompleteSchema, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "meaning")
}

func TestVocabularyMissingWord(t *testing.T) {
	a := NewVocabularyAgent(&fakeCompleter{}, gemini.GenerationConfig{})
	res := a.ExplainWord(context.Background(), "  ", "beginner")
	require.False(t, res.OK())
	assert.Equal(t, KindInvalidInput, res.Err.Kind)
}

func TestRunRejectsForeignOperation(t *testing.T) {
	a := NewVocabularyAgent(&fakeCompleter{}, gemini.GenerationConfig{})
	res := a.Run(context.Background(), OpGeneratePlan, Params{})
	require.False(t, res.OK())
	assert.Equal(t, KindInvalidInput, res.Err.Kind)
}

func TestGrammarExplainRuleStripsMarkup(t *testing.T) {
	fake := &fakeCompleter{reply: "**Present Perfect** is used..."}
	a := NewGrammarAgent(fake, gemini.GenerationConfig{})

	res := a.Run(context.Background(), OpExplainRule, Params{"rule_name": "present perfect"})
	require.True(t, res.OK())
	assert.Equal(t, "text", res.Type)
	assert.Equal(t, "Present Perfect is used...", res.Content)
	assert.Equal(t, "**Present Perfect** is used...", res.Raw)
}

func TestGrammarCorrectTextStructured(t *testing.T) {
	fake := &fakeCompleter{reply: `{"original_text":"he go","corrected_text":"he goes","corrections":[{"error_type":"verb agreement","original_phrase":"he go","corrected_phrase":"he goes","explanation":"third person singular"}]}`}
	a := NewGrammarAgent(fake, gemini.GenerationConfig{})

	res := a.CorrectText(context.Background(), "he go", true)
	require.True(t, res.OK())
	assert.Equal(t, "he goes", res.Value["corrected_text"])
}

func TestGrammarProvideExamplesSplitsLines(t *testing.T) {
	fake := &fakeCompleter{reply: "She has eaten.\n\nThey have left.\n"}
	a := NewGrammarAgent(fake, gemini.GenerationConfig{})

	res := a.ProvideExamples(context.Background(), "present perfect", 2, "")
	require.True(t, res.OK())
	assert.Equal(t, []any{"She has eaten.", "They have left."}, res.Value["examples"])
}

func TestReadingPassageMarkerSplit(t *testing.T) {
	fake := &fakeCompleter{reply: "Rivers shape the land.\n---END OF PASSAGE---\nHope you like it!"}
	a := NewReadingAgent(fake, gemini.GenerationConfig{})

	res := a.GeneratePassage(context.Background(), "rivers", "beginner", "short")
	require.True(t, res.OK())
	assert.Equal(t, "Rivers shape the land.", res.Value["passage"])
	assert.Equal(t, "rivers", res.Value["topic"])
}

func TestReadingPassageMissingMarkerFallsBack(t *testing.T) {
	fake := &fakeCompleter{reply: "Rivers shape the land."}
	a := NewReadingAgent(fake, gemini.GenerationConfig{})

	res := a.GeneratePassage(context.Background(), "rivers", "beginner", "short")
	require.True(t, res.OK())
	assert.Equal(t, "Rivers shape the land.", res.Value["passage"])
}

func TestReadingQuestions(t *testing.T) {
	fake := &fakeCompleter{reply: `{"questions":[{"question_text":"What shapes the land?","question_type":"open","answer_text":"Rivers"}]}`}
	a := NewReadingAgent(fake, gemini.GenerationConfig{})

	res := a.ComprehensionQuestions(context.Background(), "Rivers shape the land.", 1, "open")
	require.True(t, res.OK())
	assert.Contains(t, res.Value, "questions")
}

func TestStudyPlanGeneratePlan(t *testing.T) {
	fake := &fakeCompleter{reply: "Week 1: learn ten words a day."}
	a := NewStudyPlanAgent(fake, gemini.GenerationConfig{})

	res := a.Run(context.Background(), OpGeneratePlan, Params{"goal": "pass IELTS"})
	require.True(t, res.OK())
	assert.Equal(t, "Week 1: learn ten words a day.", res.Content)
}

func TestTeacherAnalyzeText(t *testing.T) {
	fake := &fakeCompleter{reply: `{"vocabulary":[{"word":"magnificent","translation":"tráng lệ"}],"corrected_text":"The view was magnificent.","explanation":"Added the article."}`}
	a := NewTeacherAgent(fake, gemini.GenerationConfig{}, "Vietnamese")

	res := a.AnalyzeText(context.Background(), "View was magnificent yesterday evening.")
	require.True(t, res.OK())
	assert.Equal(t, "The view was magnificent.", res.Value["corrected_text"])
	assert.Contains(t, fake.prompts[0], "magnificent")
	assert.Contains(t, fake.prompts[0], "Vietnamese")
}

func TestExtractVocabulary(t *testing.T) {
	words := extractVocabulary("The magnificent cathedral was, however, completely deserted.")
	assert.Equal(t, []string{"magnificent", "cathedral", "completely", "deserted"}, words)
}

func TestExtractVocabularyDeduplicates(t *testing.T) {
	words := extractVocabulary("Magnificent, magnificent scenery!")
	assert.Equal(t, []string{"magnificent", "scenery"}, words)
}

func TestFromErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{gemini.ErrNoAPIKey, KindConfiguration},
		{gemini.ErrEmptyPrompt, KindInvalidInput},
		{&gemini.BackendError{StatusCode: 500, Body: "boom"}, KindBackend},
		{&gemini.SchemaError{Detail: "no candidates"}, KindSchema},
		{&gemini.NetworkError{Op: "generate", Err: errors.New("refused")}, KindNetwork},
		{context.DeadlineExceeded, KindNetwork},
		{context.Canceled, KindCancelled},
	}
	for _, tc := range cases {
		res := FromError(tc.err, "raw text")
		assert.Equal(t, tc.kind, res.Err.Kind)
		assert.Equal(t, "raw text", res.Raw)
	}
}
