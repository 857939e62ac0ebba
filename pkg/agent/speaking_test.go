package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthanh/engmate/pkg/gemini"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type fakeSynthesizer struct {
	path string
	err  error
}

func (f *fakeSynthesizer) Synthesize(context.Context, string) (string, error) {
	return f.path, f.err
}

func TestSpeakingGreetOpensSession(t *testing.T) {
	a := NewSpeakingAgent(&fakeCompleter{}, gemini.GenerationConfig{}, nil, &fakeSynthesizer{path: "/tmp/greet.mp3"})

	reply := a.Greet(context.Background())
	assert.Equal(t, Greeting, reply.Text)
	assert.Equal(t, "/tmp/greet.mp3", reply.AudioPath)

	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, RoleAssistant, history[0].Role)
	assert.Equal(t, Greeting, history[0].Content)
}

func TestSpeakingTextTurn(t *testing.T) {
	fake := &fakeCompleter{reply: "That sounds great! What did you do there?"}
	a := NewSpeakingAgent(fake, gemini.GenerationConfig{}, nil, nil)

	reply := a.RespondText(context.Background(), "I went to the beach.")
	assert.Equal(t, "That sounds great! What did you do there?", reply.Text)
	assert.Empty(t, reply.AudioPath)

	history := a.History()
	require.Len(t, history, 3) // greeting, user, assistant
	assert.Equal(t, RoleUser, history[1].Role)
	assert.Equal(t, "I went to the beach.", history[1].Content)
	assert.Equal(t, RoleAssistant, history[2].Role)

	// The rendered transcript goes into the prompt.
	assert.Contains(t, fake.prompts[0], "User: I went to the beach.")
	assert.Contains(t, fake.prompts[0], "Assistant: "+Greeting)
}

func TestSpeakingGenerationFailureFallsBack(t *testing.T) {
	fake := &fakeCompleter{err: &gemini.BackendError{StatusCode: 503, Body: "down"}}
	a := NewSpeakingAgent(fake, gemini.GenerationConfig{}, nil, nil)

	reply := a.RespondText(context.Background(), "hello?")
	assert.Equal(t, replyFallback, reply.Text)

	// The fallback still lands in the transcript to keep turns alternating.
	history := a.History()
	assert.Equal(t, replyFallback, history[len(history)-1].Content)
}

func TestSpeakingAudioTurn(t *testing.T) {
	fake := &fakeCompleter{reply: "Nice to hear!"}
	a := NewSpeakingAgent(fake, gemini.GenerationConfig{}, &fakeTranscriber{text: "I passed my exam"}, nil)

	reply := a.RespondAudio(context.Background(), []byte{1, 2, 3})
	assert.Equal(t, "I passed my exam", reply.Heard)
	assert.Equal(t, "Nice to hear!", reply.Text)
}

func TestSpeakingTranscriptionFailureIsSoft(t *testing.T) {
	a := NewSpeakingAgent(&fakeCompleter{}, gemini.GenerationConfig{}, &fakeTranscriber{err: errors.New("no speech")}, nil)

	before := a.History()
	reply := a.RespondAudio(context.Background(), []byte{1})
	assert.Equal(t, sttFallback, reply.Text)
	assert.Empty(t, reply.Heard)
	assert.Equal(t, before, a.History(), "failed transcription must not touch the transcript")
}

func TestSpeakingHistoryWindowBoundsPrompt(t *testing.T) {
	fake := &fakeCompleter{reply: "ok"}
	a := NewSpeakingAgent(fake, gemini.GenerationConfig{}, nil, nil)

	for i := 0; i < 30; i++ {
		a.RespondText(context.Background(), "turn")
	}

	last := fake.prompts[len(fake.prompts)-1]
	// 2*maxHistoryTurns turns rendered, one line each, plus the
	// instruction header and trailing cue.
	assert.NotContains(t, last, Greeting, "old turns must age out of the prompt window")

	history := a.History()
	assert.Equal(t, 61, len(history), "the transcript itself is never truncated")
}

func TestSpeakingRunSpeakOperation(t *testing.T) {
	fake := &fakeCompleter{reply: "Sure!"}
	a := NewSpeakingAgent(fake, gemini.GenerationConfig{}, nil, nil)

	res := a.Run(context.Background(), OpSpeak, Params{"message": "let's talk"})
	require.True(t, res.OK())
	assert.Equal(t, "Sure!", res.Content)

	res = a.Run(context.Background(), OpSpeak, Params{})
	assert.False(t, res.OK())
}
