package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"

	"github.com/ndthanh/engmate/pkg/gemini"
	"github.com/ndthanh/engmate/pkg/speech"
)

const (
	// Greeting opens every speaking session.
	Greeting = "Hello! What would you like to talk about today?"

	// maxHistoryTurns bounds each side of the transcript rendered
	// into the prompt.
	maxHistoryTurns = 10

	sttFallback   = "Sorry, I couldn't understand what you said. Could you please try again?"
	replyFallback = "I'm sorry, I didn't quite catch that. Could you say it again?"
)

// SpeakingReply is one assistant turn in a speaking practice session.
type SpeakingReply struct {
	Heard     string `json:"heard,omitempty"` // transcription of audio input
	Text      string `json:"text"`
	AudioPath string `json:"audio_path,omitempty"`
}

// SpeakingAgent is the stateful dialogue agent: it owns one
// Conversation for its session and serializes turns internally, so
// concurrent requests for the same session cannot interleave the
// transcript. Speech engines are optional; their failures degrade to
// text-only replies or a fallback phrase, never an aborted turn.
type SpeakingAgent struct {
	base
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer

	mu   sync.Mutex
	conv *Conversation
}

// NewSpeakingAgent creates a speaking agent for one session.
// Transcriber and synthesizer may be nil.
func NewSpeakingAgent(c gemini.Completer, cfg gemini.GenerationConfig, t speech.Transcriber, s speech.Synthesizer) *SpeakingAgent {
	return &SpeakingAgent{
		base:        base{completer: c, cfg: cfg},
		transcriber: t,
		synthesizer: s,
		conv:        NewConversation(Greeting),
	}
}

func (a *SpeakingAgent) Name() string { return "speaking" }

// Run dispatches a text turn through the PromptAgent surface. The
// audio flow goes through RespondAudio directly.
func (a *SpeakingAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpSpeak:
		message := params.value("message", "")
		if strings.TrimSpace(message) == "" {
			return missingParam("message")
		}
		reply := a.RespondText(ctx, message)
		return TextResult(reply.Text, reply.Text)
	default:
		return unsupported(a.Name(), op)
	}
}

// Greet returns the session opener without consuming a user turn.
func (a *SpeakingAgent) Greet(ctx context.Context) SpeakingReply {
	return SpeakingReply{Text: Greeting, AudioPath: a.synthesize(ctx, Greeting)}
}

// RespondText handles one typed user turn.
func (a *SpeakingAgent) RespondText(ctx context.Context, message string) SpeakingReply {
	reply := a.respond(ctx, message)
	return SpeakingReply{Text: reply, AudioPath: a.synthesize(ctx, reply)}
}

// RespondAudio handles one spoken user turn. A transcription failure
// is a soft failure: the fallback phrase comes back and the transcript
// is left untouched.
func (a *SpeakingAgent) RespondAudio(ctx context.Context, audio []byte) SpeakingReply {
	if a.transcriber == nil {
		return SpeakingReply{Text: sttFallback, AudioPath: a.synthesize(ctx, sttFallback)}
	}
	heard, err := a.transcriber.Transcribe(ctx, audio)
	if err != nil || strings.TrimSpace(heard) == "" {
		if err != nil {
			log.WithError(err).Warn("speaking: transcription failed")
		}
		return SpeakingReply{Text: sttFallback, AudioPath: a.synthesize(ctx, sttFallback)}
	}

	reply := a.respond(ctx, heard)
	return SpeakingReply{Heard: heard, Text: reply, AudioPath: a.synthesize(ctx, reply)}
}

// History returns a copy of the session transcript.
func (a *SpeakingAgent) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.Turns()
}

// respond appends the user turn, generates the assistant turn against
// the bounded transcript and appends it. A generation failure yields
// the fallback phrase so the conversation keeps alternating.
func (a *SpeakingAgent) respond(ctx context.Context, message string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.conv.Append(RoleUser, message)
	transcript := a.conv.Render(2 * maxHistoryTurns)

	prompt := fmt.Sprintf(
		"You are a friendly English conversation partner helping a learner practice speaking.\n"+
			"Keep replies short, natural and encouraging, and gently rephrase the learner's mistakes.\n"+
			"Answer in plain prose with no markdown.\n\n%s\nAssistant:",
		transcript)

	raw, err := a.generate(ctx, prompt)
	reply := StripMarkup(raw)
	if err != nil || reply == "" {
		if err != nil {
			log.WithError(err).Error("speaking: generation failed")
		}
		reply = replyFallback
	}

	a.conv.Append(RoleAssistant, reply)
	return reply
}

// synthesize is best-effort: a missing or failing engine yields an
// empty path and the reply stays text-only.
func (a *SpeakingAgent) synthesize(ctx context.Context, text string) string {
	if a.synthesizer == nil {
		return ""
	}
	path, err := a.synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.WithError(err).Warn("speaking: synthesis failed")
		return ""
	}
	return path
}
