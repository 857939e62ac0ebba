package agent

import "strings"

// Role labels one side of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// Conversation is an append-only transcript owned by one dialogue
// session. It does not enforce strict alternation, only ordering, and
// no turn is ever removed; Render reads a bounded recent suffix.
// Concurrent mutation must be serialized by the owner.
type Conversation struct {
	turns []Turn
}

// NewConversation starts a transcript, seeding the assistant greeting
// as the first turn when one is configured.
func NewConversation(greeting string) *Conversation {
	c := &Conversation{}
	if greeting != "" {
		c.Append(RoleAssistant, greeting)
	}
	return c
}

// Append adds a turn to the end of the transcript.
func (c *Conversation) Append(role Role, content string) {
	c.turns = append(c.turns, Turn{Role: role, Content: content})
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Render produces a newline-joined transcript of the most recent
// maxTurns turns, counting both roles, each line prefixed by its role
// label. maxTurns <= 0 renders everything.
func (c *Conversation) Render(maxTurns int) string {
	turns := c.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "User"
		if t.Role == RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
