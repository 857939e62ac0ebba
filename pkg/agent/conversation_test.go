package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationGreetingIsFirstTurn(t *testing.T) {
	c := NewConversation("Hello!")
	turns := c.Turns()
	assert.Len(t, turns, 1)
	assert.Equal(t, RoleAssistant, turns[0].Role)
	assert.Equal(t, "Hello!", turns[0].Content)
}

func TestConversationRender(t *testing.T) {
	c := NewConversation("")
	c.Append(RoleUser, "hi")
	c.Append(RoleAssistant, "hello")
	c.Append(RoleUser, "how are you?")

	assert.Equal(t, "User: hi\nAssistant: hello\nUser: how are you?", c.Render(0))
	assert.Equal(t, "Assistant: hello\nUser: how are you?", c.Render(2))
	assert.Equal(t, "User: how are you?", c.Render(1))
}

func TestConversationAppendOnlyOrdering(t *testing.T) {
	c := NewConversation("greet")
	for i := 0; i < 5; i++ {
		c.Append(RoleUser, "u")
		c.Append(RoleAssistant, "a")
	}
	assert.Equal(t, 11, c.Len())

	turns := c.Turns()
	assert.Equal(t, "greet", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[10].Role)
}
