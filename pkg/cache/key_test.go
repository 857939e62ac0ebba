package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("vocabulary", "explain_word", map[string]string{"word": "cat", "level": "beginner"})
	b := Key("vocabulary", "explain_word", map[string]string{"level": "beginner", "word": "cat"})
	assert.Equal(t, a, b, "parameter insertion order must not matter")
	assert.Contains(t, a, "resp_cache:")
}

func TestKeyDiscriminates(t *testing.T) {
	base := Key("vocabulary", "explain_word", map[string]string{"word": "cat"})

	assert.NotEqual(t, base, Key("grammar", "explain_word", map[string]string{"word": "cat"}))
	assert.NotEqual(t, base, Key("vocabulary", "words_by_topic", map[string]string{"word": "cat"}))
	assert.NotEqual(t, base, Key("vocabulary", "explain_word", map[string]string{"word": "dog"}))
}
