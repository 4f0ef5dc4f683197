package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/chatmem/types"
)

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimatorTokenizer("generic", 0)

	n, err := e.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// 16 ASCII chars at ~4 chars/token.
	n, err = e.CountTokens("abcdefghijklmnop")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// CJK counts denser than ASCII.
	ascii, err := e.CountTokens("abcd")
	require.NoError(t, err)
	cjk, err := e.CountTokens("你好世界")
	require.NoError(t, err)
	assert.Greater(t, cjk, ascii)
}

func TestEstimator_CountMessages(t *testing.T) {
	e := NewEstimatorTokenizer("generic", 0)

	msgs := []types.Message{
		types.NewUserMessage("abcdefgh"),
		types.NewAssistantMessage("ijklmnop"),
	}
	n, err := e.CountMessages(msgs)
	require.NoError(t, err)
	// 2 tokens per message + 4 overhead each + 3 conversation-end.
	assert.Equal(t, 2+4+2+4+3, n)
}

func TestEstimator_Defaults(t *testing.T) {
	e := NewEstimatorTokenizer("generic", 0)
	assert.Equal(t, 4096, e.MaxTokens())
	assert.Equal(t, "estimator", e.Name())
}

func TestRegistry_PrefixMatch(t *testing.T) {
	e := NewEstimatorTokenizer("test-model", 0)
	RegisterTokenizer("test-model", e)

	got, err := GetTokenizer("test-model-mini")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = GetTokenizer("unknown-model")
	require.Error(t, err)

	fallback := GetTokenizerOrEstimator("unknown-model")
	assert.Equal(t, "estimator", fallback.Name())
}
