package memory_test

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/chatmem/memory"
	"github.com/BaSui01/chatmem/testutil/mocks"
	"github.com/BaSui01/chatmem/types"
)

// TestProperty_Composition_Idempotent checks that re-composing over an
// already-composed history never stacks injection blocks: feeding the result
// of Get back into the primary and calling Get again yields the identical
// leading system message.
func TestProperty_Composition_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()

		// System content must not naturally contain the marker sentence;
		// that known sharp edge is excluded by construction.
		systemContent := rapid.StringMatching(`[A-Za-z0-9 .,!?-]{0,80}`).Draw(rt, "systemContent")

		numSecondary := rapid.IntRange(1, 3).Draw(rt, "numSecondary")
		sources := []memory.Source{
			mocks.NewMockSource().WithMessages([]types.Message{
				types.NewSystemMessage(systemContent),
				types.NewUserMessage("hi"),
			}),
		}
		var histories [][]types.Message
		for i := 0; i < numSecondary; i++ {
			n := rapid.IntRange(0, 4).Draw(rt, "historyLen")
			var history []types.Message
			for j := 0; j < n; j++ {
				content := rapid.StringMatching(`[A-Za-z0-9 ]{1,40}`).Draw(rt, "content")
				history = append(history, types.NewUserMessage(content))
			}
			if len(history) > 0 {
				histories = append(histories, history)
			}
			sources = append(sources, mocks.NewMockSource().WithMessages(history))
		}

		mem, err := memory.New(sources...)
		require.NoError(rt, err)

		first, err := mem.Get(ctx)
		require.NoError(rt, err)

		if len(histories) == 0 {
			// Nothing to inject: the primary history comes back unmodified.
			require.Equal(rt, systemContent, first[0].Content)
			return
		}

		expected := strings.TrimRightFunc(systemContent, unicode.IsSpace) +
			memory.FormatSecondaryHistories(histories)
		require.Equal(rt, expected, first[0].Content)

		// Persist the composed history and re-compose.
		require.NoError(rt, mem.Primary().Set(ctx, first))

		second, err := mem.Get(ctx)
		require.NoError(rt, err)
		require.Equal(rt, first[0].Content, second[0].Content)
		require.Equal(rt, 1, strings.Count(second[0].Content, memory.DefaultIntroHistoryMessage))
	})
}
