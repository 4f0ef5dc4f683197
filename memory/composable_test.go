package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/chatmem/memory"
	"github.com/BaSui01/chatmem/testutil/mocks"
	"github.com/BaSui01/chatmem/types"
)

func TestNew_SourceOrder(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource()
	second := mocks.NewMockSource()
	third := mocks.NewMockSource()

	mem, err := memory.New(primary, second, third)
	require.NoError(t, err)

	assert.Same(t, memory.Source(primary), mem.Primary())
	secondary := mem.SecondarySources()
	require.Len(t, secondary, 2)
	assert.Same(t, memory.Source(second), secondary[0])
	assert.Same(t, memory.Source(third), secondary[1])
}

func TestNew_NoSources(t *testing.T) {
	t.Parallel()

	_, err := memory.New()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestNewFromDefaults(t *testing.T) {
	t.Parallel()

	mem, err := memory.NewFromDefaults(nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.ChatBuffer{}, mem.Primary())
	assert.Empty(t, mem.SecondarySources())

	src := mocks.NewMockSource()
	mem, err = memory.NewFromDefaults([]memory.Source{src})
	require.NoError(t, err)
	assert.Same(t, memory.Source(src), mem.Primary())
}

func TestGet_EmptySecondaries_ReturnsPrimaryUnmodified(t *testing.T) {
	t.Parallel()

	history := []types.Message{
		types.NewUserMessage("hi"),
		types.NewAssistantMessage("hello"),
	}
	primary := mocks.NewMockSource().WithMessages(history)
	secondary := mocks.NewMockSource()

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	got, err := mem.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.RoleUser, got[0].Role)
	assert.Equal(t, "hi", got[0].Content)
}

func TestGet_EmptyPrimary_InsertsSystemMessage(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource()
	secondary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewUserMessage("what is my name?"),
		types.NewAssistantMessage("Your name is Bob."),
	})

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	got, err := mem.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.RoleSystem, got[0].Role)
	assert.True(t, strings.HasPrefix(got[0].Content, memory.DefaultSystemPreamble))
	assert.Contains(t, got[0].Content, memory.DefaultIntroHistoryMessage)
	assert.Contains(t, got[0].Content, "ASSISTANT: Your name is Bob.")
	assert.True(t, strings.HasSuffix(got[0].Content, memory.DefaultOutroHistoryMessage))
}

func TestGet_MergesIntoLeadingSystemMessage(t *testing.T) {
	t.Parallel()

	primaryHistory := []types.Message{
		types.NewSystemMessage("You are an agent with tools."),
		types.NewUserMessage("hi"),
		types.NewAssistantMessage("hello"),
	}
	secondaryHistory := []types.Message{
		types.NewUserMessage("remember the code is 42"),
	}
	primary := mocks.NewMockSource().WithMessages(primaryHistory)
	secondary := mocks.NewMockSource().WithMessages(secondaryHistory)

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	got, err := mem.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	block := memory.FormatSecondaryHistories([][]types.Message{secondaryHistory})
	assert.Equal(t, types.RoleSystem, got[0].Role)
	assert.Equal(t, "You are an agent with tools."+block, got[0].Content)

	// Remaining primary messages are untouched and in order.
	assert.Equal(t, "hi", got[1].Content)
	assert.Equal(t, "hello", got[2].Content)
}

func TestGet_DoesNotMutateSources(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewSystemMessage("base prompt"),
	})
	secondary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewUserMessage("context"),
	})

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	_, err = mem.Get(context.Background())
	require.NoError(t, err)

	stored := primary.Messages()
	require.Len(t, stored, 1)
	assert.Equal(t, "base prompt", stored[0].Content)
}

func TestGet_Idempotent(t *testing.T) {
	t.Parallel()

	secondaryHistory := []types.Message{
		types.NewAssistantMessage("Your name is Bob."),
	}
	primary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewSystemMessage("You are an agent."),
		types.NewUserMessage("hi"),
	})
	secondary := mocks.NewMockSource().WithMessages(secondaryHistory)

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	first, err := mem.Get(context.Background())
	require.NoError(t, err)

	// Simulate the composed history being persisted back into the primary,
	// as happens when a caller runs Set with the result of Get.
	require.NoError(t, primary.Set(context.Background(), first))

	second, err := mem.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first[0].Content, second[0].Content)
	assert.Equal(t, 1, strings.Count(second[0].Content, memory.DefaultIntroHistoryMessage))
}

func TestGet_ForwardsOptions(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource()
	secondary := mocks.NewMockSource()

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	_, err = mem.Get(context.Background(), memory.WithQuery("what is the code?"), memory.WithTopK(3))
	require.NoError(t, err)

	for _, src := range []*mocks.MockSource{primary, secondary} {
		opts := src.LastGetOptions()
		assert.Equal(t, "what is the code?", opts.Query)
		assert.Equal(t, 3, opts.TopK)
	}
}

func TestGet_ReadErrorAbortsComposition(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")

	primary := mocks.NewMockSource().WithGetError(boom)
	mem, err := memory.New(primary)
	require.NoError(t, err)

	_, err = mem.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrSourceRead, types.GetErrorCode(err))
	assert.Equal(t, 0, types.GetSourceIndex(err))
	assert.True(t, errors.Is(err, boom))

	primary = mocks.NewMockSource()
	secondary := mocks.NewMockSource().WithGetError(boom)
	mem, err = memory.New(primary, secondary)
	require.NoError(t, err)

	_, err = mem.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrSourceRead, types.GetErrorCode(err))
	assert.Equal(t, 1, types.GetSourceIndex(err))
}

func TestGetAll_PrimaryOnly(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewUserMessage("only in primary"),
	})
	secondary := mocks.NewMockSource().WithMessages([]types.Message{
		types.NewUserMessage("only in secondary"),
	})

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	got, err := mem.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only in primary", got[0].Content)
	assert.Zero(t, secondary.GetCalls())
}

func TestPut_FansOutToAllSources(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource()
	second := mocks.NewMockSource()
	third := mocks.NewMockSource()

	mem, err := memory.New(primary, second, third)
	require.NoError(t, err)

	msg := types.NewUserMessage("remember this")
	require.NoError(t, mem.Put(context.Background(), msg))

	for _, src := range []*mocks.MockSource{primary, second, third} {
		stored, err := src.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "remember this", stored[0].Content)
	}
}

func TestSet_PartialFailureIdentifiesSource(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")

	primary := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("old")})
	failing := mocks.NewMockSource().WithSetError(boom)
	third := mocks.NewMockSource()

	mem, err := memory.New(primary, failing, third)
	require.NoError(t, err)

	replacement := []types.Message{types.NewUserMessage("new")}
	err = mem.Set(context.Background(), replacement)
	require.Error(t, err)
	assert.Equal(t, types.ErrSourceWrite, types.GetErrorCode(err))
	assert.Equal(t, 1, types.GetSourceIndex(err))
	assert.True(t, errors.Is(err, boom))

	// The primary overwrite already took effect; the third was never reached.
	stored, err := primary.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "new", stored[0].Content)
	assert.Zero(t, third.SetCalls())
}

func TestPut_FailureOnPrimary(t *testing.T) {
	t.Parallel()

	boom := errors.New("closed")
	primary := mocks.NewMockSource().WithPutError(boom)
	secondary := mocks.NewMockSource()

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	err = mem.Put(context.Background(), types.NewUserMessage("x"))
	require.Error(t, err)
	assert.Equal(t, 0, types.GetSourceIndex(err))
	assert.Zero(t, secondary.PutCalls())
}

func TestReset_PrimaryOnly(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("p")})
	secondary := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("s")})

	mem, err := memory.New(primary, secondary)
	require.NoError(t, err)

	require.NoError(t, mem.Reset(context.Background()))

	assert.Empty(t, primary.Messages())
	stored, err := secondary.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "s", stored[0].Content)
}

func TestResetAll(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("p")})
	second := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("s1")})
	third := mocks.NewMockSource().WithMessages([]types.Message{types.NewUserMessage("s2")})

	mem, err := memory.New(primary, second, third)
	require.NoError(t, err)

	require.NoError(t, mem.ResetAll(context.Background()))

	for _, src := range []*mocks.MockSource{primary, second, third} {
		assert.Empty(t, src.Messages())
	}
}
