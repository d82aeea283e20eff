package synthesis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/repo-expounder/internal/types"
)

const validReply = `{"blocks": [
	{"type": "heading", "level": 1, "text": "widgets"},
	{"type": "paragraph", "text": "A widget library."}
]}`

type fakeAssistantAPI struct {
	reply            string
	pollsUntilDone   int
	finalStatus      openai.RunStatus
	deletedAssistant string

	polls int
}

func (f *fakeAssistantAPI) CreateAssistant(_ context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	if req.ToolResources == nil || req.ToolResources.FileSearch == nil ||
		len(req.ToolResources.FileSearch.VectorStoreIDs) == 0 {
		return openai.Assistant{}, errors.New("missing vector store binding")
	}
	return openai.Assistant{ID: "asst-1"}, nil
}

func (f *fakeAssistantAPI) DeleteAssistant(_ context.Context, id string) (openai.AssistantDeleteResponse, error) {
	f.deletedAssistant = id
	return openai.AssistantDeleteResponse{ID: id}, nil
}

func (f *fakeAssistantAPI) CreateThreadAndRun(_ context.Context, req openai.CreateThreadAndRunRequest) (openai.Run, error) {
	return openai.Run{ID: "run-1", ThreadID: "thread-1", AssistantID: req.AssistantID, Status: openai.RunStatusQueued}, nil
}

func (f *fakeAssistantAPI) RetrieveRun(_ context.Context, threadID, runID string) (openai.Run, error) {
	f.polls++
	status := openai.RunStatusInProgress
	if f.polls >= f.pollsUntilDone {
		status = f.finalStatus
	}
	return openai.Run{ID: runID, ThreadID: threadID, Status: status}, nil
}

func (f *fakeAssistantAPI) ListMessage(_ context.Context, threadID string, _ *int, _ *string, _ *string, _ *string, _ *string) (openai.MessagesList, error) {
	return openai.MessagesList{
		Messages: []openai.Message{
			{
				Role: "assistant",
				Content: []openai.MessageContent{
					{Type: "text", Text: &openai.MessageText{Value: f.reply}},
				},
			},
		},
	}, nil
}

func newTestSynthesizer(api assistantAPI) *Synthesizer {
	return &Synthesizer{api: api, model: DefaultModel, PollInterval: time.Millisecond}
}

func TestGenerate_ReturnsValidatedBlocks(t *testing.T) {
	api := &fakeAssistantAPI{reply: validReply, pollsUntilDone: 2, finalStatus: openai.RunStatusCompleted}
	s := newTestSynthesizer(api)

	blocks, err := s.Generate(context.Background(), "acme/widgets", "", "vs-1")
	require.NoError(t, err)

	require.Len(t, blocks, 2)
	assert.Equal(t, types.BlockHeading, blocks[0].Type)
	assert.Equal(t, "widgets", blocks[0].Text)
	assert.Equal(t, "asst-1", api.deletedAssistant, "ephemeral assistant should be cleaned up")
}

func TestGenerate_StripsMarkdownFences(t *testing.T) {
	api := &fakeAssistantAPI{
		reply:          "```json\n" + validReply + "\n```",
		pollsUntilDone: 1,
		finalStatus:    openai.RunStatusCompleted,
	}
	s := newTestSynthesizer(api)

	blocks, err := s.Generate(context.Background(), "acme/widgets", "", "vs-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestGenerate_RejectsEmptyBlocks(t *testing.T) {
	api := &fakeAssistantAPI{reply: `{"blocks": []}`, pollsUntilDone: 1, finalStatus: openai.RunStatusCompleted}
	s := newTestSynthesizer(api)

	_, err := s.Generate(context.Background(), "acme/widgets", "", "vs-1")
	require.Error(t, err)

	var schemaErr *SchemaViolationError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestGenerate_RejectsNonJSON(t *testing.T) {
	api := &fakeAssistantAPI{reply: "Here is your README!", pollsUntilDone: 1, finalStatus: openai.RunStatusCompleted}
	s := newTestSynthesizer(api)

	_, err := s.Generate(context.Background(), "acme/widgets", "", "vs-1")
	require.Error(t, err)

	var schemaErr *SchemaViolationError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestGenerate_FailedRun(t *testing.T) {
	api := &fakeAssistantAPI{reply: validReply, pollsUntilDone: 1, finalStatus: openai.RunStatusFailed}
	s := newTestSynthesizer(api)

	_, err := s.Generate(context.Background(), "acme/widgets", "", "vs-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without output")
}

func TestCleanJSONBlock(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  \n```json\n{\"a\":1}\n```\n ": `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanJSONBlock(in))
	}
}

func TestSystemInstruction_IncludesRepoAndSchema(t *testing.T) {
	prompt := systemInstruction("acme/widgets", "a widget toolkit")
	assert.Contains(t, prompt, "acme/widgets")
	assert.Contains(t, prompt, "a widget toolkit")
	assert.Contains(t, prompt, `"blocks"`)
	assert.Contains(t, prompt, "omit")
}
