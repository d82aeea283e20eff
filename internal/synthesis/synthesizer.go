// Package synthesis issues the structured-generation call that turns an
// uploaded repository index into a typed README block sequence.
package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/jonathan/repo-expounder/internal/schemas"
	"github.com/jonathan/repo-expounder/internal/types"
)

// DefaultModel is the reasoning model used for README synthesis.
const DefaultModel = "o4-mini"

const defaultPollInterval = 2 * time.Second

// assistantAPI is the slice of the OpenAI client the synthesizer needs.
type assistantAPI interface {
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	DeleteAssistant(ctx context.Context, assistantID string) (openai.AssistantDeleteResponse, error)
	CreateThreadAndRun(ctx context.Context, request openai.CreateThreadAndRunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

// Synthesizer generates a schema-valid block sequence for one repository.
// The underlying model call is not idempotent: repeated calls on the same
// index may yield different block sequences.
type Synthesizer struct {
	api   assistantAPI
	model string

	// PollInterval controls run status polling; tests shorten it.
	PollInterval time.Duration
}

// New wraps an OpenAI client. An empty model selects DefaultModel.
func New(client *openai.Client, model string) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	return &Synthesizer{api: client, model: model, PollInterval: defaultPollInterval}
}

// Generate runs one file-search-augmented structured generation over the
// given retrieval index and returns the validated block sequence. The raw
// model output must be valid JSON matching the README schema; anything else
// is a *SchemaViolationError.
func (s *Synthesizer) Generate(ctx context.Context, ownerRepo, description, indexID string) ([]types.ReadmeBlock, error) {
	name := "repo-expounder"
	instructions := systemInstruction(ownerRepo, description)

	assistant, err := s.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        s.model,
		Name:         &name,
		Instructions: &instructions,
		Tools: []openai.AssistantTool{
			{Type: openai.AssistantToolTypeFileSearch},
		},
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{indexID},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	defer func() {
		if _, err := s.api.DeleteAssistant(context.Background(), assistant.ID); err != nil {
			log.Printf("Warning: failed to delete assistant %s: %v", assistant.ID, err)
		}
	}()

	run, err := s.api.CreateThreadAndRun(ctx, openai.CreateThreadAndRunRequest{
		RunRequest: openai.RunRequest{AssistantID: assistant.ID},
		Thread: openai.ThreadRequest{
			Messages: []openai.ThreadMessage{
				{
					Role:    openai.ThreadMessageRoleUser,
					Content: "Generate the structured README document for " + ownerRepo + " now.",
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start generation run: %w", err)
	}

	run, err = s.awaitRun(ctx, run)
	if err != nil {
		return nil, err
	}

	text, err := s.replyText(ctx, run)
	if err != nil {
		return nil, err
	}

	return decodeBlocks(text)
}

// awaitRun polls the run until it reaches a terminal status.
func (s *Synthesizer) awaitRun(ctx context.Context, run openai.Run) (openai.Run, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return run, nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired,
			openai.RunStatusIncomplete, openai.RunStatusRequiresAction:
			reason := string(run.Status)
			if run.LastError != nil {
				reason = fmt.Sprintf("%s: %s", run.Status, run.LastError.Message)
			}
			return run, fmt.Errorf("generation run ended without output (%s)", reason)
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(interval):
		}

		var err error
		run, err = s.api.RetrieveRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return run, fmt.Errorf("poll generation run: %w", err)
		}
	}
}

// replyText extracts the assistant's text output from the completed run.
func (s *Synthesizer) replyText(ctx context.Context, run openai.Run) (string, error) {
	msgs, err := s.api.ListMessage(ctx, run.ThreadID, nil, nil, nil, nil, &run.ID)
	if err != nil {
		return "", fmt.Errorf("list run messages: %w", err)
	}

	for _, msg := range msgs.Messages {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Text != nil && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}
	return "", &SchemaViolationError{Reason: "no text content found in model response"}
}

// decodeBlocks validates the raw model output against the README schema and
// decodes it into typed blocks.
func decodeBlocks(raw string) ([]types.ReadmeBlock, error) {
	clean := cleanJSONBlock(raw)

	if err := schemas.ValidateReadme(clean); err != nil {
		return nil, &SchemaViolationError{Reason: "output does not match README schema", Err: err}
	}

	doc, err := types.DecodeDocument([]byte(clean))
	if err != nil {
		return nil, &SchemaViolationError{Reason: "output could not be decoded", Err: err}
	}
	return doc.Blocks, nil
}

// cleanJSONBlock removes markdown code fence wrappers models sometimes add
// despite instructions.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
