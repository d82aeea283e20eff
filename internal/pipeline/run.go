// Package pipeline provides the high-level orchestration for README
// generation: fetch repository content, build a retrieval index, synthesize
// structured blocks, render markdown, and persist the result.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jonathan/repo-expounder/internal/chunking"
	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/rendering"
	"github.com/jonathan/repo-expounder/internal/retrieval"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/types"
)

// Step names reported through progress events.
const (
	StepFetch      = "fetch"
	StepChunk      = "chunk"
	StepIndex      = "index"
	StepSynthesize = "synthesize"
	StepRender     = "render"
	StepPersist    = "persist"
)

// ProgressEvent represents a progress update during pipeline execution.
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs.
type ProgressCallback func(event ProgressEvent)

// ContentFetcher retrieves the filtered file contents of a repository.
type ContentFetcher interface {
	FetchFiles(ctx context.Context, owner, repo, ref string) ([]github.FileContent, error)
}

// IndexBuilder assembles uploaded chunks into an ephemeral retrieval index.
type IndexBuilder interface {
	Build(ctx context.Context, name string, chunks []chunking.Chunk) (*retrieval.Index, error)
	Cleanup(idx *retrieval.Index)
}

// BlockSynthesizer turns a retrieval index into a validated block sequence.
type BlockSynthesizer interface {
	Generate(ctx context.Context, ownerRepo, description, indexID string) ([]types.ReadmeBlock, error)
}

// DocumentStore persists rendered markdown. A nil store disables
// persistence.
type DocumentStore interface {
	Upload(ctx context.Context, key types.DocumentKey, content string) error
}

// RunOptions holds the per-request inputs for one generation.
type RunOptions struct {
	// UserID namespaces the stored document. Generation without a user ID
	// succeeds but the result is not persisted.
	UserID string

	Owner string
	Repo  string

	// Ref pins the tree to a branch or commit; empty means the default
	// branch.
	Ref string

	// Description is optional free-text context passed to synthesis.
	Description string

	OnProgress ProgressCallback
}

// Result is the outcome of one pipeline run.
type Result struct {
	Key       types.DocumentKey   `json:"key"`
	Blocks    []types.ReadmeBlock `json:"blocks"`
	Markdown  string              `json:"markdown"`
	FileCount int                 `json:"file_count"`
	Persisted bool                `json:"persisted"`

	// StoredPath is the storage path of the uploaded document; empty when
	// persistence was disabled or failed.
	StoredPath string `json:"stored_path,omitempty"`
}

// Pipeline wires the generation stages together. Stage implementations are
// injected so the orchestration can be tested without network access.
type Pipeline struct {
	Fetcher     ContentFetcher
	Builder     IndexBuilder
	Synthesizer BlockSynthesizer
	Store       DocumentStore

	// ChunkBytes is the content chunk size; non-positive selects the
	// default.
	ChunkBytes int

	// Now supplies the timestamp that keys the stored document.
	Now func() time.Time
}

// emitProgress calls the progress callback if configured.
func emitProgress(opts *RunOptions, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// Run executes the full generation pipeline for one repository. The
// retrieval index is ephemeral and is discarded before Run returns,
// regardless of outcome. Storage upload failure is non-fatal: the generated
// document is still returned, with Persisted false.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	ownerRepo := opts.Owner + "/" + opts.Repo

	files, err := p.Fetcher.FetchFiles(ctx, opts.Owner, opts.Repo, opts.Ref)
	if err != nil {
		return nil, fmt.Errorf("fetching repository content: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("repository %s has no readable files to summarize", ownerRepo)
	}
	emitProgress(&opts, StepFetch, fmt.Sprintf("Fetched %d files from %s", len(files), ownerRepo), nil)

	var chunks []chunking.Chunk
	for _, file := range files {
		for chunk := range chunking.File(file.Path, file.Text, p.ChunkBytes) {
			chunks = append(chunks, chunk)
		}
	}
	emitProgress(&opts, StepChunk, fmt.Sprintf("Split content into %d chunks", len(chunks)), nil)

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	millis := now().UnixMilli()

	idx, err := p.Builder.Build(ctx, retrieval.IndexName(opts.Owner, opts.Repo, millis), chunks)
	if err != nil {
		return nil, fmt.Errorf("building retrieval index: %w", err)
	}
	defer p.Builder.Cleanup(idx)
	emitProgress(&opts, StepIndex, fmt.Sprintf("Indexed %d chunks", len(idx.FileIDs)), nil)

	blocks, err := p.Synthesizer.Generate(ctx, ownerRepo, opts.Description, idx.ID)
	if err != nil {
		return nil, fmt.Errorf("synthesizing document: %w", err)
	}
	emitProgress(&opts, StepSynthesize, fmt.Sprintf("Generated %d blocks", len(blocks)), blocks)

	markdown := rendering.Markdown(blocks)
	emitProgress(&opts, StepRender, fmt.Sprintf("Rendered %d bytes of markdown", len(markdown)), nil)

	result := &Result{
		Key: types.DocumentKey{
			UserID:    opts.UserID,
			Owner:     opts.Owner,
			Repo:      opts.Repo,
			Timestamp: strconv.FormatInt(millis, 10),
		},
		Blocks:    blocks,
		Markdown:  markdown,
		FileCount: len(files),
	}

	result.Persisted, result.StoredPath = p.persist(ctx, &opts, result.Key, markdown)
	return result, nil
}

// persist uploads the rendered document when a store and user are
// available. Failures only lose the stored copy, so they are logged and the
// run still succeeds.
func (p *Pipeline) persist(ctx context.Context, opts *RunOptions, key types.DocumentKey, markdown string) (bool, string) {
	if p.Store == nil || opts.UserID == "" {
		return false, ""
	}

	if err := p.Store.Upload(ctx, key, markdown); err != nil {
		log.Printf("Warning: failed to persist document for %s/%s: %v", key.Owner, key.Repo, err)
		emitProgress(opts, StepPersist, fmt.Sprintf("Persistence failed: %v", err), nil)
		return false, ""
	}

	path := storage.EncodePath(key)
	emitProgress(opts, StepPersist, "Stored document at "+path, nil)
	return true, path
}
