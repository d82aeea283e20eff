// Package retrieval builds the ephemeral per-request vector store that
// grounds document synthesis in actual repository content.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/repo-expounder/internal/chunking"
)

// DefaultUploadConcurrency bounds simultaneous chunk uploads. Small on
// purpose; upstream throttles aggressive fan-out.
const DefaultUploadConcurrency = 6

// uploadAPI is the slice of the OpenAI client the builder needs.
type uploadAPI interface {
	CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	CreateVectorStore(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error)
	DeleteVectorStore(ctx context.Context, vectorStoreID string) (openai.VectorStoreDeleteResponse, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Index identifies one ephemeral retrieval index and the uploaded units it
// references. Valid for a single generation request.
type Index struct {
	ID      string
	FileIDs []string
}

// Builder uploads content chunks and assembles them into a vector store.
type Builder struct {
	api uploadAPI

	// Concurrency bounds parallel uploads; defaults to
	// DefaultUploadConcurrency when non-positive.
	Concurrency int
}

// NewBuilder wraps an OpenAI client.
func NewBuilder(client *openai.Client) *Builder {
	return &Builder{api: client, Concurrency: DefaultUploadConcurrency}
}

// Build uploads every chunk as an independently retrievable unit and, once
// all uploads have completed, creates one vector store referencing them. The
// first upload failure aborts the batch and already-uploaded units are
// discarded best-effort.
func (b *Builder) Build(ctx context.Context, name string, chunks []chunking.Chunk) (*Index, error) {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultUploadConcurrency
	}

	var mu sync.Mutex
	fileIDs := make([]string, 0, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			uploadName := chunkUploadName(chunk)
			file, err := b.api.CreateFileBytes(gCtx, openai.FileBytesRequest{
				Name:    uploadName,
				Bytes:   []byte(chunk.Data),
				Purpose: openai.PurposeAssistants,
			})
			if err != nil {
				return &UploadError{Name: uploadName, Err: err}
			}
			mu.Lock()
			fileIDs = append(fileIDs, file.ID)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.deleteFiles(fileIDs)
		return nil, err
	}

	store, err := b.api.CreateVectorStore(ctx, openai.VectorStoreRequest{
		Name:    name,
		FileIDs: fileIDs,
	})
	if err != nil {
		b.deleteFiles(fileIDs)
		return nil, &IndexCreationError{Err: err}
	}

	return &Index{ID: store.ID, FileIDs: fileIDs}, nil
}

// Cleanup discards the index and its uploaded units. Best-effort: the index
// is ephemeral and failures here only leak upstream storage, so they are
// logged and swallowed.
func (b *Builder) Cleanup(idx *Index) {
	if idx == nil {
		return
	}
	if _, err := b.api.DeleteVectorStore(context.Background(), idx.ID); err != nil {
		log.Printf("Warning: failed to delete vector store %s: %v", idx.ID, err)
	}
	b.deleteFiles(idx.FileIDs)
}

func (b *Builder) deleteFiles(fileIDs []string) {
	for _, id := range fileIDs {
		if err := b.api.DeleteFile(context.Background(), id); err != nil {
			log.Printf("Warning: failed to delete uploaded file %s: %v", id, err)
		}
	}
}

// chunkUploadName flattens the owning path and appends the sequence index so
// every uploaded unit has a distinct, plain-text name.
func chunkUploadName(c chunking.Chunk) string {
	return fmt.Sprintf("%s.%d.txt", strings.ReplaceAll(c.Path, "/", "_"), c.Index)
}

// IndexName derives the per-request vector store name.
func IndexName(owner, repo string, millis int64) string {
	return fmt.Sprintf("repo_%s_%s_%d", owner, repo, millis)
}
