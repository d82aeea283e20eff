package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/repo-expounder/internal/chunking"
	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/retrieval"
	"github.com/jonathan/repo-expounder/internal/types"
)

type fakeFetcher struct {
	files []github.FileContent
	err   error
}

func (f *fakeFetcher) FetchFiles(_ context.Context, _, _, _ string) ([]github.FileContent, error) {
	return f.files, f.err
}

type fakeBuilder struct {
	builtName   string
	builtChunks []chunking.Chunk
	buildErr    error
	cleanedUp   bool
}

func (b *fakeBuilder) Build(_ context.Context, name string, chunks []chunking.Chunk) (*retrieval.Index, error) {
	b.builtName = name
	b.builtChunks = chunks
	if b.buildErr != nil {
		return nil, b.buildErr
	}
	fileIDs := make([]string, len(chunks))
	for i := range chunks {
		fileIDs[i] = "file-" + chunks[i].Path
	}
	return &retrieval.Index{ID: "vs_test", FileIDs: fileIDs}, nil
}

func (b *fakeBuilder) Cleanup(_ *retrieval.Index) {
	b.cleanedUp = true
}

type fakeSynthesizer struct {
	gotOwnerRepo   string
	gotDescription string
	gotIndexID     string
	blocks         []types.ReadmeBlock
	err            error
}

func (s *fakeSynthesizer) Generate(_ context.Context, ownerRepo, description, indexID string) ([]types.ReadmeBlock, error) {
	s.gotOwnerRepo = ownerRepo
	s.gotDescription = description
	s.gotIndexID = indexID
	return s.blocks, s.err
}

type fakeStore struct {
	uploadedKey     types.DocumentKey
	uploadedContent string
	uploads         int
	err             error
}

func (st *fakeStore) Upload(_ context.Context, key types.DocumentKey, content string) error {
	st.uploads++
	st.uploadedKey = key
	st.uploadedContent = content
	return st.err
}

func fixedNow() time.Time {
	return time.UnixMilli(1700000000000)
}

func sampleBlocks() []types.ReadmeBlock {
	return []types.ReadmeBlock{
		{Type: types.BlockHeading, Level: 1, Text: "widgets"},
		{Type: types.BlockParagraph, Text: "A widget toolkit."},
		{Type: types.BlockCode, Language: "go", Code: "func main() {}"},
	}
}

func newTestPipeline(fetcher *fakeFetcher, builder *fakeBuilder, synth *fakeSynthesizer, store *fakeStore) *Pipeline {
	p := &Pipeline{
		Fetcher:     fetcher,
		Builder:     builder,
		Synthesizer: synth,
		Now:         fixedNow,
	}
	if store != nil {
		p.Store = store
	}
	return p
}

func TestRun_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{
		{Path: "main.go", Text: "package main\n"},
		{Path: "docs/usage.md", Text: "# Usage\n"},
		{Path: "go.mod", Text: "module widgets\n"},
	}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}
	store := &fakeStore{}

	p := newTestPipeline(fetcher, builder, synth, store)

	result, err := p.Run(context.Background(), RunOptions{
		UserID:      "u1",
		Owner:       "acme",
		Repo:        "widgets",
		Description: "A widget toolkit",
	})
	require.NoError(t, err)

	// All three files become chunks, in tree order.
	require.Len(t, builder.builtChunks, 3)
	assert.Equal(t, "main.go", builder.builtChunks[0].Path)
	assert.Equal(t, "docs/usage.md", builder.builtChunks[1].Path)
	assert.Equal(t, "repo_acme_widgets_1700000000000", builder.builtName)

	// Synthesis sees the index and the request context.
	assert.Equal(t, "acme/widgets", synth.gotOwnerRepo)
	assert.Equal(t, "A widget toolkit", synth.gotDescription)
	assert.Equal(t, "vs_test", synth.gotIndexID)

	// Rendered markdown comes from the generated blocks.
	assert.Contains(t, result.Markdown, "# widgets")
	assert.Contains(t, result.Markdown, "A widget toolkit.")
	assert.Equal(t, 3, result.FileCount)
	assert.Equal(t, sampleBlocks(), result.Blocks)

	// The document is persisted under the request's key.
	assert.True(t, result.Persisted)
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, types.DocumentKey{
		UserID:    "u1",
		Owner:     "acme",
		Repo:      "widgets",
		Timestamp: "1700000000000",
	}, store.uploadedKey)
	assert.Equal(t, result.Markdown, store.uploadedContent)
	assert.Equal(t, "/expounder/README`u1`acme`widgets`1700000000000.md", result.StoredPath)

	// The ephemeral index is always discarded.
	assert.True(t, builder.cleanedUp)
}

func TestRun_UploadFailureIsNonFatal(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "main.go", Text: "package main\n"}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}
	store := &fakeStore{err: errors.New("dropbox unavailable")}

	p := newTestPipeline(fetcher, builder, synth, store)

	result, err := p.Run(context.Background(), RunOptions{UserID: "u1", Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)

	assert.False(t, result.Persisted)
	assert.Empty(t, result.StoredPath)
	assert.NotEmpty(t, result.Markdown)
	assert.Equal(t, 1, store.uploads)
}

func TestRun_NoStoreSkipsPersistence(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "main.go", Text: "package main\n"}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}

	p := newTestPipeline(fetcher, builder, synth, nil)

	result, err := p.Run(context.Background(), RunOptions{UserID: "u1", Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)
	assert.False(t, result.Persisted)
}

func TestRun_NoUserSkipsPersistence(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "main.go", Text: "package main\n"}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}
	store := &fakeStore{}

	p := newTestPipeline(fetcher, builder, synth, store)

	result, err := p.Run(context.Background(), RunOptions{Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Zero(t, store.uploads)
}

func TestRun_EmptyRepositoryFails(t *testing.T) {
	fetcher := &fakeFetcher{}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}

	p := newTestPipeline(fetcher, builder, synth, nil)

	_, err := p.Run(context.Background(), RunOptions{Owner: "acme", Repo: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no readable files")
	assert.Empty(t, builder.builtName, "index should not be built for empty repositories")
}

func TestRun_SynthesisFailureStillCleansUpIndex(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "main.go", Text: "package main\n"}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{err: errors.New("run ended without output")}

	p := newTestPipeline(fetcher, builder, synth, nil)

	_, err := p.Run(context.Background(), RunOptions{Owner: "acme", Repo: "widgets"})
	require.Error(t, err)
	assert.True(t, builder.cleanedUp)
}

func TestRun_LargeFilesAreChunked(t *testing.T) {
	big := strings.Repeat("x", 250)
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "big.txt", Text: big}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}

	p := newTestPipeline(fetcher, builder, synth, nil)
	p.ChunkBytes = 100

	_, err := p.Run(context.Background(), RunOptions{Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)

	require.Len(t, builder.builtChunks, 3)
	var joined strings.Builder
	for i, chunk := range builder.builtChunks {
		assert.Equal(t, "big.txt", chunk.Path)
		assert.Equal(t, i, chunk.Index)
		joined.WriteString(chunk.Data)
	}
	assert.Equal(t, big, joined.String())
}

func TestRun_EmitsProgressEvents(t *testing.T) {
	fetcher := &fakeFetcher{files: []github.FileContent{{Path: "main.go", Text: "package main\n"}}}
	builder := &fakeBuilder{}
	synth := &fakeSynthesizer{blocks: sampleBlocks()}
	store := &fakeStore{}

	p := newTestPipeline(fetcher, builder, synth, store)

	var steps []string
	_, err := p.Run(context.Background(), RunOptions{
		UserID: "u1",
		Owner:  "acme",
		Repo:   "widgets",
		OnProgress: func(event ProgressEvent) {
			steps = append(steps, event.Step)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{StepFetch, StepChunk, StepIndex, StepSynthesize, StepRender, StepPersist}, steps)
}
