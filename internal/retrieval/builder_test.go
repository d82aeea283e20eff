package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/repo-expounder/internal/chunking"
)

type fakeUploadAPI struct {
	mu           sync.Mutex
	uploaded     []openai.FileBytesRequest
	deletedFiles []string
	deletedStore string

	failUploadName string
	failStore      bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeUploadAPI) CreateFileBytes(_ context.Context, req openai.FileBytesRequest) (openai.File, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxInFlight.Load()
		if cur <= seen || f.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}

	if req.Name == f.failUploadName {
		return openai.File{}, errors.New("boom")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, req)
	return openai.File{ID: fmt.Sprintf("file-%d", len(f.uploaded))}, nil
}

func (f *fakeUploadAPI) CreateVectorStore(_ context.Context, req openai.VectorStoreRequest) (openai.VectorStore, error) {
	if f.failStore {
		return openai.VectorStore{}, errors.New("store boom")
	}
	return openai.VectorStore{ID: "vs-1", Name: req.Name}, nil
}

func (f *fakeUploadAPI) DeleteVectorStore(_ context.Context, id string) (openai.VectorStoreDeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedStore = id
	return openai.VectorStoreDeleteResponse{ID: id, Deleted: true}, nil
}

func (f *fakeUploadAPI) DeleteFile(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFiles = append(f.deletedFiles, id)
	return nil
}

func chunksFor(n int) []chunking.Chunk {
	chunks := make([]chunking.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, chunking.Chunk{
			Path:  fmt.Sprintf("src/file%d.go", i),
			Index: 0,
			Data:  "package main",
		})
	}
	return chunks
}

func TestBuild_UploadsAllThenCreatesStore(t *testing.T) {
	api := &fakeUploadAPI{}
	b := &Builder{api: api, Concurrency: 3}

	idx, err := b.Build(context.Background(), "repo_acme_widgets_1", chunksFor(10))
	require.NoError(t, err)

	assert.Equal(t, "vs-1", idx.ID)
	assert.Len(t, idx.FileIDs, 10)
	assert.Len(t, api.uploaded, 10)
	for _, req := range api.uploaded {
		assert.Equal(t, openai.PurposeAssistants, req.Purpose)
	}
}

func TestBuild_RespectsConcurrencyLimit(t *testing.T) {
	api := &fakeUploadAPI{}
	b := &Builder{api: api, Concurrency: 2}

	_, err := b.Build(context.Background(), "idx", chunksFor(20))
	require.NoError(t, err)
	assert.LessOrEqual(t, api.maxInFlight.Load(), int32(2))
}

func TestBuild_UploadFailureAbortsBatch(t *testing.T) {
	api := &fakeUploadAPI{failUploadName: "src_file3.go.0.txt"}
	b := &Builder{api: api, Concurrency: 1}

	idx, err := b.Build(context.Background(), "idx", chunksFor(6))
	require.Error(t, err)
	assert.Nil(t, idx)

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.Equal(t, "src_file3.go.0.txt", uploadErr.Name)

	// No partial index: everything uploaded so far was discarded.
	assert.Empty(t, api.deletedStore)
	assert.Len(t, api.deletedFiles, len(api.uploaded))
}

func TestBuild_StoreFailure(t *testing.T) {
	api := &fakeUploadAPI{failStore: true}
	b := &Builder{api: api}

	_, err := b.Build(context.Background(), "idx", chunksFor(2))
	require.Error(t, err)

	var indexErr *IndexCreationError
	assert.True(t, errors.As(err, &indexErr))
	assert.Len(t, api.deletedFiles, 2)
}

func TestCleanup_DeletesStoreAndFiles(t *testing.T) {
	api := &fakeUploadAPI{}
	b := &Builder{api: api}

	b.Cleanup(&Index{ID: "vs-9", FileIDs: []string{"f1", "f2"}})
	assert.Equal(t, "vs-9", api.deletedStore)
	assert.Equal(t, []string{"f1", "f2"}, api.deletedFiles)
}

func TestChunkUploadName(t *testing.T) {
	name := chunkUploadName(chunking.Chunk{Path: "src/util/strings.go", Index: 2})
	assert.Equal(t, "src_util_strings.go.2.txt", name)
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "repo_acme_widgets_1700000000000", IndexName("acme", "widgets", 1700000000000))
}
