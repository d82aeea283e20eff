package server

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/jonathan/repo-expounder/internal/config"
	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/pipeline"
	"github.com/jonathan/repo-expounder/internal/retrieval"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/synthesis"
)

// pipelineGenerator is the production Generator. It shares one OpenAI client
// across requests but builds a GitHub client per request, since every
// request carries its own GitHub credential.
type pipelineGenerator struct {
	cfg    *config.Config
	openai *openai.Client
	store  *storage.Store
}

func newPipelineGenerator(cfg *config.Config, store *storage.Store) *pipelineGenerator {
	return &pipelineGenerator{
		cfg:    cfg,
		openai: openai.NewClient(cfg.OpenAIKey),
		store:  store,
	}
}

func (g *pipelineGenerator) Generate(ctx context.Context, githubToken string, opts pipeline.RunOptions) (*pipeline.Result, error) {
	fetcher := github.NewFetcher(github.NewClient(ctx, githubToken))
	fetcher.MaxBlobBytes = g.cfg.MaxBlobBytes
	fetcher.Concurrency = g.cfg.FetchConcurrency

	builder := retrieval.NewBuilder(g.openai)
	builder.Concurrency = g.cfg.UploadConcurrency

	p := &pipeline.Pipeline{
		Fetcher:     fetcher,
		Builder:     builder,
		Synthesizer: synthesis.New(g.openai, g.cfg.OpenAIModel),
		ChunkBytes:  g.cfg.ChunkBytes,
	}
	if g.store != nil {
		p.Store = g.store
	}

	return p.Run(ctx, opts)
}

// githubBrowser is the production RepoBrowser, again one client per request.
type githubBrowser struct{}

func (b *githubBrowser) ListRepos(ctx context.Context, token string) ([]github.Repo, error) {
	return github.NewClient(ctx, token).ListRepos(ctx)
}

func (b *githubBrowser) Tree(ctx context.Context, token, owner, repo, ref string) ([]*github.Node, error) {
	return github.NewFetcher(github.NewClient(ctx, token)).Tree(ctx, owner, repo, ref)
}
