package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/jonathan/repo-expounder/internal/config"
	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/observability"
	"github.com/jonathan/repo-expounder/internal/pipeline"
	"github.com/jonathan/repo-expounder/internal/retrieval"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/synthesis"
)

var generateCmd = &cobra.Command{
	Use:   "generate <owner>/<repo>",
	Short: "Generate a README document for a repository",
	Long: `Runs the full generation pipeline for one repository: fetch content,
build a retrieval index, synthesize structured blocks, render markdown, and
(when Dropbox credentials and --user are set) store the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	generateRef         string
	generateDescription string
	generateUser        string
	generateGitHubToken string
	generateOutput      string
	generateVerbose     bool
)

func init() {
	generateCmd.Flags().StringVar(&generateRef, "ref", "", "Branch or commit to summarize (defaults to the default branch)")
	generateCmd.Flags().StringVarP(&generateDescription, "description", "d", "", "Extra context about the repository for the model")
	generateCmd.Flags().StringVarP(&generateUser, "user", "u", "", "User ID that owns the stored document (persistence is skipped without it)")
	generateCmd.Flags().StringVar(&generateGitHubToken, "github-token", "", "GitHub access token (optional, defaults to GITHUB_TOKEN env var)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the rendered markdown to a file instead of stdout")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("repository must be given as <owner>/<repo>, got %q", args[0])
	}

	githubToken := generateGitHubToken
	if githubToken == "" {
		githubToken = os.Getenv("GITHUB_TOKEN")
	}
	if githubToken == "" {
		return fmt.Errorf("a GitHub token is required (--github-token or GITHUB_TOKEN env var)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := openai.NewClient(cfg.OpenAIKey)

	fetcher := github.NewFetcher(github.NewClient(ctx, githubToken))
	fetcher.MaxBlobBytes = cfg.MaxBlobBytes
	fetcher.Concurrency = cfg.FetchConcurrency

	builder := retrieval.NewBuilder(client)
	builder.Concurrency = cfg.UploadConcurrency

	p := &pipeline.Pipeline{
		Fetcher:     fetcher,
		Builder:     builder,
		Synthesizer: synthesis.New(client, cfg.OpenAIModel),
		ChunkBytes:  cfg.ChunkBytes,
	}
	if generateUser != "" && cfg.StorageConfigured() {
		p.Store = storage.New(cfg.DropboxAppKey, cfg.DropboxAppSecret, cfg.DropboxRefreshToken)
	}

	opts := pipeline.RunOptions{
		UserID:      generateUser,
		Owner:       owner,
		Repo:        repo,
		Ref:         generateRef,
		Description: generateDescription,
	}
	if generateVerbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Step, event.Message)
		}
	}

	result, err := p.Run(ctx, opts)
	if err != nil {
		return err
	}

	if generateVerbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintBlocks(result.Blocks)
		printer.PrintStoredDocument(result.StoredPath, result.Persisted)
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(result.Markdown), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Wrote %s\n", generateOutput)
		return nil
	}

	fmt.Println(result.Markdown)
	return nil
}
