// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jonathan/repo-expounder/internal/chunking"
	"github.com/jonathan/repo-expounder/internal/retrieval"
)

// Config holds everything the generation pipeline and the document store
// need. All values come from the environment; cmd loads .env first.
type Config struct {
	// OpenAI
	OpenAIKey   string
	OpenAIModel string

	// Dropbox storage credentials (refresh-token flow)
	DropboxAppKey       string
	DropboxAppSecret    string
	DropboxRefreshToken string

	// Pipeline tuning
	ChunkBytes        int
	UploadConcurrency int
	FetchConcurrency  int
	MaxBlobBytes      int64
}

// Load reads configuration from the environment. Only the OpenAI key is
// strictly required; storage credentials may be absent, in which case
// persistence is disabled and generation results are returned without being
// stored.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         os.Getenv("OPENAI_MODEL"),
		DropboxAppKey:       os.Getenv("DROPBOX_APP_KEY"),
		DropboxAppSecret:    os.Getenv("DROPBOX_APP_SECRET"),
		DropboxRefreshToken: os.Getenv("DROPBOX_REFRESH_TOKEN"),
		ChunkBytes:          getEnvInt("CHUNK_BYTES", chunking.DefaultChunkBytes),
		UploadConcurrency:   getEnvInt("UPLOAD_CONCURRENCY", retrieval.DefaultUploadConcurrency),
		FetchConcurrency:    getEnvInt("FETCH_CONCURRENCY", retrieval.DefaultUploadConcurrency),
		MaxBlobBytes:        int64(getEnvInt("MAX_BLOB_BYTES", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and required fields.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required but not set")
	}
	if c.ChunkBytes < 1 {
		return fmt.Errorf("CHUNK_BYTES must be positive, got %d", c.ChunkBytes)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("UPLOAD_CONCURRENCY must be positive, got %d", c.UploadConcurrency)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.MaxBlobBytes < 0 {
		return fmt.Errorf("MAX_BLOB_BYTES must be non-negative, got %d", c.MaxBlobBytes)
	}
	return nil
}

// StorageConfigured reports whether the Dropbox credential triple is
// complete.
func (c *Config) StorageConfigured() bool {
	return c.DropboxAppKey != "" && c.DropboxAppSecret != "" && c.DropboxRefreshToken != ""
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
