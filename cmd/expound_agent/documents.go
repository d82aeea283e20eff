package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/repo-expounder/internal/config"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/types"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage stored README documents",
}

var (
	documentsUser   string
	documentsOutput string
)

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's stored documents",
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get <owner> <repo> <timestamp>",
	Short: "Fetch one stored document's markdown",
	Args:  cobra.ExactArgs(3),
	RunE:  runDocumentsGet,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <owner> <repo> <timestamp>",
	Short: "Delete one stored document",
	Args:  cobra.ExactArgs(3),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.PersistentFlags().StringVarP(&documentsUser, "user", "u", "", "User ID that owns the documents (required)")
	_ = documentsCmd.MarkPersistentFlagRequired("user")

	documentsGetCmd.Flags().StringVarP(&documentsOutput, "output", "o", "", "Write the markdown to a file instead of stdout")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

// documentStore builds the Dropbox-backed store from the environment.
func documentStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.StorageConfigured() {
		return nil, fmt.Errorf("Dropbox credentials are required (DROPBOX_APP_KEY, DROPBOX_APP_SECRET, DROPBOX_REFRESH_TOKEN)")
	}
	return storage.New(cfg.DropboxAppKey, cfg.DropboxAppSecret, cfg.DropboxRefreshToken), nil
}

func runDocumentsList(_ *cobra.Command, _ []string) error {
	store, err := documentStore()
	if err != nil {
		return err
	}

	entries, err := store.List(context.Background(), documentsUser)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No documents stored.")
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s/%s\t%s\t%s\n", entry.Owner, entry.Repo, entry.Timestamp, entry.Path)
	}
	return nil
}

func runDocumentsGet(_ *cobra.Command, args []string) error {
	store, err := documentStore()
	if err != nil {
		return err
	}

	key := types.DocumentKey{
		UserID:    documentsUser,
		Owner:     args[0],
		Repo:      args[1],
		Timestamp: args[2],
	}
	markdown, err := store.Download(context.Background(), key)
	if err != nil {
		return err
	}

	if documentsOutput != "" {
		if err := os.WriteFile(documentsOutput, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Wrote %s\n", documentsOutput)
		return nil
	}

	fmt.Println(markdown)
	return nil
}

func runDocumentsDelete(_ *cobra.Command, args []string) error {
	store, err := documentStore()
	if err != nil {
		return err
	}

	key := types.DocumentKey{
		UserID:    documentsUser,
		Owner:     args[0],
		Repo:      args[1],
		Timestamp: args[2],
	}
	if err := store.Delete(context.Background(), key); err != nil {
		return err
	}

	fmt.Printf("Deleted %s/%s (%s)\n", key.Owner, key.Repo, key.Timestamp)
	return nil
}
