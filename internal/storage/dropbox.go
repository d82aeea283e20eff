// Package storage persists rendered documents to Dropbox, keyed solely by
// an encoded blob name.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/oauth2"

	"github.com/jonathan/repo-expounder/internal/types"
)

// tokenURL is Dropbox's OAuth token endpoint.
const tokenURL = "https://api.dropbox.com/oauth2/token"

// listPageLimit bounds one list_folder page.
const listPageLimit = 2000

// Store is the Dropbox-backed persistence adapter. Every operation performs
// a fresh refresh-token exchange; no access token is cached across calls.
type Store struct {
	appKey       string
	appSecret    string
	refreshToken string
}

// New creates a store from the app credential triple.
func New(appKey, appSecret, refreshToken string) *Store {
	return &Store{
		appKey:       appKey,
		appSecret:    appSecret,
		refreshToken: refreshToken,
	}
}

// filesClient exchanges the refresh token for a short-lived access token and
// returns a files API client bound to it.
func (s *Store) filesClient(ctx context.Context) (files.Client, error) {
	if s.appKey == "" || s.appSecret == "" || s.refreshToken == "" {
		return nil, &TransientError{Op: "token refresh", Err: errors.New("missing storage credentials")}
	}

	conf := &oauth2.Config{
		ClientID:     s.appKey,
		ClientSecret: s.appSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		return nil, &TransientError{Op: "token refresh", Err: err}
	}

	return files.New(dropbox.Config{Token: tok.AccessToken, LogLevel: dropbox.LogOff}), nil
}

// Upload stores content at the key's path, overwriting any existing entry.
// Callers on the generation path treat failure as non-fatal and only log it.
func (s *Store) Upload(ctx context.Context, key types.DocumentKey, content string) error {
	client, err := s.filesClient(ctx)
	if err != nil {
		return err
	}

	arg := files.NewUploadArg(EncodePath(key))
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	arg.Autorename = true

	if _, err := client.Upload(arg, bytes.NewReader([]byte(content))); err != nil {
		return &TransientError{Op: "upload", Err: err}
	}
	return nil
}

// Download fetches the stored markdown for a key. Missing paths surface as
// *NotFoundError.
func (s *Store) Download(ctx context.Context, key types.DocumentKey) (string, error) {
	client, err := s.filesClient(ctx)
	if err != nil {
		return "", err
	}

	path := EncodePath(key)
	_, reader, err := client.Download(files.NewDownloadArg(path))
	if err != nil {
		if isPathNotFound(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", &TransientError{Op: "download", Err: err}
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", &TransientError{Op: "download", Err: err}
	}
	return string(content), nil
}

// Delete removes the stored document for a key.
func (s *Store) Delete(ctx context.Context, key types.DocumentKey) error {
	client, err := s.filesClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.DeleteV2(files.NewDeleteArg(EncodePath(key))); err != nil {
		return &TransientError{Op: "delete", Err: err}
	}
	return nil
}

// List returns every stored document belonging to userID, parsed from blob
// names. Entries that do not match the expected name shape, or belong to a
// different user, are skipped.
func (s *Store) List(ctx context.Context, userID string) ([]types.DocumentEntry, error) {
	client, err := s.filesClient(ctx)
	if err != nil {
		return nil, err
	}

	arg := files.NewListFolderArg(Folder)
	arg.Limit = listPageLimit

	res, err := client.ListFolder(arg)
	if err != nil {
		return nil, &TransientError{Op: "list", Err: err}
	}

	entries := collectEntries(res.Entries, userID)
	for res.HasMore {
		res, err = client.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, &TransientError{Op: "list", Err: err}
		}
		entries = append(entries, collectEntries(res.Entries, userID)...)
	}
	return entries, nil
}

func collectEntries(raw []files.IsMetadata, userID string) []types.DocumentEntry {
	var entries []types.DocumentEntry
	for _, meta := range raw {
		f, ok := meta.(*files.FileMetadata)
		if !ok {
			continue
		}
		key, ok := ParseName(f.Name)
		if !ok || key.UserID != userID {
			continue
		}
		entries = append(entries, types.DocumentEntry{
			Owner:     key.Owner,
			Repo:      key.Repo,
			Timestamp: key.Timestamp,
			Path:      f.PathLower,
			Name:      f.Name,
		})
	}
	return entries
}

// isPathNotFound reports whether a download error means the path does not
// exist. Dropbox reports this as a 409 lookup error.
func isPathNotFound(err error) bool {
	var dlErr files.DownloadAPIError
	if errors.As(err, &dlErr) {
		if dlErr.EndpointError != nil && dlErr.EndpointError.Path != nil {
			return dlErr.EndpointError.Path.Tag == files.LookupErrorNotFound
		}
	}
	return false
}
