package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/sync/errgroup"
)

// binaryPath matches file extensions excluded from summarization: images,
// archives, audio/video, fonts, and PDFs.
var binaryPath = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|ico|pdf|zip|tar|gz|mp[34]|mov|avi|woff2?|ttf|otf|eot)$`)

// defaultFetchConcurrency bounds parallel blob downloads within one request.
const defaultFetchConcurrency = 6

// NodeKind discriminates tree nodes.
type NodeKind string

// Node kinds.
const (
	NodeFile      NodeKind = "file"
	NodeDirectory NodeKind = "directory"
)

// Node is one entry in the nested repository tree built for a single
// request. Directories carry children in tree order; files carry a
// raw-content URL.
type Node struct {
	Path     string   `json:"path"`
	Kind     NodeKind `json:"kind"`
	URL      string   `json:"url,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// BlobDescriptor describes one eligible file blob in the tree.
type BlobDescriptor struct {
	Path string
	SHA  string
	Size int64
}

// FileContent is one fetched, decoded file.
type FileContent struct {
	Path string
	Text string
}

// Fetcher retrieves and filters a repository's file contents.
type Fetcher struct {
	client *Client

	// MaxBlobBytes excludes files larger than this many bytes; zero means
	// no cap (the file-upload retrieval path has no per-file limit).
	MaxBlobBytes int64

	// Concurrency bounds parallel blob downloads.
	Concurrency int
}

// NewFetcher wraps a client with the default filter settings.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{
		client:      client,
		Concurrency: defaultFetchConcurrency,
	}
}

// resolveRef returns ref, or the repository's default branch when ref is
// empty.
func (f *Fetcher) resolveRef(ctx context.Context, owner, repo, ref string) (string, error) {
	if ref != "" {
		return ref, nil
	}
	return f.client.DefaultBranch(ctx, owner, repo)
}

// ListBlobs returns descriptors for every eligible file in the tree at ref
// (default branch when empty), excluding binary extensions and, when a cap
// is configured, oversized files.
func (f *Fetcher) ListBlobs(ctx context.Context, owner, repo, ref string) ([]BlobDescriptor, error) {
	ref, err := f.resolveRef(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}

	entries, err := f.client.TreeEntries(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}
	return filterBlobs(entries, f.MaxBlobBytes), nil
}

// FetchFiles retrieves the decoded text of every eligible file, with
// bounded-parallel blob downloads. The result preserves tree order. Any
// single failure aborts the whole fetch.
func (f *Fetcher) FetchFiles(ctx context.Context, owner, repo, ref string) ([]FileContent, error) {
	blobs, err := f.ListBlobs(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}

	concurrency := f.Concurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}

	files := make([]FileContent, len(blobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, blob := range blobs {
		g.Go(func() error {
			text, err := f.client.BlobText(gCtx, owner, repo, blob.SHA)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", blob.Path, err)
			}
			files[i] = FileContent{Path: blob.Path, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Tree builds the nested node view of the repository at ref.
func (f *Fetcher) Tree(ctx context.Context, owner, repo, ref string) ([]*Node, error) {
	ref, err := f.resolveRef(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}

	entries, err := f.client.TreeEntries(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}
	return buildTree(entries, owner, repo, ref), nil
}

// filterBlobs keeps file entries whose path is not on the binary denylist
// and whose size is within the cap (when one is set).
func filterBlobs(entries []*gh.TreeEntry, maxBytes int64) []BlobDescriptor {
	blobs := make([]BlobDescriptor, 0, len(entries))
	for _, e := range entries {
		if e.GetType() != "blob" {
			continue
		}
		if binaryPath.MatchString(e.GetPath()) {
			continue
		}
		size := int64(e.GetSize())
		if maxBytes > 0 && size > maxBytes {
			continue
		}
		blobs = append(blobs, BlobDescriptor{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Size: size,
		})
	}
	return blobs
}

// buildTree nests a flat recursive tree listing. Intermediate directories
// are synthesized when the listing omits them.
func buildTree(entries []*gh.TreeEntry, owner, repo, ref string) []*Node {
	var root []*Node
	lookup := make(map[string]*Node)

	for _, entry := range entries {
		entryType := entry.GetType()
		if entryType != "blob" && entryType != "tree" {
			continue
		}

		parts := strings.Split(entry.GetPath(), "/")
		var parent *Node

		for idx := range parts {
			curPath := strings.Join(parts[:idx+1], "/")
			node, seen := lookup[curPath]
			if !seen {
				isLeaf := idx == len(parts)-1
				node = &Node{Path: curPath, Kind: NodeDirectory}
				if isLeaf && entryType == "blob" {
					node.Kind = NodeFile
					node.URL = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, ref, curPath)
				}
				lookup[curPath] = node
				if parent != nil {
					parent.Children = append(parent.Children, node)
				} else {
					root = append(root, node)
				}
			}
			parent = node
		}
	}
	return root
}
