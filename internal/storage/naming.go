package storage

import (
	"strings"

	"github.com/jonathan/repo-expounder/internal/types"
)

// Stored blob names are the system's only index: a literal tag, the user id,
// the repository owner and name, and the generation timestamp, joined by a
// backtick (which cannot appear in any component) and suffixed ".md".
const (
	// Folder is the backend folder holding every stored document.
	Folder = "/expounder"

	nameTag    = "README"
	separator  = "`"
	nameSuffix = ".md"
)

// EncodeName builds the stored blob name for a document key.
func EncodeName(key types.DocumentKey) string {
	return nameTag + separator +
		key.UserID + separator +
		key.Owner + separator +
		key.Repo + separator +
		key.Timestamp + nameSuffix
}

// EncodePath builds the full backend path for a document key.
func EncodePath(key types.DocumentKey) string {
	return Folder + "/" + EncodeName(key)
}

// ParseName decodes a stored blob name back into its document key. The
// second result is false for names that do not match the expected shape;
// such entries are skipped by listings, never errored.
func ParseName(name string) (types.DocumentKey, bool) {
	if !strings.HasPrefix(name, nameTag+separator) || !strings.HasSuffix(name, nameSuffix) {
		return types.DocumentKey{}, false
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, nameTag+separator), nameSuffix)
	parts := strings.Split(trimmed, separator)
	if len(parts) != 4 {
		return types.DocumentKey{}, false
	}
	for _, p := range parts {
		if p == "" {
			return types.DocumentKey{}, false
		}
	}

	return types.DocumentKey{
		UserID:    parts[0],
		Owner:     parts[1],
		Repo:      parts[2],
		Timestamp: parts[3],
	}, true
}
