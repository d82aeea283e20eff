package types

// DocumentKey identifies one persisted generation result. The four components
// are joined into the stored blob's name; there is no other metadata record.
// Timestamp is Unix milliseconds at generation time, which makes keys unique
// per user in practice, so regeneration always creates a new entry.
type DocumentKey struct {
	UserID    string
	Owner     string
	Repo      string
	Timestamp string
}

// DocumentEntry is one listed stored document, parsed back out of its blob
// name plus the backend's path for it.
type DocumentEntry struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Name      string `json:"name"`
}
