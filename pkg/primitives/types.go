package primitives

// TableID identifies the heap file backing one table. It is derived from the
// file path (see Filepath.Hash) so the same file always maps to the same id.
type TableID uint64

// SlotID represents a slot number within a heap page.
type SlotID uint16

// PageNumber represents a 0-based page position within a table file.
type PageNumber uint64

// Sentinel values for invalid/unset identifiers
const (
	// InvalidTableID represents an invalid or unset table id
	InvalidTableID TableID = 0
)
