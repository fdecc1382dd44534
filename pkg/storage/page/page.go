package page

import (
	"heapstore/pkg/primitives"
)

// DefaultPageSize is the size of each page in bytes (4KB)
const DefaultPageSize = 4096

// Page interface represents a page that is resident in the buffer pool
// Pages may be "dirty", indicating they have been modified since last written to disk
type Page interface {
	// GetID returns the ID of this page
	GetID() primitives.PageID

	// IsDirty returns the transaction that last dirtied this page and true,
	// or false if the page is clean
	IsDirty() (primitives.TransactionID, bool)

	// MarkDirty sets the dirty state of this page
	MarkDirty(dirty bool, tid primitives.TransactionID)

	// GetPageData returns a byte array representing the contents of this page
	// Used to serialize this page to disk
	GetPageData() []byte
}

// PageFetcher hands out pages under the lock that perm requires. The buffer
// pool implements it; files receive it as a parameter so that every page
// they touch on behalf of a transaction is locked and cached.
type PageFetcher interface {
	GetPage(tid primitives.TransactionID, pid primitives.PageID, perm primitives.Permissions) (Page, error)
}
