package page

import (
	"errors"
	"io"
	"os"
	"sync"

	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
)

const componentBaseFile = "BaseFile"

// BaseFile provides the page-addressed file I/O shared by database files.
// Page n occupies bytes [n*pageSize, (n+1)*pageSize) of the file; growth
// happens only by appending whole pages.
//
// Thread-safety: all public methods take the file's RWMutex, so page reads
// run concurrently while writes and allocations are exclusive.
type BaseFile struct {
	file     *os.File            // The underlying OS file handle for I/O operations
	tableID  primitives.TableID  // Identifier derived from the file path hash
	mutex    sync.RWMutex        // Read-write mutex for thread-safe operations
	filePath primitives.Filepath // Path to the database file
	pageSize int
}

// NewBaseFile opens (creating if needed) the file at filePath for page I/O.
func NewBaseFile(filePath primitives.Filepath, pageSize int) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, dberror.IllegalState("NewBaseFile", componentBaseFile, "file path cannot be empty")
	}
	if pageSize <= 0 {
		return nil, dberror.IllegalState("NewBaseFile", componentBaseFile, "invalid page size %d", pageSize)
	}

	file, err := os.OpenFile(filePath.String(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberror.StorageFault(err, "NewBaseFile", componentBaseFile, "failed to open %s", filePath)
	}

	return &BaseFile{
		file:     file,
		tableID:  filePath.Hash(),
		filePath: filePath,
		pageSize: pageSize,
	}, nil
}

// GetID returns the identifier derived from the file path.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.tableID
}

func (bf *BaseFile) PageSize() int {
	return bf.pageSize
}

// FilePath returns the path used to open this file.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns the file size divided by the page size, rounded up.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()
	return bf.numPagesLocked("NumPages")
}

// Size returns the current file size in bytes.
func (bf *BaseFile) Size() (int64, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, dberror.StorageFault(nil, "Size", componentBaseFile, "file %s is closed", bf.filePath)
	}
	info, err := bf.file.Stat()
	if err != nil {
		return 0, dberror.StorageFault(err, "Size", componentBaseFile, "failed to stat %s", bf.filePath)
	}
	return info.Size(), nil
}

func (bf *BaseFile) numPagesLocked(op string) (primitives.PageNumber, error) {
	if bf.file == nil {
		return 0, dberror.StorageFault(nil, op, componentBaseFile, "file %s is closed", bf.filePath)
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, dberror.StorageFault(err, op, componentBaseFile, "failed to stat %s", bf.filePath)
	}

	size := fileInfo.Size()
	numPages := primitives.PageNumber(size / int64(bf.pageSize))
	if size%int64(bf.pageSize) != 0 {
		numPages++
	}
	return numPages, nil
}

// ReadPageData reads the raw bytes of page pageNo. Reading at or past
// NumPages is a storage fault. A trailing partial page is zero-filled.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	numPages, err := bf.numPagesLocked("ReadPageData")
	if err != nil {
		return nil, err
	}
	if pageNo >= numPages {
		return nil, dberror.StorageFault(nil, "ReadPageData", componentBaseFile,
			"page %d out of bounds, %s has %d pages", pageNo, bf.filePath, numPages)
	}

	offset := int64(pageNo) * int64(bf.pageSize)
	pageData := make([]byte, bf.pageSize)

	n, err := bf.file.ReadAt(pageData, offset)
	if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
		return nil, dberror.StorageFault(err, "ReadPageData", componentBaseFile,
			"failed to read page %d of %s", pageNo, bf.filePath)
	}
	return pageData, nil
}

// WritePageData writes exactly one page at pageNo and syncs the file.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return dberror.StorageFault(nil, "WritePageData", componentBaseFile, "file %s is closed", bf.filePath)
	}

	if len(pageData) != bf.pageSize {
		return dberror.IllegalState("WritePageData", componentBaseFile,
			"invalid page data size: expected %d, got %d", bf.pageSize, len(pageData))
	}

	offset := int64(pageNo) * int64(bf.pageSize)

	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return dberror.StorageFault(err, "WritePageData", componentBaseFile,
			"failed to write page %d of %s", pageNo, bf.filePath)
	}

	if err := bf.file.Sync(); err != nil {
		return dberror.StorageFault(err, "WritePageData", componentBaseFile, "failed to sync %s", bf.filePath)
	}

	return nil
}

// AllocateNewPage appends one zero-filled page and returns its number. The
// size check and the write happen under the write lock, so concurrent
// callers always receive distinct page numbers.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	pageNo, err := bf.numPagesLocked("AllocateNewPage")
	if err != nil {
		return 0, err
	}

	offset := int64(pageNo) * int64(bf.pageSize)
	if _, err := bf.file.WriteAt(make([]byte, bf.pageSize), offset); err != nil {
		return 0, dberror.StorageFault(err, "AllocateNewPage", componentBaseFile,
			"failed to reserve page %d of %s", pageNo, bf.filePath)
	}

	if err := bf.file.Sync(); err != nil {
		return 0, dberror.StorageFault(err, "AllocateNewPage", componentBaseFile, "failed to sync %s", bf.filePath)
	}

	return pageNo, nil
}

// Close closes the underlying file handle. Closing twice is a no-op.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return nil
	}

	err := bf.file.Close()
	bf.file = nil
	if err != nil {
		return dberror.StorageFault(err, "Close", componentBaseFile, "failed to close %s", bf.filePath)
	}
	return nil
}
