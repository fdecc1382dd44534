package heap

import (
	"go.uber.org/zap"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

const componentHeapFile = "HeapFile"

// HeapFile represents a collection of pages stored in a single OS file on disk.
// It implements the page.DbFile interface.
//
// Storage Layout:
//   - Each page is exactly PageSize() bytes
//   - Pages are numbered sequentially starting from 0
//   - Page offsets are calculated as: pageNo * PageSize()
//   - The file only grows, one zero-filled page at a time
//
// ReadPage and WritePage do raw I/O. Tuple operations and iteration go
// through a page.PageFetcher so every page they touch is locked and cached
// on behalf of the calling transaction.
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription // Schema definition for tuples in this file
}

// NewHeapFile opens a heap file with the default page size.
func NewHeapFile(filename primitives.Filepath, td *tuple.TupleDescription) (*HeapFile, error) {
	return OpenHeapFile(filename, td, page.DefaultPageSize)
}

// OpenHeapFile opens (creating if needed) the heap file at filename. At
// least one tuple of layout td must fit on a page of pageSize bytes.
func OpenHeapFile(filename primitives.Filepath, td *tuple.TupleDescription, pageSize int) (*HeapFile, error) {
	if td == nil {
		return nil, dberror.IllegalState("OpenHeapFile", componentHeapFile, "tuple description is nil")
	}
	if NumSlotsFor(pageSize, td.Size()) == 0 {
		return nil, dberror.IllegalState("OpenHeapFile", componentHeapFile,
			"a %d byte tuple does not fit on a %d byte page", td.Size(), pageSize)
	}

	baseFile, err := page.NewBaseFile(filename, pageSize)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		BaseFile:  baseFile,
		tupleDesc: td,
	}, nil
}

// GetTupleDesc returns the schema definition for tuples stored in this file.
func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// SlotsPerPage returns the number of tuple slots on each page of this file.
func (hf *HeapFile) SlotsPerPage() int {
	return NumSlotsFor(hf.PageSize(), hf.tupleDesc.Size())
}

// ReadPage reads the specified page from disk into memory.
// This method performs physical I/O and should typically be called through
// the BufferPool rather than directly. Reading a page of another table or
// past the end of the file is a storage fault.
func (hf *HeapFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	if pid.TableID != hf.GetID() {
		return nil, dberror.StorageFault(nil, "ReadPage", componentHeapFile,
			"%s does not belong to table %d", pid, hf.GetID())
	}

	data, err := hf.ReadPageData(pid.PageNo)
	if err != nil {
		return nil, err
	}

	return NewHeapPage(pid, data, hf.tupleDesc)
}

// WritePage writes the given page to disk at its designated location and
// syncs the file.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return dberror.IllegalState("WritePage", componentHeapFile, "page cannot be nil")
	}

	pid := p.GetID()
	if pid.TableID != hf.GetID() {
		return dberror.StorageFault(nil, "WritePage", componentHeapFile,
			"%s does not belong to table %d", pid, hf.GetID())
	}

	return hf.WritePageData(pid.PageNo, p.GetPageData())
}

// InsertTuple places t using first-fit: pages are fetched in ascending order
// with ReadWrite permission until one has a free slot. When none has room a
// zero page is appended and the scan continues onto it. The returned pages
// are the ones modified.
func (hf *HeapFile) InsertTuple(fetcher page.PageFetcher, tid primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if t == nil || !hf.tupleDesc.Equals(t.TupleDesc) {
		return nil, dberror.IllegalState("InsertTuple", componentHeapFile,
			"tuple does not match layout %s", hf.tupleDesc)
	}

	var pageNo primitives.PageNumber
	for {
		numPages, err := hf.NumPages()
		if err != nil {
			return nil, err
		}

		for ; pageNo < numPages; pageNo++ {
			hp, err := hf.fetch(fetcher, tid, pageNo, primitives.ReadWrite)
			if err != nil {
				return nil, err
			}
			if hp.GetNumEmptySlots() == 0 {
				continue
			}
			if err := hp.InsertTuple(t); err != nil {
				return nil, err
			}
			hp.MarkDirty(true, tid)
			return []page.Page{hp}, nil
		}

		newPage, err := hf.AllocateNewPage()
		if err != nil {
			return nil, err
		}
		logging.WithComponent(componentHeapFile).Debug("appended page",
			zap.String("file", hf.FilePath().String()),
			zap.Uint64("page_no", uint64(newPage)),
			zap.Int64("tx_id", tid.ID()))
	}
}

// DeleteTuple fetches the page named by t.RecordID with ReadWrite
// permission and frees the tuple's slot.
func (hf *HeapFile) DeleteTuple(fetcher page.PageFetcher, tid primitives.TransactionID, t *tuple.Tuple) (page.Page, error) {
	if t == nil || t.RecordID == nil {
		return nil, dberror.IllegalState("DeleteTuple", componentHeapFile, "tuple has no record id")
	}

	pid := t.RecordID.PageID
	if pid.TableID != hf.GetID() {
		return nil, dberror.IllegalState("DeleteTuple", componentHeapFile,
			"tuple belongs to table %d, not %d", pid.TableID, hf.GetID())
	}

	hp, err := hf.fetch(fetcher, tid, pid.PageNo, primitives.ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	return hp, nil
}

// Iterator returns an unopened iterator over every tuple of the file.
func (hf *HeapFile) Iterator(fetcher page.PageFetcher, tid primitives.TransactionID) page.DbFileIterator {
	return NewHeapFileIterator(hf, fetcher, tid)
}

func (hf *HeapFile) fetch(fetcher page.PageFetcher, tid primitives.TransactionID, pageNo primitives.PageNumber, perm primitives.Permissions) (*HeapPage, error) {
	p, err := fetcher.GetPage(tid, primitives.NewPageID(hf.GetID(), pageNo), perm)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return nil, dberror.IllegalState("fetch", componentHeapFile, "page %d is not a heap page", pageNo)
	}
	return hp, nil
}
