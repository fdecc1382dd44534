package heap

import (
	"bytes"
	"sync"

	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

const componentHeapPage = "HeapPage"

// HeapPage represents a single page in a heap file and implements the page.Page interface.
//
// Page layout:
//
//	[occupancy bitmap: ceil(numSlots/8) bytes][slot 0][slot 1]...[slot numSlots-1][zero tail]
//
// Bit i of the bitmap lives in byte i/8 at bit position i%8 (least
// significant bit first) and is set exactly when slot i holds a tuple. Every
// slot is tupleDesc.Size() bytes wide.
type HeapPage struct {
	pageID    primitives.PageID
	tupleDesc *tuple.TupleDescription
	pageSize  int
	numSlots  int
	header    []byte
	body      []byte         // encoded slots, zero when free
	tuples    []*tuple.Tuple // indexed by slot, nil when free
	dirty     bool
	dirtier   primitives.TransactionID
	mutex     sync.RWMutex
}

// NumSlotsFor returns how many tuples of tupleSize bytes fit on a page when
// each one also costs a bitmap bit: floor(pageSize*8 / (tupleSize*8 + 1)).
func NumSlotsFor(pageSize, tupleSize int) int {
	if pageSize <= 0 || tupleSize <= 0 {
		return 0
	}
	return (pageSize * 8) / (tupleSize*8 + 1)
}

// HeaderSizeFor returns the bitmap length in bytes for numSlots slots.
func HeaderSizeFor(numSlots int) int {
	return (numSlots + 7) / 8
}

// EmptyPageData returns the bytes of a page with no occupied slot.
func EmptyPageData(pageSize int) []byte {
	return make([]byte, pageSize)
}

// NewEmptyHeapPage creates a page with every slot free.
func NewEmptyHeapPage(pid primitives.PageID, td *tuple.TupleDescription, pageSize int) (*HeapPage, error) {
	return NewHeapPage(pid, EmptyPageData(pageSize), td)
}

// NewHeapPage parses raw page bytes. The page size is len(data). The
// bitmap is trusted; bits past numSlots are ignored.
func NewHeapPage(pid primitives.PageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if td == nil {
		return nil, dberror.IllegalState("NewHeapPage", componentHeapPage, "tuple description is nil")
	}

	numSlots := NumSlotsFor(len(data), td.Size())
	if numSlots == 0 {
		return nil, dberror.IllegalState("NewHeapPage", componentHeapPage,
			"a %d byte tuple does not fit on a %d byte page", td.Size(), len(data))
	}

	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		pageSize:  len(data),
		numSlots:  numSlots,
		header:    make([]byte, HeaderSizeFor(numSlots)),
		body:      make([]byte, numSlots*td.Size()),
		tuples:    make([]*tuple.Tuple, numSlots),
	}
	copy(hp.header, data)

	if err := hp.parseSlots(data); err != nil {
		return nil, err
	}
	return hp, nil
}

func (hp *HeapPage) parseSlots(data []byte) error {
	width := hp.tupleDesc.Size()
	base := len(hp.header)

	for i := 0; i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			continue
		}

		off := base + i*width
		t, err := tuple.Parse(bytes.NewReader(data[off:off+width]), hp.tupleDesc)
		if err != nil {
			return dberror.Wrap(err, dberror.CodeStorageFault, "NewHeapPage", componentHeapPage)
		}
		copy(hp.body[i*width:], data[off:off+width])
		t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(i))
		hp.tuples[i] = t
	}
	return nil
}

// GetID returns the unique page identifier for this heap page.
func (hp *HeapPage) GetID() primitives.PageID {
	return hp.pageID
}

// GetTupleDesc returns the layout of the tuples on this page.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// IsDirty returns the transaction that last modified this page, and false
// if the page is clean.
func (hp *HeapPage) IsDirty() (primitives.TransactionID, bool) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier, hp.dirty
}

// MarkDirty marks this page as dirty or clean for a specific transaction.
// The buffer pool calls it after modifications and after flushes.
func (hp *HeapPage) MarkDirty(dirty bool, tid primitives.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	hp.dirty = dirty
	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = primitives.TransactionID{}
	}
}

// GetPageData serializes the page: bitmap, then every slot in order, then a
// zero tail up to the page size. Free slots serialize as zeros.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	data := make([]byte, hp.pageSize)
	copy(data, hp.header)
	copy(data[len(hp.header):], hp.body)
	return data
}

// NumSlots returns the total number of slots on the page.
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

// GetNumEmptySlots returns the count of unoccupied tuple slots on this page.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.numEmptySlots()
}

func (hp *HeapPage) numEmptySlots() int {
	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			empty++
		}
	}
	return empty
}

// IsSlotUsed reports whether slot i holds a tuple. Out of range slots are
// reported as unused.
func (hp *HeapPage) IsSlotUsed(i int) bool {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.isSlotUsed(i)
}

func (hp *HeapPage) isSlotUsed(i int) bool {
	if i < 0 || i >= hp.numSlots {
		return false
	}
	return hp.header[i/8]&(1<<(uint(i)%8)) != 0
}

func (hp *HeapPage) setSlot(i int, used bool) {
	if used {
		hp.header[i/8] |= 1 << (uint(i) % 8)
	} else {
		hp.header[i/8] &^= 1 << (uint(i) % 8)
	}
}

// InsertTuple places a copy of t in the lowest free slot and sets the
// RecordID on both. Every field of t must be set; later changes to t do not
// reach the page.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !hp.tupleDesc.Equals(t.TupleDesc) {
		return dberror.IllegalState("InsertTuple", componentHeapPage,
			"tuple layout %s does not match page layout %s", t.TupleDesc, hp.tupleDesc)
	}

	width := hp.tupleDesc.Size()
	encoded := bytes.NewBuffer(make([]byte, 0, width))
	if err := t.Serialize(encoded); err != nil {
		return dberror.IllegalState("InsertTuple", componentHeapPage, "cannot store tuple: %v", err)
	}

	for i := 0; i < hp.numSlots; i++ {
		if hp.isSlotUsed(i) {
			continue
		}
		hp.setSlot(i, true)
		copy(hp.body[i*width:(i+1)*width], encoded.Bytes())
		t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(i))
		hp.tuples[i] = t.Copy()
		return nil
	}

	return dberror.IllegalState("InsertTuple", componentHeapPage, "page %s is full", hp.pageID)
}

// DeleteTuple frees the slot named by t.RecordID and clears the RecordID.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	rid := t.RecordID
	if rid == nil {
		return dberror.IllegalState("DeleteTuple", componentHeapPage, "tuple has no record id")
	}
	if rid.PageID != hp.pageID {
		return dberror.IllegalState("DeleteTuple", componentHeapPage,
			"tuple lives on %s, not on %s", rid.PageID, hp.pageID)
	}

	slot := int(rid.Slot)
	if !hp.isSlotUsed(slot) {
		return dberror.IllegalState("DeleteTuple", componentHeapPage, "slot %d is already empty", slot)
	}

	width := hp.tupleDesc.Size()
	hp.setSlot(slot, false)
	clear(hp.body[slot*width : (slot+1)*width])
	hp.tuples[slot] = nil
	t.RecordID = nil
	return nil
}

// GetTuples returns copies of the resident tuples in slot order.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, 0, hp.numSlots-hp.numEmptySlots())
	for _, t := range hp.tuples {
		if t != nil {
			tuples = append(tuples, t.Copy())
		}
	}
	return tuples
}

// GetTupleAt returns a copy of the tuple at the specified slot index, or nil
// if the slot is empty.
func (hp *HeapPage) GetTupleAt(idx primitives.SlotID) (*tuple.Tuple, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	if int(idx) >= hp.numSlots {
		return nil, dberror.IllegalState("GetTupleAt", componentHeapPage, "slot index %d out of bounds", idx)
	}
	if hp.tuples[idx] == nil {
		return nil, nil
	}
	return hp.tuples[idx].Copy(), nil
}
