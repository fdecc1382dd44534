package tuple

import (
	"fmt"

	"heapstore/pkg/primitives"
)

// RecordID locates a stored tuple: the page it lives on and its slot.
type RecordID struct {
	PageID primitives.PageID
	Slot   primitives.SlotID
}

// NewRecordID creates a new RecordID
func NewRecordID(pageID primitives.PageID, slot primitives.SlotID) *RecordID {
	return &RecordID{PageID: pageID, Slot: slot}
}

func (rid *RecordID) Equals(other *RecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageID == other.PageID && rid.Slot == other.Slot
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", rid.PageID, rid.Slot)
}
