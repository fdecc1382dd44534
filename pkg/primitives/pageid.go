package primitives

import (
	"encoding/binary"
	"fmt"
)

// PageIDSize is the length of a serialized PageID.
const PageIDSize = 16

// PageID names one page of one table. It is a plain comparable value so it can
// key the page cache and the lock table directly.
type PageID struct {
	TableID TableID
	PageNo  PageNumber
}

// NewPageID creates a new page id
func NewPageID(tableID TableID, pageNo PageNumber) PageID {
	return PageID{TableID: tableID, PageNo: pageNo}
}

// Serialize encodes the id as tableID followed by page number, both
// big-endian, so byte order matches Less.
func (p PageID) Serialize() []byte {
	buf := make([]byte, PageIDSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(p.TableID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(p.PageNo))
	return buf
}

// Less orders page ids by table and then by page number.
func (p PageID) Less(other PageID) bool {
	if p.TableID != other.TableID {
		return p.TableID < other.TableID
	}
	return p.PageNo < other.PageNo
}

func (p PageID) String() string {
	return fmt.Sprintf("PageID(table=%d, page=%d)", p.TableID, p.PageNo)
}
