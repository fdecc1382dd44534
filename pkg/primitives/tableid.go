package primitives

import "fmt"

// IsValid checks if the TableID is a valid non-zero identifier.
func (t TableID) IsValid() bool {
	return t != InvalidTableID
}

// AsUint64 returns the TableID as a uint64 for serialization.
func (t TableID) AsUint64() uint64 {
	return uint64(t)
}

// String returns a string representation of the TableID.
func (t TableID) String() string {
	return fmt.Sprintf("TableID(%d)", t)
}
