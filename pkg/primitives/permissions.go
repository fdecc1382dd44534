package primitives

// Permissions states what a caller intends to do with a fetched page.
// ReadOnly maps to a shared lock and ReadWrite to an exclusive one.
type Permissions uint8

const (
	ReadOnly Permissions = iota
	ReadWrite
)

func (p Permissions) String() string {
	switch p {
	case ReadOnly:
		return "READ_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return "UNKNOWN"
	}
}
