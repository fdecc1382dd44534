package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter atomic.Int64

// TransactionID identifies one transaction for its whole life. Ids come from
// a process-wide counter and are never reused. The zero value is not a valid
// transaction.
type TransactionID struct {
	id int64
}

// NewTransactionID allocates the next transaction id.
func NewTransactionID() TransactionID {
	return TransactionID{id: transactionCounter.Add(1)}
}

func (tid TransactionID) ID() int64 {
	return tid.id
}

func (tid TransactionID) IsValid() bool {
	return tid.id > 0
}

func (tid TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}
