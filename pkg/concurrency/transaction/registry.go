package transaction

import (
	"fmt"
	"sync"

	"heapstore/pkg/primitives"
)

// TransactionRegistry tracks the contexts of all live transactions. A
// context is removed once its transaction terminates, so an id that is not
// registered is either unknown or already finished.
type TransactionRegistry struct {
	contexts map[primitives.TransactionID]*TransactionContext
	mutex    sync.RWMutex
}

// NewTransactionRegistry creates a new transaction registry
func NewTransactionRegistry() *TransactionRegistry {
	return &TransactionRegistry{
		contexts: make(map[primitives.TransactionID]*TransactionContext),
	}
}

// Begin allocates a fresh transaction id and registers it ACTIVE.
func (tr *TransactionRegistry) Begin() *TransactionContext {
	ctx := NewTransactionContext(primitives.NewTransactionID())

	tr.mutex.Lock()
	tr.contexts[ctx.ID] = ctx
	tr.mutex.Unlock()

	return ctx
}

// Get retrieves a transaction context by ID
func (tr *TransactionRegistry) Get(tid primitives.TransactionID) (*TransactionContext, error) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	ctx, exists := tr.contexts[tid]
	if !exists {
		return nil, fmt.Errorf("transaction %s not found", tid)
	}
	return ctx, nil
}

// Remove removes a transaction context from the registry
func (tr *TransactionRegistry) Remove(tid primitives.TransactionID) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	delete(tr.contexts, tid)
}

// GetActive returns all active transaction contexts
func (tr *TransactionRegistry) GetActive() []*TransactionContext {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	active := make([]*TransactionContext, 0, len(tr.contexts))
	for _, ctx := range tr.contexts {
		if ctx.IsActive() {
			active = append(active, ctx)
		}
	}
	return active
}

// Count returns the number of registered transactions
func (tr *TransactionRegistry) Count() int {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()
	return len(tr.contexts)
}
