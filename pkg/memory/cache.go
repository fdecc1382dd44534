package memory

import (
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

// PageCache stores resident pages. It knows nothing about transactions,
// locks or durability; the BufferPool decides what may leave it.
type PageCache interface {
	// Get returns a resident page and marks it most recently used.
	Get(pid primitives.PageID) (page.Page, bool)

	// Peek returns a resident page without touching its recency.
	Peek(pid primitives.PageID) (page.Page, bool)

	// Put stores or replaces a page and marks it most recently used.
	Put(pid primitives.PageID, p page.Page)

	Remove(pid primitives.PageID)

	Size() int

	Clear()

	// GetAll returns the resident page ids, least recently used first.
	GetAll() []primitives.PageID
}

// node represents a single node in the doubly linked list
type node struct {
	pid  primitives.PageID
	page page.Page
	prev *node
	next *node
}

// LRUPageCache keeps pages in a hash map threaded onto a doubly linked list
// ordered by recency, giving O(1) lookup, insert and removal.
//
// It has no capacity of its own: the BufferPool checks Size against its
// budget and evicts before calling Put. It is not safe for concurrent use;
// callers hold the BufferPool mutex.
type LRUPageCache struct {
	cache map[primitives.PageID]*node
	head  *node // sentinel, most recently used end
	tail  *node // sentinel, least recently used end
}

func NewLRUPageCache() *LRUPageCache {
	c := &LRUPageCache{}
	c.Clear()
	return c
}

func (c *LRUPageCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUPageCache) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUPageCache) Get(pid primitives.PageID) (page.Page, bool) {
	n, exists := c.cache[pid]
	if !exists {
		return nil, false
	}
	c.unlink(n)
	c.addToFront(n)
	return n.page, true
}

func (c *LRUPageCache) Peek(pid primitives.PageID) (page.Page, bool) {
	if n, exists := c.cache[pid]; exists {
		return n.page, true
	}
	return nil, false
}

func (c *LRUPageCache) Put(pid primitives.PageID, p page.Page) {
	if n, exists := c.cache[pid]; exists {
		n.page = p
		c.unlink(n)
		c.addToFront(n)
		return
	}

	n := &node{pid: pid, page: p}
	c.cache[pid] = n
	c.addToFront(n)
}

func (c *LRUPageCache) Remove(pid primitives.PageID) {
	if n, exists := c.cache[pid]; exists {
		delete(c.cache, pid)
		c.unlink(n)
	}
}

func (c *LRUPageCache) Size() int {
	return len(c.cache)
}

func (c *LRUPageCache) Clear() {
	c.cache = make(map[primitives.PageID]*node)
	c.head = &node{}
	c.tail = &node{}
	c.head.next = c.tail
	c.tail.prev = c.head
}

func (c *LRUPageCache) GetAll() []primitives.PageID {
	pids := make([]primitives.PageID, 0, len(c.cache))
	for n := c.tail.prev; n != c.head; n = n.prev {
		pids = append(pids, n.pid)
	}
	return pids
}
