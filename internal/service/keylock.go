package service

import "sync"

// CartLocks serializes mutations per cart identity. Every operation
// that writes a cart (cart engine, merge, checkout) locks the cart's
// key first, so read-modify-write sequences never interleave.
type CartLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCartLocks() *CartLocks {
	return &CartLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for cartID and returns the unlock function.
func (c *CartLocks) Lock(cartID string) func() {
	c.mu.Lock()
	l, ok := c.locks[cartID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[cartID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
