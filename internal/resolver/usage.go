package resolver

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultUsageCapacity bounds the number of keywords whose usage is tracked.
const DefaultUsageCapacity = 100

// usageTable counts lookups per normalized keyword, forgetting the least
// recently used keyword when full.
type usageTable struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, int]
}

func newUsageTable(capacity int) *usageTable {
	if capacity <= 0 {
		capacity = DefaultUsageCapacity
	}
	lru, _ := simplelru.NewLRU[string, int](capacity, nil)
	return &usageTable{lru: lru}
}

// record increments and returns the usage count of key.
func (u *usageTable) record(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n, _ := u.lru.Get(key)
	n++
	u.lru.Add(key, n)
	return n
}

func (u *usageTable) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n, _ := u.lru.Peek(key)
	return n
}
