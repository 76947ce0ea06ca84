package lrucache

import (
	"container/list"
	"sync"
)

// LruCache is a fixed-capacity, mutex-guarded LRU map. The TUI uses it to
// keep its rendered-row cache bounded no matter how large the grid is.
type LruCache[K, V comparable] interface {
	Get(key K) (V, bool)
	Add(key K, val V)
	Len() int
}

type lruCache[K, V comparable] struct {
	mu  sync.Mutex
	cap int
	ll  *list.List
	m   map[K]*list.Element
}

type lruCacheEntry[K, V comparable] struct {
	key K
	val V
}

func NewLruCache[K, V comparable](capacity int) LruCache[K, V] {
	return &lruCache[K, V]{cap: max(1, capacity), ll: list.New(), m: make(map[K]*list.Element)}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[key]; ok {
		c.ll.MoveToFront(ele)
		return ele.Value.(lruCacheEntry[K, V]).val, true
	}
	var zero V
	return zero, false
}

func (c *lruCache[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[key]; ok {
		ele.Value = lruCacheEntry[K, V]{key: key, val: val}
		c.ll.MoveToFront(ele)
		return
	}
	c.m[key] = c.ll.PushFront(lruCacheEntry[K, V]{key: key, val: val})
	if c.ll.Len() > c.cap {
		c.evictOldest()
	}
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *lruCache[K, V]) evictOldest() {
	tail := c.ll.Back()
	if tail == nil {
		return
	}
	c.ll.Remove(tail)
	delete(c.m, tail.Value.(lruCacheEntry[K, V]).key)
}
