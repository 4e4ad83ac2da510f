package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 用于配置 LRU 缓存的行为。
type CacheConfig[K comparable, V any] struct {
	// Capacity 是缓存的最大条目数，必须大于 0。
	Capacity int
	// TTL 是条目的存活时间。如果为 0，则条目永不过期。
	TTL time.Duration
}

// entry 是链表节点中存储的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time
}

// LRUCache 是一个支持泛型、带 TTL 的线程安全 LRU 缓存。
// 平台用它缓存 Agent API Key 的认证结果，避免每次长轮询都查一遍数据库。
type LRUCache[K comparable, V any] struct {
	config CacheConfig[K, V]
	ll     *list.List
	cache  map[K]*list.Element
	lock   sync.RWMutex
}

// NewWithConfig 使用指定的配置创建一个 LRU 缓存实例。
func NewWithConfig[K comparable, V any](config CacheConfig[K, V]) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("capacity 必须大于 0")
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值。过期的条目在读取时被动淘汰。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	ent := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(ent.expiration) {
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	c.ll.MoveToFront(element)
	return ent.value, true
}

// Put 添加或更新一个键值对。超出容量时淘汰最久未使用的条目。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		ent := element.Value.(*entry[K, V])
		ent.value = value
		if c.config.TTL > 0 {
			ent.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
		return
	}

	newEntry := &entry[K, V]{key: key, value: value}
	if c.config.TTL > 0 {
		newEntry.expiration = time.Now().Add(c.config.TTL)
	}
	c.cache[key] = c.ll.PushFront(newEntry)

	if c.ll.Len() > c.config.Capacity {
		c.removeElement(c.ll.Back())
	}
}

// Remove 从缓存中删除一个键。
func (c *LRUCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if element, ok := c.cache[key]; ok {
		c.removeElement(element)
	}
}

// removeElement 从链表和 map 中移除元素。调用方必须持有锁。
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	delete(c.cache, e.Value.(*entry[K, V]).key)
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ll.Len()
}
