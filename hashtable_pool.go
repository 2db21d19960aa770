package rzip

import "sync"

// hashTablePool reuses hash tables across compressions; the backing array
// is 1-64 MiB depending on level, well worth keeping off the allocator's
// hot path when many files are compressed in sequence.
var hashTablePool = sync.Pool{
	New: func() any {
		return (*hashTable)(nil)
	},
}

// acquireHashTable returns a pooled hash table of the right size for the
// level, or allocates a fresh one when the pool is empty or holds a table
// sized for a different level.
func acquireHashTable(mbUsed, maxChainLen uint) *hashTable {
	ht, _ := hashTablePool.Get().(*hashTable)
	if ht == nil || ht.sizedFor != mbUsed {
		return newHashTable(mbUsed, maxChainLen)
	}
	ht.maxChainLen = maxChainLen
	return ht
}

// releaseHashTable returns a hash table to the pool.
func releaseHashTable(ht *hashTable) {
	if ht == nil {
		return
	}
	hashTablePool.Put(ht)
}
