package capture

import (
	"hash/fnv"
	"sync"
)

const bufferShards = 16

// Buffer accumulates ordered media fragments per stream key. Keys are
// sharded so appends to unrelated streams never contend on one lock.
type Buffer struct {
	shards [bufferShards]bufferShard
}

type bufferShard struct {
	mu      sync.Mutex
	streams map[string][][]byte
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	for i := range b.shards {
		b.shards[i].streams = make(map[string][][]byte)
	}
	return b
}

func (b *Buffer) shard(key string) *bufferShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &b.shards[h.Sum32()%bufferShards]
}

// Append adds one fragment to the stream's sequence, creating it if absent.
// The buffer takes ownership of the fragment slice.
func (b *Buffer) Append(key string, fragment []byte) {
	s := b.shard(key)
	s.mu.Lock()
	s.streams[key] = append(s.streams[key], fragment)
	s.mu.Unlock()
}

// Drain atomically removes and returns the stream's full sequence in append
// order. The key stays present with an empty sequence so the stream can
// restart cleanly. Draining an empty or unknown key returns nil.
func (b *Buffer) Drain(key string) [][]byte {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	frags := s.streams[key]
	s.streams[key] = nil
	return frags
}

// Len returns how many fragments are buffered for the key.
func (b *Buffer) Len(key string) int {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams[key])
}
