package capture

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendDrain(t *testing.T) {
	t.Run("drain preserves append order", func(t *testing.T) {
		b := NewBuffer()
		b.Append("vidA", []byte("b1"))
		b.Append("vidA", []byte("b2"))
		b.Append("vidA", []byte("b3"))

		frags := b.Drain("vidA")
		require.Len(t, frags, 3)
		assert.Equal(t, []byte("b1"), frags[0])
		assert.Equal(t, []byte("b2"), frags[1])
		assert.Equal(t, []byte("b3"), frags[2])
	})

	t.Run("drain on unknown key returns empty", func(t *testing.T) {
		b := NewBuffer()
		assert.Empty(t, b.Drain("nope"))
	})

	t.Run("drain leaves key restartable", func(t *testing.T) {
		b := NewBuffer()
		b.Append("vidA", []byte("b1"))
		require.Len(t, b.Drain("vidA"), 1)
		assert.Empty(t, b.Drain("vidA"))

		b.Append("vidA", []byte("b2"))
		frags := b.Drain("vidA")
		require.Len(t, frags, 1)
		assert.Equal(t, []byte("b2"), frags[0])
	})

	t.Run("keys do not interfere", func(t *testing.T) {
		b := NewBuffer()
		b.Append("vidA", []byte("a"))
		b.Append("vidB", []byte("b"))
		require.Len(t, b.Drain("vidA"), 1)
		assert.Equal(t, 1, b.Len("vidB"))
	})

	t.Run("concurrent appends to distinct keys", func(t *testing.T) {
		b := NewBuffer()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("stream-%d", i)
				for j := 0; j < 100; j++ {
					b.Append(key, []byte{byte(j)})
				}
			}(i)
		}
		wg.Wait()
		for i := 0; i < 8; i++ {
			frags := b.Drain(fmt.Sprintf("stream-%d", i))
			require.Len(t, frags, 100)
			// Single-producer order must hold per key.
			for j, f := range frags {
				assert.Equal(t, []byte{byte(j)}, f)
			}
		}
	})
}
