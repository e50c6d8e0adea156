package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type status string

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	c := NewMemory[int](0)
	key := NewKey("ANIME", []status{"CURRENT", "PAUSED"}, []string{"UPDATED_TIME"})

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, 42)
	v, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	other := NewKey("ANIME", []status{"CURRENT"}, []string{"UPDATED_TIME"})
	_, ok = c.Get(other)
	assert.False(t, ok, "different status set is a different snapshot")
}

func TestMemory_InvalidateByType(t *testing.T) {
	t.Parallel()

	c := NewMemory[string](0)
	a1 := NewKey("ANIME", []status{"CURRENT"}, nil)
	a2 := NewKey("ANIME", []status{}, []string{"SCORE_DESC"})
	m1 := NewKey("MANGA", []status{"CURRENT"}, nil)

	c.Set(a1, "a1")
	c.Set(a2, "a2")
	c.Set(m1, "m1")
	assert.Equal(t, 3, c.Size())

	c.Invalidate("ANIME")

	_, ok := c.Get(a1)
	assert.False(t, ok)
	_, ok = c.Get(a2)
	assert.False(t, ok)
	v, ok := c.Get(m1)
	assert.True(t, ok)
	assert.Equal(t, "m1", v)
	assert.Equal(t, 1, c.Size())
}

func TestMemory_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory[int](time.Minute)
	c.now = func() time.Time { return now }

	key := NewKey("ANIME", []status{}, nil)
	c.Set(key, 1)

	now = now.Add(30 * time.Second)
	_, ok := c.Get(key)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestMemory_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewMemory[int](0)
	key := NewKey("ANIME", []status{}, nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set(key, i)
			c.Get(key)
			if i%10 == 0 {
				c.Invalidate("ANIME")
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 1)
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	key := NewKey("MANGA", []status{"CURRENT", "PAUSED"}, []string{"UPDATED_TIME"})
	assert.Equal(t, "list_MANGA_CURRENT,PAUSED_UPDATED_TIME", key.String())
}

var _ Store[int] = (*Memory[int])(nil)
