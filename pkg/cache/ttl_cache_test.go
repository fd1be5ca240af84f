package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	// Uzun cleanup aralığı — expiry'nin Get anında (lazy) çalıştığını doğrular
	c := New[string, string](20*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheDelete(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheDeleteFunc(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("thread-1", 1)
	c.Set("thread-2", 2)
	c.Set("other", 3)

	c.DeleteFunc(func(key string) bool { return key == "thread-1" || key == "thread-2" })
	assert.Equal(t, 1, c.Len())
}
