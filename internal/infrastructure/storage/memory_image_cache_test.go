package storage

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryImageCache(t *testing.T) {
	cache := NewMemoryImageCache(4)

	_, ok := cache.Get("missing")
	require.False(t, ok)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	cache.Put("k", img)
	cache.Put("k", img)

	got, ok := cache.Get("k")
	require.True(t, ok)
	require.Same(t, img, got)
	require.Equal(t, 1, cache.Len())
}

func TestMemoryImageCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewMemoryImageCache(2)

	a := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	b := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	c := image.NewNRGBA(image.Rect(0, 0, 3, 3))

	cache.Put("a", a)
	cache.Put("b", b)
	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Put("c", c)
	require.Equal(t, 2, cache.Len())

	_, ok = cache.Get("b")
	require.False(t, ok)
	got, ok := cache.Get("a")
	require.True(t, ok)
	require.Same(t, a, got)
	got, ok = cache.Get("c")
	require.True(t, ok)
	require.Same(t, c, got)
}

func TestMemoryImageCache_DefaultSize(t *testing.T) {
	cache := NewMemoryImageCache(0)
	for i := 0; i < DefaultImageCacheSize+5; i++ {
		cache.Put(string(rune('a'+i)), image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	}
	require.Equal(t, DefaultImageCacheSize, cache.Len())
}
