package storage

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"

	"leaf-bot/internal/domain/port"
)

// DefaultImageCacheSize задаёт ёмкость кэша, если она не указана.
const DefaultImageCacheSize = 32

// MemoryImageCache in-memory LRU-кэш декодированных изображений.
// Ключом служит хэш содержимого загрузки, поэтому устаревших записей не бывает,
// а при переполнении вытесняются давно не запрошенные изображения.
type MemoryImageCache struct {
	images *lru.Cache[string, image.Image]
}

// NewMemoryImageCache создаёт пустой кэш на size изображений
func NewMemoryImageCache(size int) *MemoryImageCache {
	if size <= 0 {
		size = DefaultImageCacheSize
	}
	// lru.New возвращает ошибку только для size <= 0
	images, _ := lru.New[string, image.Image](size)
	return &MemoryImageCache{images: images}
}

// Get возвращает изображение по ключу
func (c *MemoryImageCache) Get(key string) (image.Image, bool) {
	return c.images.Get(key)
}

// Put сохраняет изображение
func (c *MemoryImageCache) Put(key string, img image.Image) {
	c.images.Add(key, img)
}

// Len возвращает число изображений в кэше
func (c *MemoryImageCache) Len() int {
	return c.images.Len()
}

var _ port.ImageCache = (*MemoryImageCache)(nil)
