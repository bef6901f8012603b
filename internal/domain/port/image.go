package port

import "image"

// ImageLoader интерфейс декодирования загруженных байтов
type ImageLoader interface {
	// Load декодирует байты в RGB-изображение
	Load(data []byte) (image.Image, error)
}

// ImageCache хранилище декодированных изображений по содержимому
type ImageCache interface {
	Get(key string) (image.Image, bool)
	Put(key string, img image.Image)
}
