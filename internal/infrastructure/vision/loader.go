package vision

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"

	"github.com/disintegration/imaging"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

// Loader декодирует загрузки в непрозрачное RGB-изображение и кэширует результат по содержимому.
type Loader struct {
	cache port.ImageCache
}

// NewLoader создаёт загрузчик. cache может быть nil, тогда декодирование идёт каждый раз.
func NewLoader(cache port.ImageCache) *Loader {
	return &Loader{cache: cache}
}

// Load декодирует байты изображения с учётом EXIF-ориентации.
func (l *Loader) Load(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &entity.ConfigError{Field: entity.FieldImage}
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if l.cache != nil {
		if img, ok := l.cache.Get(key); ok {
			return img, nil
		}
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &entity.DecodeError{Kind: entity.DecodeImage, Err: err}
	}

	img := toRGB(decoded)
	if l.cache != nil {
		l.cache.Put(key, img)
	}
	return img, nil
}

// toRGB копирует изображение в NRGBA с началом в (0,0) и отбрасывает альфа-канал.
func toRGB(src image.Image) *image.NRGBA {
	dst := imaging.Clone(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

var _ port.ImageLoader = (*Loader)(nil)
