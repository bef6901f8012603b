package vision

import (
	"bytes"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// EncodeJPEG пишет изображение в JPEG с заданным качеством.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

// JPEGBytes кодирует изображение в JPEG и возвращает байты.
func JPEGBytes(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
