package crawler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"ofertas/internal/model"
	"ofertas/internal/vision"
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// NewImage valida tamanho e formato (JPG, PNG ou WEBP) e monta a imagem.
func NewImage(filename string, data []byte, maxBytes int64) (model.Image, error) {
	if len(data) == 0 {
		return model.Image{}, fmt.Errorf("%s: arquivo vazio", filename)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return model.Image{}, fmt.Errorf("%s: %w", filename, ErrTooLarge)
	}

	mime := vision.DetectMIME(filename, data)
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		mime = sniffed
	}
	if !allowedMIME[mime] {
		return model.Image{}, fmt.Errorf("%s (%s): %w", filename, mime, ErrUnsupportedImage)
	}
	return model.Image{
		Filename: filepath.Base(filename),
		MIME:     mime,
		Data:     data,
	}, nil
}
