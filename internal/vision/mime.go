package vision

import (
	"encoding/base64"
	"net/http"
	"path/filepath"
	"strings"

	"ofertas/internal/model"
)

const defaultMIME = "image/jpeg"

var extMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// DetectMIME usa a extensão do arquivo e, se não reconhecer, os primeiros bytes.
func DetectMIME(filename string, data []byte) string {
	if m, ok := extMIME[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	if len(data) > 0 {
		if m := http.DetectContentType(data); strings.HasPrefix(m, "image/") {
			return m
		}
	}
	return defaultMIME
}

// DataURL monta "data:<mime>;base64,<conteúdo>".
func DataURL(img model.Image) string {
	mime := img.MIME
	if mime == "" {
		mime = DetectMIME(img.Filename, img.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
