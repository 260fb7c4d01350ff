package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ofertas/internal/model"
)

var sampleExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// ListSamples lista as imagens do diretório de exemplos, ordenadas pelo nome.
// Diretório inexistente não é erro: simplesmente não há exemplos.
func ListSamples(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list samples %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !sampleExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func LoadFile(path string, maxBytes int64) (model.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewImage(path, data, maxBytes)
}
