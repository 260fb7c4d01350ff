// Package crawler obtém imagens de oferta: upload, diretório de amostras ou link remoto.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"ofertas/internal/model"
)

var (
	ErrUnsupportedImage = errors.New("formato de imagem não suportado")
	ErrTooLarge         = errors.New("imagem excede o tamanho máximo")
	ErrNoImageFound     = errors.New("nenhuma imagem encontrada na página")
)

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
}

func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{Client: defaultHTTPClient, MaxBytes: maxBytes}
}

// Fetch baixa a imagem do link. Se o link for uma página HTML, segue a imagem
// principal declarada nela (og:image, twitter:image ou o primeiro <img>).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (model.Image, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Image{}, fmt.Errorf("url inválida %q", rawURL)
	}

	body, contentType, err := f.get(ctx, u.String())
	if err != nil {
		return model.Image{}, err
	}

	if isHTML(contentType) {
		imgURL, err := ParseImageURL(string(body), u)
		if err != nil {
			return model.Image{}, err
		}
		u = imgURL
		body, _, err = f.get(ctx, u.String())
		if err != nil {
			return model.Image{}, err
		}
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "imagem"
	}
	img, err := NewImage(name, body, f.MaxBytes)
	if err != nil {
		return model.Image{}, err
	}
	img.SourceURL = u.String()
	return img, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "ofertas-bot/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", u, err)
	}
	if f.MaxBytes > 0 && int64(len(b)) > f.MaxBytes {
		return nil, "", ErrTooLarge
	}
	return b, resp.Header.Get("Content-Type"), nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}
