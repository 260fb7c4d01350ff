package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ofertas/internal/model"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b")
	at := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "offers/2026/03/6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b.png", ObjectKey(id, "Banner.PNG", at))
	assert.Equal(t, "offers/2026/03/6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b", ObjectKey(id, "sem-extensao", at))
}

func TestR2Archive_Put(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	archive := newR2Archive(client, "ofertas", "https://cdn.exemplo.com/")
	archive.now = func() time.Time { return time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC) }

	id := uuid.MustParse("6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b")
	url, err := archive.Put(context.Background(), id, model.Image{Filename: "a.jpg", MIME: "image/jpeg", Data: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.exemplo.com/offers/2026/10/6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b.jpg", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/ofertas/offers/2026/10/6f1c2b9e-4d3a-4b8e-9a1f-0c2d3e4f5a6b.jpg", path)
	assert.Equal(t, "image/jpeg", ctype)
}

func TestR2Archive_PutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:           "auto",
		Credentials:      credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint:     aws.String(srv.URL),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
	archive := newR2Archive(client, "ofertas", "")

	_, err := archive.Put(context.Background(), uuid.New(), model.Image{Filename: "a.jpg", Data: []byte("img")})
	assert.Error(t, err)
}
