// Package storage arquiva as imagens processadas num bucket compatível com S3 (Cloudflare R2).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"ofertas/internal/model"
)

type R2Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type R2Archive struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewR2Archive(ctx context.Context, opts R2Options) (*R2Archive, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})
	return newR2Archive(client, opts.Bucket, opts.PublicURL), nil
}

func newR2Archive(client *s3.Client, bucket, publicURL string) *R2Archive {
	return &R2Archive{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// ObjectKey monta offers/<ano>/<mês>/<run-id><extensão>.
func ObjectKey(runID uuid.UUID, filename string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("offers/%04d/%02d/%s%s", at.Year(), int(at.Month()), runID, ext)
}

// Put envia a imagem e devolve a URL pública (ou a chave, se não houver URL pública).
func (r *R2Archive) Put(ctx context.Context, runID uuid.UUID, img model.Image) (string, error) {
	key := ObjectKey(runID, img.Filename, r.now().UTC())

	input := &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(img.Data),
	}
	if img.MIME != "" {
		input.ContentType = aws.String(img.MIME)
	}
	if _, err := r.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	if r.publicURL == "" {
		return key, nil
	}
	return r.publicURL + "/" + key, nil
}
