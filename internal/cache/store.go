// Package cache guarda respostas cruas do modelo no Redis, evitando pagar duas vezes pela mesma imagem.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ofertas:raw:"

type ResponseStore struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

// NewResponseStore aceita tanto "redis://..." quanto "host:porta".
func NewResponseStore(redisURL string, ttl time.Duration, logger *zap.Logger) (*ResponseStore, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		var err error
		if opt, err = redis.ParseURL(redisURL); err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	}
	return &ResponseStore{Client: redis.NewClient(opt), TTL: ttl, Logger: logger}, nil
}

// Key identifica a combinação modelo + conteúdo da imagem.
func Key(modelName string, image []byte) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write(image)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get devolve ("", false) em qualquer falha; o Redis fora do ar não pode travar a extração.
func (s *ResponseStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		s.Logger.Warn("erro ao ler cache", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return val, true
}

func (s *ResponseStore) Set(ctx context.Context, key, raw string) {
	if err := s.Client.Set(ctx, key, raw, s.TTL).Err(); err != nil {
		s.Logger.Warn("erro ao gravar cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *ResponseStore) Close() error {
	return s.Client.Close()
}
