package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	DatabaseURL   string
	RedisURL      string
	CacheTTL      time.Duration
	HTTPPort      string
	MetricsPort   string
	LogLevel      string
	SampleDir     string
	MaxUploadMB   int64
	AllowedEmails []string

	// RateLimitPerMinute limita as chamadas ao modelo; 0 desliga.
	RateLimitPerMinute int

	R2Endpoint  string
	R2AccessKey string
	R2SecretKey string
	R2Bucket    string
	R2PublicURL string
}

func Load() *Config {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	// Se não encontrar, tenta no diretório atual
	_ = godotenv.Load()
	return &Config{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		CacheTTL:      getDuration("CACHE_TTL", 24*time.Hour),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SampleDir:     getEnv("SAMPLE_DIR", "sample-data"),
		MaxUploadMB:   int64(getInt("MAX_UPLOAD_MB", 10)),
		AllowedEmails: splitList(os.Getenv("ALLOWED_EMAILS")),

		RateLimitPerMinute: getRate("RATE_LIMIT_PER_MINUTE", 30),

		R2Endpoint:  os.Getenv("R2_ENDPOINT"),
		R2AccessKey: os.Getenv("R2_ACCESS_KEY"),
		R2SecretKey: os.Getenv("R2_SECRET_KEY"),
		R2Bucket:    os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL: os.Getenv("R2_PUBLIC_BASE_URL"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return d
}

// getRate aceita 0 explícito para desligar o limite.
func getRate(k string, d int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v >= 0 {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return d
}

// splitList aceita vírgula, ponto e vírgula ou espaços como separador.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
