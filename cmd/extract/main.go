package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"ofertas/internal/cache"
	"ofertas/internal/config"
	"ofertas/internal/crawler"
	"ofertas/internal/extraction"
	"ofertas/internal/logging"
	"ofertas/internal/model"
	"ofertas/internal/observability"
	"ofertas/internal/offer"
	"ofertas/internal/vision"
)

// go run ./cmd/extract -dir=./sample-data -out=ofertas.csv
// go run ./cmd/extract -files="banner1.jpg,banner2.png" -model=gpt-4o
// go run ./cmd/extract -raw=resposta.json
func main() {
	cfg := config.Load()

	dir := flag.String("dir", "", "Diretório com imagens (.jpg, .jpeg, .png)")
	filesArg := flag.String("files", "", "Imagens separadas por vírgula")
	modelName := flag.String("model", cfg.OpenAIModel, "Modelo de visão: gpt-4o-mini, gpt-4o ou gpt-5")
	out := flag.String("out", "", "Arquivo CSV de saída (padrão: stdout)")
	rawFile := flag.String("raw", "", "Normaliza uma resposta do modelo já salva, sem chamar a API")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal("erro ao criar arquivo de saída", zap.Error(err))
		}
		defer f.Close()
		w = f
	}

	if *rawFile != "" {
		b, err := os.ReadFile(*rawFile)
		if err != nil {
			logger.Fatal("erro ao ler resposta", zap.Error(err))
		}
		res := offer.Extract(string(b))
		logger.Info("resposta normalizada", zap.String("outcome", string(res.Outcome)), zap.Int("products", len(res.Records)))
		if err := offer.WriteCSV(w, res.Records); err != nil {
			logger.Fatal("erro ao gravar csv", zap.Error(err))
		}
		return
	}

	paths, err := collectPaths(*dir, *filesArg)
	if err != nil {
		logger.Fatal("erro ao listar imagens", zap.Error(err))
	}
	if len(paths) == 0 {
		logger.Fatal("nenhuma imagem informada; use -dir ou -files")
	}

	maxBytes := cfg.MaxUploadMB << 20
	var imgs []model.Image
	for _, p := range paths {
		img, err := crawler.LoadFile(p, maxBytes)
		if err != nil {
			logger.Warn("imagem ignorada", zap.String("file", p), zap.Error(err))
			continue
		}
		imgs = append(imgs, img)
	}

	visionClient, err := vision.NewClient(vision.Options{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL}, logger)
	if err != nil {
		logger.Fatal("erro ao criar cliente OpenAI", zap.Error(err))
	}
	svc := &extraction.Service{
		Vision:       visionClient,
		Metrics:      observability.NewMetrics(),
		Logger:       logger,
		DefaultModel: cfg.OpenAIModel,
	}
	if cfg.RedisURL != "" {
		store, err := cache.NewResponseStore(cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Fatal("erro ao configurar Redis", zap.Error(err))
		}
		defer store.Close()
		svc.Cache = store
	}

	results := svc.ProcessAll(context.Background(), imgs, *modelName)

	files := make([]offer.FileRecords, 0, len(results))
	for _, r := range results {
		if msg := r.Message(); msg != "" {
			logger.Warn(msg, zap.String("file", r.Filename))
		}
		files = append(files, offer.FileRecords{File: r.Filename, Records: r.Result.Records})
	}
	if err := offer.WriteFileCSV(w, files); err != nil {
		logger.Fatal("erro ao gravar csv", zap.Error(err))
	}
	logger.Info("extração finalizada", zap.Int("images", len(results)))
}

func collectPaths(dir, filesArg string) ([]string, error) {
	var paths []string
	if dir != "" {
		found, err := crawler.ListSamples(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	for _, f := range strings.Split(filesArg, ",") {
		if f = strings.TrimSpace(f); f != "" {
			paths = append(paths, f)
		}
	}
	return paths, nil
}
