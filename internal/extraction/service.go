// Package extraction orquestra uma extração: cache, modelo de visão, normalização,
// arquivamento da imagem e persistência.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ofertas/internal/cache"
	"ofertas/internal/model"
	"ofertas/internal/observability"
	"ofertas/internal/offer"
	"ofertas/internal/repository"
	"ofertas/internal/vision"
)

var ErrPersistenceDisabled = errors.New("persistência desabilitada (DATABASE_URL vazia)")

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, raw string)
}

type Archive interface {
	Put(ctx context.Context, runID uuid.UUID, img model.Image) (string, error)
}

type RunStore interface {
	Save(ctx context.Context, run repository.Run) error
	Get(ctx context.Context, id uuid.UUID) (repository.Run, error)
}

type ProductStore interface {
	SaveAll(ctx context.Context, runID uuid.UUID, records []model.ProductRecord) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]model.ProductRecord, error)
}

// FileResult é o resultado de uma imagem. Err vem preenchido quando a chamada ao modelo falhou.
type FileResult struct {
	RunID    uuid.UUID    `json:"run_id"`
	Filename string       `json:"filename"`
	Model    string       `json:"model"`
	ImageURL string       `json:"image_url,omitempty"`
	Result   model.Result `json:"result"`
	Err      string       `json:"error,omitempty"`
}

// Message é o texto exibido ao usuário para esta imagem.
func (f FileResult) Message() string {
	if f.Err != "" {
		return "Falha ao processar " + f.Filename + ": " + f.Err
	}
	return f.Result.Outcome.Message()
}

// Service tem dependências opcionais: Cache, Archive, Runs e Products podem ficar nil.
type Service struct {
	Vision   vision.Extractor
	Cache    Cache
	Archive  Archive
	Runs     RunStore
	Products ProductStore
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	// DefaultModel é usado quando a requisição não escolhe um modelo.
	DefaultModel string
}

func (s *Service) Process(ctx context.Context, img model.Image, modelName string) (FileResult, error) {
	if modelName == "" {
		modelName = s.DefaultModel
	}
	fr := FileResult{
		RunID:    uuid.New(),
		Filename: img.Filename,
		Model:    modelName,
	}
	log := s.Logger.With(
		zap.String("run_id", fr.RunID.String()),
		zap.String("file", img.Filename),
		zap.String("model", modelName),
	)

	raw, err := s.rawResponse(ctx, img, modelName, log)
	if err != nil {
		s.Metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		log.Error("falha ao consultar o modelo", zap.Error(err))
		return fr, fmt.Errorf("process %s: %w", img.Filename, err)
	}

	fr.Result = offer.Extract(raw)
	s.Metrics.ObserveResult(fr.Result)
	log.Info("imagem processada",
		zap.String("outcome", string(fr.Result.Outcome)),
		zap.Int("products", len(fr.Result.Records)),
		zap.Int("skipped", fr.Result.Skipped))

	if s.Archive != nil {
		url, err := s.Archive.Put(ctx, fr.RunID, img)
		if err != nil {
			log.Warn("falha ao arquivar imagem", zap.Error(err))
		}
		fr.ImageURL = url
	}
	if fr.ImageURL == "" {
		fr.ImageURL = img.SourceURL
	}

	s.persist(ctx, fr, raw, log)
	return fr, nil
}

// ProcessAll processa as imagens em sequência; a falha de uma não interrompe as demais.
func (s *Service) ProcessAll(ctx context.Context, imgs []model.Image, modelName string) []FileResult {
	results := make([]FileResult, 0, len(imgs))
	for _, img := range imgs {
		if err := ctx.Err(); err != nil {
			results = append(results, FileResult{Filename: img.Filename, Model: modelName, Err: err.Error()})
			continue
		}
		fr, err := s.Process(ctx, img, modelName)
		if err != nil {
			fr.Err = err.Error()
			fr.Result = model.Result{Records: []model.ProductRecord{}}
		}
		results = append(results, fr)
	}
	return results
}

// RunRecords devolve os registros persistidos de uma execução.
func (s *Service) RunRecords(ctx context.Context, runID uuid.UUID) (repository.Run, []model.ProductRecord, error) {
	if s.Runs == nil || s.Products == nil {
		return repository.Run{}, nil, ErrPersistenceDisabled
	}
	run, err := s.Runs.Get(ctx, runID)
	if err != nil {
		return repository.Run{}, nil, err
	}
	records, err := s.Products.ListByRun(ctx, runID)
	if err != nil {
		return repository.Run{}, nil, err
	}
	return run, records, nil
}

func (s *Service) rawResponse(ctx context.Context, img model.Image, modelName string, log *zap.Logger) (string, error) {
	key := cache.Key(modelName, img.Data)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			s.Metrics.CacheHitsTotal.Inc()
			log.Debug("resposta servida pelo cache")
			return raw, nil
		}
	}

	start := time.Now()
	raw, err := s.Vision.Extract(ctx, img, modelName)
	s.Metrics.LLMRequest.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, raw)
	}
	return raw, nil
}

// persist grava a execução e seus produtos; falhas são apenas registradas no log.
func (s *Service) persist(ctx context.Context, fr FileResult, raw string, log *zap.Logger) {
	if s.Runs == nil {
		return
	}
	run := repository.Run{
		ID:          fr.RunID,
		Filename:    fr.Filename,
		Model:       fr.Model,
		Outcome:     fr.Result.Outcome,
		RawResponse: raw,
		ImageURL:    fr.ImageURL,
	}
	if err := s.Runs.Save(ctx, run); err != nil {
		log.Warn("falha ao salvar execução", zap.Error(err))
		return
	}
	if s.Products == nil || len(fr.Result.Records) == 0 {
		return
	}
	if err := s.Products.SaveAll(ctx, fr.RunID, fr.Result.Records); err != nil {
		log.Warn("falha ao salvar produtos", zap.Error(err))
	}
}
