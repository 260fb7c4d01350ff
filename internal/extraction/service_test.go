package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ofertas/internal/model"
	"ofertas/internal/observability"
	"ofertas/internal/repository"
)

const twoProducts = `{"products": [
  {"marca": "Nestlé", "produto": "Ninho 400g", "preco_brl": 19.9, "preco_brl_texto": "R$ 19,90"},
  {"marca": "Italac", "produto": "Leite UHT", "preco_brl_texto": "R$ 4,49"}
]}`

type fakeVision struct {
	responses map[string]string
	err       error
	calls     int
	models    []string
}

func (f *fakeVision) Extract(_ context.Context, img model.Image, modelName string) (string, error) {
	f.calls++
	f.models = append(f.models, modelName)
	if f.err != nil {
		return "", f.err
	}
	return f.responses[img.Filename], nil
}

type fakeCache struct{ data map[string]string }

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key, raw string) { c.data[key] = raw }

type fakeArchive struct {
	err  error
	keys []uuid.UUID
}

func (a *fakeArchive) Put(_ context.Context, runID uuid.UUID, img model.Image) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, runID)
	return "https://cdn/" + img.Filename, nil
}

type fakeRuns struct{ runs map[uuid.UUID]repository.Run }

func (r *fakeRuns) Save(_ context.Context, run repository.Run) error {
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRuns) Get(_ context.Context, id uuid.UUID) (repository.Run, error) {
	run, ok := r.runs[id]
	if !ok {
		return repository.Run{}, repository.ErrNotFound
	}
	return run, nil
}

type fakeProducts struct{ saved map[uuid.UUID][]model.ProductRecord }

func (p *fakeProducts) SaveAll(_ context.Context, runID uuid.UUID, records []model.ProductRecord) error {
	p.saved[runID] = records
	return nil
}

func (p *fakeProducts) ListByRun(_ context.Context, runID uuid.UUID) ([]model.ProductRecord, error) {
	return p.saved[runID], nil
}

func newService(v *fakeVision) *Service {
	return &Service{
		Vision:       v,
		Metrics:      observability.NewMetrics(),
		Logger:       zap.NewNop(),
		DefaultModel: "gpt-4o-mini",
	}
}

func TestService_Process(t *testing.T) {
	v := &fakeVision{responses: map[string]string{"a.png": twoProducts}}
	svc := newService(v)

	fr, err := svc.Process(context.Background(), model.Image{Filename: "a.png", Data: []byte("a")}, "")
	require.NoError(t, err)

	assert.Equal(t, "a.png", fr.Filename)
	assert.Equal(t, "gpt-4o-mini", fr.Model)
	assert.NotEqual(t, uuid.Nil, fr.RunID)
	assert.Equal(t, model.OutcomeSuccess, fr.Result.Outcome)
	require.Len(t, fr.Result.Records, 2)
	assert.Equal(t, "Nestlé Ninho 400g", fr.Result.Records[0].BrandName)
	assert.Equal(t, "4.49", fr.Result.Records[1].PriceValue.StringFixed(2))
	assert.Empty(t, fr.Message())
	assert.Equal(t, []string{"gpt-4o-mini"}, v.models)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.ExtractionsTotal.WithLabelValues("success")))
}

func TestService_Process_Outcomes(t *testing.T) {
	v := &fakeVision{responses: map[string]string{
		"lixo.png":  "desculpe, não consegui ler a imagem",
		"vazio.png": `{"products": []}`,
	}}
	svc := newService(v)
	ctx := context.Background()

	fr, err := svc.Process(ctx, model.Image{Filename: "lixo.png"}, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeParseFailure, fr.Result.Outcome)
	assert.Equal(t, "Não foi possível ler a resposta do modelo.", fr.Message())

	fr, err = svc.Process(ctx, model.Image{Filename: "vazio.png"}, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoProducts, fr.Result.Outcome)
	assert.Equal(t, "Nenhum produto encontrado nesta imagem.", fr.Message())
}

func TestService_Process_UsesCache(t *testing.T) {
	v := &fakeVision{responses: map[string]string{"a.png": twoProducts}}
	svc := newService(v)
	svc.Cache = &fakeCache{data: map[string]string{}}
	img := model.Image{Filename: "a.png", Data: []byte("a")}

	first, err := svc.Process(context.Background(), img, "")
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), img, "")
	require.NoError(t, err)

	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.CacheHitsTotal))
	assert.Equal(t, len(first.Result.Records), len(second.Result.Records))
	assert.NotEqual(t, first.RunID, second.RunID)

	_, err = svc.Process(context.Background(), img, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, 2, v.calls, "outro modelo não reaproveita o cache")
}

func TestService_Process_ArchiveAndPersist(t *testing.T) {
	v := &fakeVision{responses: map[string]string{"a.png": twoProducts}}
	svc := newService(v)
	archive := &fakeArchive{}
	runs := &fakeRuns{runs: map[uuid.UUID]repository.Run{}}
	products := &fakeProducts{saved: map[uuid.UUID][]model.ProductRecord{}}
	svc.Archive, svc.Runs, svc.Products = archive, runs, products

	fr, err := svc.Process(context.Background(), model.Image{Filename: "a.png"}, "")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/a.png", fr.ImageURL)
	assert.Equal(t, []uuid.UUID{fr.RunID}, archive.keys)
	require.Contains(t, runs.runs, fr.RunID)
	assert.Equal(t, twoProducts, runs.runs[fr.RunID].RawResponse)
	assert.Equal(t, model.OutcomeSuccess, runs.runs[fr.RunID].Outcome)

	run, records, err := svc.RunRecords(context.Background(), fr.RunID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", run.Filename)
	assert.Len(t, records, 2)

	_, _, err = svc.RunRecords(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_Process_ArchiveFailureIsNotFatal(t *testing.T) {
	v := &fakeVision{responses: map[string]string{"a.png": twoProducts}}
	svc := newService(v)
	svc.Archive = &fakeArchive{err: errors.New("r2 fora do ar")}

	fr, err := svc.Process(context.Background(), model.Image{Filename: "a.png", SourceURL: "https://loja/a.png"}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://loja/a.png", fr.ImageURL)
	assert.Len(t, fr.Result.Records, 2)
}

func TestService_RunRecords_Disabled(t *testing.T) {
	svc := newService(&fakeVision{})
	_, _, err := svc.RunRecords(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}

func TestService_ProcessAll(t *testing.T) {
	v := &fakeVision{responses: map[string]string{
		"a.png": twoProducts,
		"b.png": `{"products": []}`,
	}}
	svc := newService(v)

	results := svc.ProcessAll(context.Background(), []model.Image{
		{Filename: "a.png"},
		{Filename: "b.png"},
	}, "")
	require.Len(t, results, 2)
	assert.Equal(t, "a.png", results[0].Filename)
	assert.Equal(t, model.OutcomeSuccess, results[0].Result.Outcome)
	assert.Equal(t, model.OutcomeNoProducts, results[1].Result.Outcome)
}

func TestService_ProcessAll_ErrorDoesNotAbortBatch(t *testing.T) {
	v := &fakeVision{err: errors.New("timeout")}
	svc := newService(v)

	results := svc.ProcessAll(context.Background(), []model.Image{{Filename: "a.png"}, {Filename: "b.png"}}, "")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, r.Err, "timeout")
		assert.NotNil(t, r.Result.Records)
		assert.Contains(t, r.Message(), "Falha ao processar "+r.Filename)
	}
	assert.Equal(t, 2, v.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.Metrics.ExtractionsTotal.WithLabelValues("error")))
}

func TestService_ProcessAll_CanceledContext(t *testing.T) {
	v := &fakeVision{responses: map[string]string{"a.png": twoProducts}}
	svc := newService(v)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.ProcessAll(ctx, []model.Image{{Filename: "a.png"}}, "")
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Err)
	assert.Equal(t, 0, v.calls)
}
