package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ofertas/internal/crawler"
	"ofertas/internal/extraction"
	"ofertas/internal/model"
	"ofertas/internal/offer"
	"ofertas/internal/repository"
)

const exportFilename = "ofertas_extraidas.csv"

// ImageFetcher baixa a imagem de um link.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (model.Image, error)
}

type Handler struct {
	svc       *extraction.Service
	fetcher   ImageFetcher
	logger    *zap.Logger
	models    []string
	maxBytes  int64
	sampleDir string
}

type Options struct {
	Models    []string
	MaxBytes  int64
	SampleDir string
}

func NewHandler(svc *extraction.Service, fetcher ImageFetcher, logger *zap.Logger, opts Options) *Handler {
	return &Handler{
		svc:       svc,
		fetcher:   fetcher,
		logger:    logger,
		models:    opts.Models,
		maxBytes:  opts.MaxBytes,
		sampleDir: opts.SampleDir,
	}
}

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.page())
}

// ExtractPage processa o upload e renderiza as tabelas por imagem.
func (h *Handler) ExtractPage(c *gin.Context) {
	data := h.page()
	modelName, ok := h.resolveModel(c.PostForm("model"))
	if !ok {
		data.Error = fmt.Sprintf("Modelo não suportado: %s", c.PostForm("model"))
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	data.Selected = modelName

	results, err := h.processForm(c, modelName)
	if err != nil {
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	data.Results = results
	for _, r := range results {
		data.Products += len(r.Result.Records)
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) ExtractJSON(c *gin.Context) {
	modelName, ok := h.resolveModel(c.PostForm("model"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modelo não suportado"})
		return
	}
	results, err := h.processForm(c, modelName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ExportCSV processa o upload e devolve o CSV com a coluna "arquivo".
func (h *Handler) ExportCSV(c *gin.Context) {
	modelName, ok := h.resolveModel(c.PostForm("model"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modelo não suportado"})
		return
	}
	results, err := h.processForm(c, modelName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := make([]offer.FileRecords, 0, len(results))
	for _, r := range results {
		files = append(files, offer.FileRecords{File: r.Filename, Records: r.Result.Records})
	}
	writeCSVHeaders(c, exportFilename)
	if err := offer.WriteFileCSV(c.Writer, files); err != nil {
		h.logger.Error("erro ao gerar csv", zap.Error(err))
	}
}

type extractURLRequest struct {
	URL   string `json:"url" binding:"required"`
	Model string `json:"model"`
}

func (h *Handler) ExtractURL(c *gin.Context) {
	var req extractURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload inválido"})
		return
	}
	modelName, ok := h.resolveModel(req.Model)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modelo não suportado"})
		return
	}

	ctx := c.Request.Context()
	img, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		h.logger.Warn("falha ao baixar imagem", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	fr, err := h.svc.Process(ctx, img, modelName)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fr)
}

// Normalize roda apenas o pipeline de normalização sobre um texto cru do modelo.
func (h *Handler) Normalize(c *gin.Context) {
	limit := h.maxBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "corpo inválido"})
		return
	}
	c.JSON(http.StatusOK, offer.Extract(string(body)))
}

func (h *Handler) RunCSV(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}

	run, records, err := h.svc.RunRecords(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, extraction.ErrPersistenceDisabled) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("erro ao buscar execução", zap.String("run_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao buscar execução"})
		return
	}

	writeCSVHeaders(c, fmt.Sprintf("ofertas_%s.csv", run.ID))
	if err := offer.WriteCSV(c.Writer, records); err != nil {
		h.logger.Error("erro ao gerar csv", zap.Error(err))
	}
}

func (h *Handler) page() pageData {
	samples, _ := crawler.ListSamples(h.sampleDir)
	data := pageData{Models: h.models, Samples: len(samples)}
	if len(h.models) > 0 {
		data.Selected = h.models[0]
	}
	return data
}

// resolveModel valida o modelo escolhido; vazio usa o padrão do serviço.
func (h *Handler) resolveModel(name string) (string, bool) {
	if name == "" {
		return h.svc.DefaultModel, true
	}
	return name, slices.Contains(h.models, name)
}

var errNoImages = errors.New("envie imagens ou carregue amostras para continuar")

// processForm lê as imagens do formulário (e as amostras, se pedidas) e processa em ordem.
// Arquivos recusados aparecem no resultado com a mensagem de erro, sem chamar o modelo.
func (h *Handler) processForm(c *gin.Context, modelName string) ([]extraction.FileResult, error) {
	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File["images"]
	}

	var pending []pendingImage
	for _, fh := range headers {
		img, err := h.readUpload(fh)
		pending = append(pending, pendingImage{name: fh.Filename, img: img, err: err})
	}
	if c.PostForm("samples") != "" {
		paths, err := crawler.ListSamples(h.sampleDir)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			img, err := crawler.LoadFile(p, h.maxBytes)
			pending = append(pending, pendingImage{name: filepath.Base(p), img: img, err: err})
		}
	}
	if len(pending) == 0 {
		return nil, errNoImages
	}

	results := make([]extraction.FileResult, len(pending))
	var (
		imgs []model.Image
		idx  []int
	)
	for i, p := range pending {
		if p.err != nil {
			results[i] = extraction.FileResult{
				Filename: p.name,
				Model:    modelName,
				Result:   model.Result{Records: []model.ProductRecord{}},
				Err:      p.err.Error(),
			}
			continue
		}
		imgs = append(imgs, p.img)
		idx = append(idx, i)
	}

	for j, fr := range h.svc.ProcessAll(c.Request.Context(), imgs, modelName) {
		results[idx[j]] = fr
	}
	return results, nil
}

type pendingImage struct {
	name string
	img  model.Image
	err  error
}

func (h *Handler) readUpload(fh *multipart.FileHeader) (model.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Image{}, err
	}
	defer f.Close()

	reader := io.Reader(f)
	if h.maxBytes > 0 {
		reader = io.LimitReader(f, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return model.Image{}, err
	}
	return crawler.NewImage(fh.Filename, data, h.maxBytes)
}

func writeCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)
}
