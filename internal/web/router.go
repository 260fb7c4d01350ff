// Package web expõe a página de upload e a API JSON/CSV sobre gin.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ofertas/internal/access"
)

//go:embed templates/*.html
var templatesFS embed.FS

// NewRouter monta as rotas; limiter nil desliga o limite de chamadas ao modelo.
func NewRouter(h *Handler, allow *access.Allowlist, limiter *rate.Limiter, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.MaxMultipartMemory = h.maxBytes * 4

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	limited := access.RateLimit(limiter, h.logger)

	protected := r.Group("/")
	protected.Use(access.Middleware(allow, h.logger))
	{
		protected.GET("/", h.Index)
		protected.POST("/extract", limited, h.ExtractPage)
		protected.POST("/export.csv", limited, h.ExportCSV)
	}

	api := r.Group("/api")
	api.Use(access.Middleware(allow, h.logger))
	{
		api.POST("/extract", limited, h.ExtractJSON)
		api.POST("/extract-url", limited, h.ExtractURL)
		api.POST("/normalize", h.Normalize)
		api.GET("/runs/:id/csv", h.RunCSV)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
