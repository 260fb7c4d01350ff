package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ofertas/internal/model"
)

// Metrics tem registry próprio, separado do global.
type Metrics struct {
	Registry *prometheus.Registry

	ExtractionsTotal *prometheus.CounterVec
	ProductsTotal    *prometheus.CounterVec
	LLMRequest       prometheus.Histogram
	CacheHitsTotal   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ofertas_extractions_total",
				Help: "Total de imagens processadas, por resultado",
			},
			[]string{"outcome"},
		),
		ProductsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ofertas_products_total",
				Help: "Total de produtos extraídos",
			},
			[]string{"valid"},
		),
		LLMRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ofertas_llm_request_seconds",
				Help:    "Duração das chamadas ao modelo de visão",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ofertas_cache_hits_total",
				Help: "Respostas do modelo servidas pelo cache",
			},
		),
	}
	m.Registry.MustRegister(m.ExtractionsTotal, m.ProductsTotal, m.LLMRequest, m.CacheHitsTotal)
	return m
}

func (m *Metrics) ObserveResult(res model.Result) {
	m.ExtractionsTotal.WithLabelValues(string(res.Outcome)).Inc()
	for _, r := range res.Records {
		m.ProductsTotal.WithLabelValues(strconv.FormatBool(r.IsValid)).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Start expõe /metrics numa porta separada.
func (m *Metrics) Start(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go http.ListenAndServe(":"+port, mux)
}
